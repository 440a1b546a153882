package proto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sereno-labs/vfv-server/internal/wire"
)

func feedAllSplits(t *testing.T, frame []byte, expect func(t *testing.T, msgs []InMessage)) {
	t.Helper()
	for split := 0; split <= len(frame); split++ {
		for split2 := split; split2 <= len(frame); split2++ {
			p := NewParser()
			var got []InMessage
			parts := [][]byte{frame[:split], frame[split:split2], frame[split2:]}
			for _, part := range parts {
				msgs, err := p.Feed(part)
				require.NoError(t, err)
				got = append(got, msgs...)
			}
			expect(t, got)
		}
	}
}

func TestParserIdentHeadsetHasNoFields(t *testing.T) {
	frame := wire.NewWriter(MsgIdentHeadset).Payload()
	feedAllSplits(t, frame, func(t *testing.T, msgs []InMessage) {
		require.Len(t, msgs, 1)
		_, ok := msgs[0].(*IdentHeadset)
		require.True(t, ok)
	})
}

func TestParserIdentTabletRoundTrip(t *testing.T) {
	frame := wire.NewWriter(MsgIdentTablet).String("10.0.0.5").U32(42).U32(1).Payload()
	feedAllSplits(t, frame, func(t *testing.T, msgs []InMessage) {
		require.Len(t, msgs, 1)
		m, ok := msgs[0].(*IdentTablet)
		require.True(t, ok)
		require.Equal(t, "10.0.0.5", m.HeadsetIP)
		require.Equal(t, uint32(42), m.TabletID)
		require.Equal(t, uint32(1), m.Handedness)
	})
}

func TestParserRotateDatasetRoundTrip(t *testing.T) {
	frame := wire.NewWriter(MsgRotateDataset).U32(3).U32(7).F32(0).F32(0).F32(0).F32(1).Payload()
	feedAllSplits(t, frame, func(t *testing.T, msgs []InMessage) {
		require.Len(t, msgs, 1)
		m := msgs[0].(*RotateDataset)
		require.Equal(t, uint32(3), m.DatasetID)
		require.Equal(t, uint32(7), m.SDID)
		require.Equal(t, [4]float32{0, 0, 0, 1}, m.Quat)
	})
}

func TestParserAddVTKDatasetDynamicSchema(t *testing.T) {
	frame := wire.NewWriter(MsgAddVTKDataset).
		String("brain.vtk").
		U32(2).U32(1).U32(3). // nbPtFields=2, ptFields={1,3}
		U32(1).U32(4).        // nbCellFields=1, cellFields={4}
		Payload()
	feedAllSplits(t, frame, func(t *testing.T, msgs []InMessage) {
		require.Len(t, msgs, 1)
		m := msgs[0].(*AddVTKDataset)
		require.Equal(t, "brain.vtk", m.Name)
		require.Equal(t, []uint32{1, 3}, m.PtFields)
		require.Equal(t, []uint32{4}, m.CellFields)
	})
}

func TestParserLassoDynamicSchema(t *testing.T) {
	frame := wire.NewWriter(MsgLasso).U32(3).
		F32(0).F32(0).
		F32(1).F32(0).
		F32(1).F32(1).
		Payload()
	feedAllSplits(t, frame, func(t *testing.T, msgs []InMessage) {
		require.Len(t, msgs, 1)
		m := msgs[0].(*Lasso)
		require.Equal(t, []float32{0, 1, 1}, m.PointsX)
		require.Equal(t, []float32{0, 0, 1}, m.PointsY)
	})
}

func TestParserZeroPointLasso(t *testing.T) {
	frame := wire.NewWriter(MsgLasso).U32(0).Payload()
	p := NewParser()
	msgs, err := p.Feed(frame)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	m := msgs[0].(*Lasso)
	require.Empty(t, m.PointsX)
	require.Empty(t, m.PointsY)
}

func TestParserAnchoringDataSegmentEmptyBytes(t *testing.T) {
	frame := wire.NewWriter(MsgAnchoringDataSegment).Bytes(nil).Payload()
	p := NewParser()
	msgs, err := p.Feed(frame)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	m := msgs[0].(*AnchoringDataSegment)
	require.Empty(t, m.Data)
}

func TestParserConsecutiveMessagesInOneFeed(t *testing.T) {
	var frame []byte
	frame = append(frame, wire.NewWriter(MsgIdentHeadset).Payload()...)
	frame = append(frame, wire.NewWriter(MsgTabletScale).F32(2.5).Payload()...)
	p := NewParser()
	msgs, err := p.Feed(frame)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	_, ok := msgs[0].(*IdentHeadset)
	require.True(t, ok)
	scale, ok := msgs[1].(*TabletScale)
	require.True(t, ok)
	require.InDelta(t, float32(2.5), scale.Scale, 0.0001)
}

func TestParserTFDatasetU8FieldsAndDynamicParams(t *testing.T) {
	frame := wire.NewWriter(MsgTFDataset).
		U32(1).U32(2). // datasetID, sdID
		U8(3).U8(1).   // tfType, colorMode
		U32(2).F32(0.1).F32(0.9).
		Payload()
	feedAllSplits(t, frame, func(t *testing.T, msgs []InMessage) {
		require.Len(t, msgs, 1)
		m := msgs[0].(*TFDataset)
		require.Equal(t, uint8(3), m.TFType)
		require.Equal(t, uint8(1), m.ColorMode)
		require.Equal(t, []float32{0.1, 0.9}, m.Params)
	})
}

func TestParserUpdateHeadsetFullPointingSubstate(t *testing.T) {
	w := wire.NewWriter(MsgUpdateHeadset)
	for i := 0; i < 7; i++ {
		w.F32(float32(i)) // position(3) + rotation(4)
	}
	w.U32(1).U32(2).U32(3).Bool(true)
	for i := 0; i < 3; i++ {
		w.F32(float32(i))
	}
	for i := 0; i < 3; i++ {
		w.F32(float32(i))
	}
	for i := 0; i < 4; i++ {
		w.F32(float32(i))
	}
	p := NewParser()
	msgs, err := p.Feed(w.Payload())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	m := msgs[0].(*UpdateHeadset)
	require.Equal(t, uint32(1), m.PointingTechnique)
	require.True(t, m.PointingInPublic)
}

func TestParserUnknownOpcodeIsProtocolError(t *testing.T) {
	frame := wire.NewWriter(9999).Payload()
	p := NewParser()
	_, err := p.Feed(frame)
	require.Error(t, err)
}

func TestParserOversizedFieldLengthIsRejected(t *testing.T) {
	p := NewParser()
	frame := wire.NewWriter(MsgAddCloudPointDataset).Payload()
	// Overwrite the length prefix (bytes 2-6) with an oversized value.
	frame = append(frame, 0, 0, 0, 0) // placeholder length, will be overwritten
	big := uint32(1<<30 + 1)
	frame[2] = byte(big >> 24)
	frame[3] = byte(big >> 16)
	frame[4] = byte(big >> 8)
	frame[5] = byte(big)
	_, err := p.Feed(frame)
	require.Error(t, err)
}
