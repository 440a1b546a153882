package proto

import "github.com/sereno-labs/vfv-server/internal/wire"

// The functions below build outbound frames (§6): the server's broadcast
// shapes for the subset of opcodes re-emitted to peers, plus the
// server-only opcodes (lock-owner/owner announcements, headset binding and
// status, anchor segment streaming) that have no inbound counterpart.
// Each returns the frame's payload bytes ready for a single Write.

func EncodeAddVTKDataset(datasetID uint32, name string, ptFields, cellFields []uint32) []byte {
	w := wire.NewWriter(MsgAddVTKDataset)
	w.U32(datasetID).String(name)
	w.U32(uint32(len(ptFields)))
	for _, f := range ptFields {
		w.U32(f)
	}
	w.U32(uint32(len(cellFields)))
	for _, f := range cellFields {
		w.U32(f)
	}
	return w.Payload()
}

// EncodeAddSubDataset matches §6's outbound layout exactly: ownerID is
// PublicOwnerID for a public subdataset, or the owning headset's ID.
func EncodeAddSubDataset(datasetID, sdID uint32, name string, ownerID uint32) []byte {
	w := wire.NewWriter(MsgAddSubDataset)
	w.U32(datasetID).U32(sdID).String(name).U32(ownerID)
	return w.Payload()
}

func EncodeRemoveSubDataset(datasetID, sdID uint32) []byte {
	w := wire.NewWriter(MsgRemoveSubDataset)
	w.U32(datasetID).U32(sdID)
	return w.Payload()
}

func EncodeRotateDataset(datasetID, sdID, headsetID uint32, quat [4]float32) []byte {
	w := wire.NewWriter(MsgRotateDataset)
	w.U32(datasetID).U32(sdID).U32(headsetID)
	w.F32(quat[0]).F32(quat[1]).F32(quat[2]).F32(quat[3])
	return w.Payload()
}

// EncodeMoveDataset is the outbound frame for an accepted TranslateDataset
// (§6 names the broadcast shape "MoveDataset").
func EncodeMoveDataset(datasetID, sdID, headsetID uint32, pos [3]float32) []byte {
	w := wire.NewWriter(MsgTranslateDataset)
	w.U32(datasetID).U32(sdID).U32(headsetID)
	w.F32(pos[0]).F32(pos[1]).F32(pos[2])
	return w.Payload()
}

func EncodeScaleDataset(datasetID, sdID, headsetID uint32, scale [3]float32) []byte {
	w := wire.NewWriter(MsgScaleDataset)
	w.U32(datasetID).U32(sdID).U32(headsetID)
	w.F32(scale[0]).F32(scale[1]).F32(scale[2])
	return w.Payload()
}

func EncodeTFDataset(datasetID, sdID, headsetID uint32, tfType, colorMode uint8, params []float32) []byte {
	w := wire.NewWriter(MsgTFDataset)
	w.U32(datasetID).U32(sdID).U32(headsetID).U8(tfType).U8(colorMode)
	w.U32(uint32(len(params)))
	for _, p := range params {
		w.F32(p)
	}
	return w.Payload()
}

func EncodeDuplicateSubDataset(datasetID, sdID, newSDID uint32, name string, ownerID uint32) []byte {
	w := wire.NewWriter(MsgDuplicateSubDataset)
	w.U32(datasetID).U32(sdID).U32(newSDID).String(name).U32(ownerID)
	return w.Payload()
}

func EncodeRenameSubDataset(datasetID, sdID uint32, name string) []byte {
	w := wire.NewWriter(MsgRenameSubDataset)
	w.U32(datasetID).U32(sdID).String(name)
	return w.Payload()
}

// EncodeSubDatasetLockOwner announces the current lock owner; ownerID is
// PublicOwnerID when the lock was released.
func EncodeSubDatasetLockOwner(datasetID, sdID, ownerID uint32) []byte {
	w := wire.NewWriter(MsgSubDatasetLockOwner)
	w.U32(datasetID).U32(sdID).U32(ownerID)
	return w.Payload()
}

// EncodeSubDatasetOwner announces the current (private) owner; ownerID is
// PublicOwnerID when the subdataset is public.
func EncodeSubDatasetOwner(datasetID, sdID, ownerID uint32) []byte {
	w := wire.NewWriter(MsgSubDatasetOwner)
	w.U32(datasetID).U32(sdID).U32(ownerID)
	return w.Payload()
}

// EncodeHeadsetBindingInfo matches §6's layout: `u32 headsetID, u32 color,
// u8 tabletConnected, u32 handedness, u32 tabletID, u8 firstConnected`.
func EncodeHeadsetBindingInfo(headsetID, color uint32, tabletConnected bool, handedness, tabletID uint32, firstConnected bool) []byte {
	w := wire.NewWriter(MsgHeadsetBindingInfo)
	w.U32(headsetID).U32(color).Bool(tabletConnected).U32(handedness).U32(tabletID).Bool(firstConnected)
	return w.Payload()
}

// HeadsetStatus is one record of a HeadsetsStatus tick broadcast, matching
// §6's record layout field for field.
type HeadsetStatus struct {
	HeadsetID            uint32
	Color                uint32
	Action               uint32
	Position              [3]float32
	Rotation              [4]float32
	PointingTechnique     uint32
	PointingDatasetID     uint32
	PointingSubDatasetID  uint32
	PointingInPublic      bool
	LocalSDPosition       [3]float32
	HeadsetStartPosition  [3]float32
	HeadsetStartRotation  [4]float32
}

// EncodeHeadsetsStatus builds the 10Hz tick broadcast (§5): every known
// headset's pose, current action, and pointing substate in one frame.
func EncodeHeadsetsStatus(statuses []HeadsetStatus) []byte {
	w := wire.NewWriter(MsgHeadsetsStatus)
	w.U32(uint32(len(statuses)))
	for _, s := range statuses {
		w.U32(s.HeadsetID).U32(s.Color).U32(s.Action)
		w.F32(s.Position[0]).F32(s.Position[1]).F32(s.Position[2])
		w.F32(s.Rotation[0]).F32(s.Rotation[1]).F32(s.Rotation[2]).F32(s.Rotation[3])
		w.U32(s.PointingTechnique).U32(s.PointingDatasetID).U32(s.PointingSubDatasetID)
		w.Bool(s.PointingInPublic)
		w.F32(s.LocalSDPosition[0]).F32(s.LocalSDPosition[1]).F32(s.LocalSDPosition[2])
		w.F32(s.HeadsetStartPosition[0]).F32(s.HeadsetStartPosition[1]).F32(s.HeadsetStartPosition[2])
		w.F32(s.HeadsetStartRotation[0]).F32(s.HeadsetStartRotation[1]).F32(s.HeadsetStartRotation[2]).F32(s.HeadsetStartRotation[3])
	}
	return w.Payload()
}

// EncodeHeadsetAnchorSegment streams one chunk of the anchor data buffer to
// a headset that has not yet received the anchor (the provider included).
func EncodeHeadsetAnchorSegment(data []byte) []byte {
	w := wire.NewWriter(MsgHeadsetAnchorSegment)
	w.Bytes(data)
	return w.Payload()
}

// EncodeHeadsetAnchorEOF marks the end of an anchor data stream.
func EncodeHeadsetAnchorEOF() []byte {
	return wire.NewWriter(MsgHeadsetAnchorEOF).Payload()
}

func EncodeToggleMapVisibility(datasetID, sdID uint32) []byte {
	w := wire.NewWriter(MsgToggleMapVisibility)
	w.U32(datasetID).U32(sdID)
	return w.Payload()
}

func EncodeStartAnnotationStroke(datasetID, sdID, annotationID, color uint32, width float32, xs, ys []float32) []byte {
	w := wire.NewWriter(MsgStartAnnotationStroke)
	w.U32(datasetID).U32(sdID).U32(annotationID).U32(color).F32(width)
	w.U32(uint32(len(xs)))
	for i := range xs {
		w.F32(xs[i]).F32(ys[i])
	}
	return w.Payload()
}

func EncodeClearAnnotations(datasetID, sdID uint32) []byte {
	w := wire.NewWriter(MsgClearAnnotations)
	w.U32(datasetID).U32(sdID)
	return w.Payload()
}

func EncodeStartAnnotationText(datasetID, sdID, annotationID, color uint32, posX, posY float32, text string) []byte {
	w := wire.NewWriter(MsgStartAnnotationText)
	w.U32(datasetID).U32(sdID).U32(annotationID).U32(color).F32(posX).F32(posY).String(text)
	return w.Payload()
}

func EncodeAnchorAnnotation(datasetID, sdID, annotationID uint32) []byte {
	w := wire.NewWriter(MsgAnchorAnnotation)
	w.U32(datasetID).U32(sdID).U32(annotationID)
	return w.Payload()
}
