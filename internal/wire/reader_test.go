package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccumulatorFeedsAcrossArbitraryBoundaries(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for split := 0; split <= len(payload); split++ {
		a := NewAccumulator(len(payload))
		n1 := a.Feed(payload[:split])
		require.Equal(t, split, n1)
		if split < len(payload) {
			require.False(t, a.Full())
		}
		n2 := a.Feed(payload[split:])
		require.Equal(t, len(payload)-split, n2)
		require.True(t, a.Full())
		require.Equal(t, payload, a.Bytes())
	}
}

func TestAccumulatorIgnoresExcessBytes(t *testing.T) {
	a := NewAccumulator(2)
	consumed := a.Feed([]byte{1, 2, 3, 4})
	require.Equal(t, 2, consumed)
	require.True(t, a.Full())
	require.Equal(t, []byte{1, 2}, a.Bytes())
}

func TestAccumulatorResetReusesCapacity(t *testing.T) {
	a := NewAccumulator(4)
	a.Feed([]byte{1, 2, 3, 4})
	require.True(t, a.Full())

	a.Reset(2)
	require.False(t, a.Full())
	require.Equal(t, 2, a.Remaining())
	a.Feed([]byte{9, 9})
	require.True(t, a.Full())
	require.Equal(t, []byte{9, 9}, a.Bytes())
}

func TestAccumulatorZeroTargetIsImmediatelyFull(t *testing.T) {
	a := NewAccumulator(0)
	require.True(t, a.Full())
	require.Equal(t, 0, a.Feed([]byte{1}))
}
