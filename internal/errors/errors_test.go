package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string { return "fake timeout" }
func (fakeTimeoutErr) Timeout() bool { return true }

func TestIsProtocolErrorClassification(t *testing.T) {
	root := stdErrors.New("root")
	wrapped := fmt.Errorf("adding context: %w", root)

	pe := NewProtocolError("parser.unknown_tag", wrapped)
	require.True(t, IsProtocolError(pe))
	require.True(t, stdErrors.Is(pe, root))

	fe := NewFrameError("codec.oversized_field", nil)
	require.True(t, IsProtocolError(fe))

	rv := NewRoleViolation("UpdateHeadset", "headset", "tablet")
	require.True(t, IsProtocolError(rv))

	ut := NewUnknownTarget(3, 7, true)
	require.False(t, IsProtocolError(ut))
	require.True(t, IsUnknownTarget(ut))

	pd := NewPermissionDenied("h0", 3, 7)
	require.False(t, IsProtocolError(pd))
	require.True(t, IsPermissionDenied(pd))
}

func TestIsTimeout(t *testing.T) {
	root := fakeTimeoutErr{}
	to := NewTimeoutError("broadcast.send", 200*time.Millisecond, root)
	require.True(t, IsTimeout(to))
	require.False(t, IsProtocolError(to))
	require.True(t, IsTimeout(context.DeadlineExceeded))

	var ne error = root
	require.True(t, IsTimeout(ne))
}

func TestUnwrapChains(t *testing.T) {
	base := stdErrors.New("connection reset")
	l1 := fmt.Errorf("read: %w", base)
	l2 := NewProtocolError("reader.read_chunk", l1)
	require.True(t, stdErrors.Is(l2, base))

	var pm protocolMarker
	require.True(t, stdErrors.As(l2, &pm))
}

func TestNilSafety(t *testing.T) {
	require.False(t, IsProtocolError(nil))
	require.False(t, IsTimeout(nil))
}

func TestAnchorAndDatasetLoadFailureStrings(t *testing.T) {
	af := NewAnchorFailure("provider disconnected mid-round")
	require.Contains(t, af.Error(), "provider disconnected mid-round")

	dl := NewDatasetLoadFailure("scan001.vtk", stdErrors.New("bad header"))
	require.Contains(t, dl.Error(), "scan001.vtk")
	require.True(t, stdErrors.Is(dl, stdErrors.Unwrap(dl)))
}

func TestNegativePredicates(t *testing.T) {
	require.False(t, IsProtocolError(stdErrors.New("plain")))
	require.False(t, IsTimeout(stdErrors.New("plain")))
	require.False(t, IsUnknownTarget(stdErrors.New("plain")))
	require.False(t, IsPermissionDenied(stdErrors.New("plain")))
}
