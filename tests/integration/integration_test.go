// Package integration drives the full stack — internal/vfvserver's real TCP
// accept loop plus internal/handlers, internal/world, internal/perm, and
// internal/broadcast wired together exactly as cmd/vfv-server assembles
// them — through the six testable-property scenarios named in SPEC_FULL.md
// §8. Grounded on alxayo-rtmp-go/internal/rtmp/server/server_test.go's
// dial-a-real-listener style, translated from its poll-with-deadline loops
// to require.Eventually per SPEC_FULL.md §10.7.
package integration

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/vfvserver"
	"github.com/sereno-labs/vfv-server/internal/wire"
)

func startServer(t *testing.T, cfg vfvserver.Config) *vfvserver.Server {
	t.Helper()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}
	s := vfvserver.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	require.Eventually(t, func() bool { return s.Addr() != nil }, time.Second, time.Millisecond)
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

// testClient is a hand-rolled client half of the wire protocol: it writes
// frames built with wire.NewWriter (mirroring what a real HMD/tablet client
// would send) and decodes server frames field-by-field using the same
// wire.Decode* primitives the parser uses, since there is no generic
// "decode any outbound frame" entry point — a real client knows, per
// opcode, what follows.
type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *testClient {
	t.Helper()
	c, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return &testClient{t: t, conn: c, r: bufio.NewReader(c)}
}

func (tc *testClient) send(frame []byte) {
	tc.t.Helper()
	_, err := tc.conn.Write(frame)
	require.NoError(tc.t, err)
}

func (tc *testClient) readN(n int) []byte {
	tc.t.Helper()
	buf := make([]byte, n)
	_, err := io.ReadFull(tc.r, buf)
	require.NoError(tc.t, err)
	return buf
}

func (tc *testClient) readU16() uint16   { return wire.DecodeU16(tc.readN(2)) }
func (tc *testClient) readU32() uint32   { return wire.DecodeU32(tc.readN(4)) }
func (tc *testClient) readF32() float32  { return wire.DecodeF32(tc.readN(4)) }
func (tc *testClient) readBool() bool    { return wire.DecodeBool(tc.readN(1)) }
func (tc *testClient) readString() string {
	n := tc.readU32()
	return string(tc.readN(int(n)))
}
func (tc *testClient) readBytes() []byte {
	n := tc.readU32()
	return tc.readN(int(n))
}

// nextOpcode blocks (respecting a previously-set deadline) until the next
// frame's type tag arrives.
func (tc *testClient) nextOpcode() uint16 { return tc.readU16() }

func (tc *testClient) setDeadline(d time.Duration) {
	_ = tc.conn.SetReadDeadline(time.Now().Add(d))
}

func (tc *testClient) clearDeadline() {
	_ = tc.conn.SetReadDeadline(time.Time{})
}

func identHeadset(tc *testClient) {
	tc.send(wire.NewWriter(proto.MsgIdentHeadset).Payload())
}

func identTablet(tc *testClient, headsetIP string, suggestedTabletID, handedness uint32) {
	tc.send(wire.NewWriter(proto.MsgIdentTablet).String(headsetIP).U32(suggestedTabletID).U32(handedness).Payload())
}

// readBindingInfo consumes a HeadsetBindingInfo frame (§6) and returns its
// fields; it fails the test if a different opcode arrives first.
func readBindingInfo(tc *testClient) (headsetID, color uint32, tabletConnected bool, handedness, tabletID uint32, firstConnected bool) {
	tc.t.Helper()
	require.Equal(tc.t, proto.MsgHeadsetBindingInfo, tc.nextOpcode())
	headsetID = tc.readU32()
	color = tc.readU32()
	tabletConnected = tc.readBool()
	handedness = tc.readU32()
	tabletID = tc.readU32()
	firstConnected = tc.readBool()
	return
}

func addVTKDataset(tc *testClient, name string) {
	// Inbound AddVTKDataset carries no datasetID (§4.3, vtkSchema): name,
	// nbPtFields, ptFields..., nbCellFields, cellFields...; the ID is
	// server-assigned on AddDatasetLocked.
	tc.send(wire.NewWriter(proto.MsgAddVTKDataset).String(name).U32(0).U32(0).Payload())
}

// readAddVTKDataset consumes the broadcast echo of an AddVTKDataset and
// returns the server-assigned dataset ID.
func readAddVTKDataset(tc *testClient) (datasetID uint32, name string) {
	tc.t.Helper()
	require.Equal(tc.t, proto.MsgAddVTKDataset, tc.nextOpcode())
	datasetID = tc.readU32()
	name = tc.readString()
	nbPt := tc.readU32()
	for i := uint32(0); i < nbPt; i++ {
		tc.readU32()
	}
	nbCell := tc.readU32()
	for i := uint32(0); i < nbCell; i++ {
		tc.readU32()
	}
	return
}

func addSubDataset(tc *testClient, datasetID uint32, isPublic bool) {
	tc.send(wire.NewWriter(proto.MsgAddSubDataset).U32(datasetID).Bool(isPublic).Payload())
}

func readAddSubDataset(tc *testClient) (datasetID, sdID uint32, name string, ownerID uint32) {
	tc.t.Helper()
	require.Equal(tc.t, proto.MsgAddSubDataset, tc.nextOpcode())
	datasetID = tc.readU32()
	sdID = tc.readU32()
	name = tc.readString()
	ownerID = tc.readU32()
	return
}

func rotateDataset(tc *testClient, datasetID, sdID uint32, quat [4]float32) {
	tc.send(wire.NewWriter(proto.MsgRotateDataset).U32(datasetID).U32(sdID).
		F32(quat[0]).F32(quat[1]).F32(quat[2]).F32(quat[3]).Payload())
}

func readRotateDataset(tc *testClient) (datasetID, sdID, headsetID uint32, quat [4]float32) {
	tc.t.Helper()
	require.Equal(tc.t, proto.MsgRotateDataset, tc.nextOpcode())
	datasetID = tc.readU32()
	sdID = tc.readU32()
	headsetID = tc.readU32()
	quat = [4]float32{tc.readF32(), tc.readF32(), tc.readF32(), tc.readF32()}
	return
}

func renameSubDataset(tc *testClient, datasetID, sdID uint32, name string) {
	tc.send(wire.NewWriter(proto.MsgRenameSubDataset).U32(datasetID).U32(sdID).String(name).Payload())
}

func readRenameSubDataset(tc *testClient) (datasetID, sdID uint32, name string) {
	tc.t.Helper()
	require.Equal(tc.t, proto.MsgRenameSubDataset, tc.nextOpcode())
	datasetID = tc.readU32()
	sdID = tc.readU32()
	name = tc.readString()
	return
}

func anchorSegment(tc *testClient, data []byte) {
	tc.send(wire.NewWriter(proto.MsgAnchoringDataSegment).Bytes(data).Payload())
}

func anchorStatus(tc *testClient, ok bool) {
	tc.send(wire.NewWriter(proto.MsgAnchoringDataStatus).Bool(ok).Payload())
}

func readRemoveSubDataset(tc *testClient) (datasetID, sdID uint32) {
	tc.t.Helper()
	require.Equal(tc.t, proto.MsgRemoveSubDataset, tc.nextOpcode())
	datasetID = tc.readU32()
	sdID = tc.readU32()
	return
}

// --- scenario 1: basic login and tablet/headset binding ---------------------

func TestBasicLoginAndBinding(t *testing.T) {
	s := startServer(t, vfvserver.Config{TickInterval: 20 * time.Millisecond, LockOwnerTimeout: time.Second})

	hc := dial(t, s.Addr().String())
	identHeadset(hc)
	headsetID, color, tabletConnected, _, _, firstConnected := readBindingInfo(hc)
	require.Equal(t, uint32(0), headsetID, "the first headset connected gets ID 0")
	require.Equal(t, uint32(0xffe119), color)
	require.False(t, tabletConnected)
	require.True(t, firstConnected, "the first headset to connect becomes the anchor provider")

	tabc := dial(t, s.Addr().String())
	identTablet(tabc, "127.0.0.1", 0, 1)

	require.Eventually(t, func() bool {
		hconn, ok := s.Registry.FindHeadset(0)
		return ok && hconn.Headset.HasBoundTablet
	}, 2*time.Second, 10*time.Millisecond)

	tconn, ok := s.Registry.FindTablet(1)
	require.True(t, ok)
	require.True(t, tconn.Tablet.HasBoundHeadset)
	require.Equal(t, uint32(0), tconn.Tablet.BoundHeadsetID)
}

// --- scenario 2: rotate round-trip ------------------------------------------

// TestRotateRoundTrip checks §4.3's pure-transform contract: a rotate fans
// out to every other peer but never echoes back to its own originator (§8
// Scenario 2, "the originating tablet does not" receive the echo).
func TestRotateRoundTrip(t *testing.T) {
	s := startServer(t, vfvserver.Config{TickInterval: 20 * time.Millisecond, LockOwnerTimeout: time.Second})

	hc := dial(t, s.Addr().String())
	identHeadset(hc)
	readBindingInfo(hc)

	peer := dial(t, s.Addr().String())
	identHeadset(peer)
	readBindingInfo(peer)

	addVTKDataset(hc, "volume")
	datasetID, _ := readAddVTKDataset(hc)
	readAddVTKDataset(peer)

	addSubDataset(hc, datasetID, true)
	_, sdID, _, ownerID := readAddSubDataset(hc)
	require.Equal(t, proto.PublicOwnerID, ownerID)
	readAddSubDataset(peer)

	quat := [4]float32{0.1, 0.2, 0.3, 0.9}
	rotateDataset(hc, datasetID, sdID, quat)

	gotDatasetID, gotSDID, gotHeadsetID, gotQuat := readRotateDataset(peer)
	require.Equal(t, datasetID, gotDatasetID)
	require.Equal(t, sdID, gotSDID)
	require.Equal(t, uint32(0), gotHeadsetID, "hc identified first, so it is headset 0")
	require.Equal(t, quat, gotQuat)

	hc.setDeadline(150 * time.Millisecond)
	_, err := hc.conn.Read(make([]byte, 1))
	require.Error(t, err, "the originating connection must not receive its own rotate echo")
	hc.clearDeadline()
}

// --- scenario 3: permission denied under a private owner --------------------

func TestPermissionDeniedUnderPrivateOwner(t *testing.T) {
	s := startServer(t, vfvserver.Config{TickInterval: 20 * time.Millisecond, LockOwnerTimeout: time.Second})

	h1 := dial(t, s.Addr().String())
	identHeadset(h1)
	readBindingInfo(h1)

	h2 := dial(t, s.Addr().String())
	identHeadset(h2)
	readBindingInfo(h2)

	addVTKDataset(h1, "volume")
	datasetID, _ := readAddVTKDataset(h1)
	readAddVTKDataset(h2) // h2 also observes the broadcast

	addSubDataset(h1, datasetID, false) // private, owned by h1
	_, sdID, _, ownerID := readAddSubDataset(h1)
	require.Equal(t, uint32(0), ownerID, "h1 is the first headset connected, ID 0")
	readAddSubDataset(h2)

	// h2 is not the owner: its rotate must be silently dropped, no broadcast.
	rotateDataset(h2, datasetID, sdID, [4]float32{9, 9, 9, 9})

	h1.setDeadline(150 * time.Millisecond)
	_, err := h1.conn.Read(make([]byte, 1))
	require.Error(t, err, "h2's denied rotate must not produce any broadcast")
	h1.clearDeadline()

	// A legitimate follow-up from the owner still goes through, proving the
	// server stayed healthy and h2's rejected message was not merely delayed.
	renameSubDataset(h1, datasetID, sdID, "renamed")
	_, gotSDID, gotName := readRenameSubDataset(h1)
	require.Equal(t, sdID, gotSDID)
	require.Equal(t, "renamed", gotName)
}

// --- scenario 4: lock expiry -------------------------------------------------

func TestLockExpiry(t *testing.T) {
	s := startServer(t, vfvserver.Config{TickInterval: 10 * time.Millisecond, LockOwnerTimeout: 30 * time.Millisecond})

	hc := dial(t, s.Addr().String())
	identHeadset(hc)
	readBindingInfo(hc)

	peer := dial(t, s.Addr().String())
	identHeadset(peer)
	readBindingInfo(peer)

	addVTKDataset(hc, "volume")
	datasetID, _ := readAddVTKDataset(hc)
	readAddVTKDataset(peer)
	addSubDataset(hc, datasetID, true)
	_, sdID, _, _ := readAddSubDataset(hc)
	readAddSubDataset(peer)

	rotateDataset(hc, datasetID, sdID, [4]float32{0, 0, 0, 1})
	readRotateDataset(peer) // stamps lockOwner = headset 0; hc gets no echo

	hc.setDeadline(2 * time.Second)
	for {
		op := hc.nextOpcode()
		if op == proto.MsgSubDatasetLockOwner {
			// rewind isn't possible on a stream and the opcode is already
			// consumed, so the fields are decoded inline.
			gotDatasetID := hc.readU32()
			gotSDID := hc.readU32()
			gotOwner := hc.readU32()
			if gotDatasetID == datasetID && gotSDID == sdID {
				require.Equal(t, proto.PublicOwnerID, gotOwner)
				break
			}
			continue
		}
		// Any other frame goes to skipFrame, which fails the test on opcodes
		// it has no shape for (a HeadsetsStatus tick never fires here since
		// the anchor round never completes).
		skipFrame(hc, op)
	}
}

// skipFrame drains a frame this test does not otherwise care about, using
// each opcode's known fixed shape. Only the shapes reachable in these
// scenarios are handled.
func skipFrame(tc *testClient, op uint16) {
	switch op {
	case proto.MsgHeadsetAnchorSegment:
		tc.readBytes()
	case proto.MsgHeadsetAnchorEOF:
		// no fields
	default:
		tc.t.Fatalf("unexpected opcode %d while draining", op)
	}
}

// --- scenario 5: anchor round ------------------------------------------------

func TestAnchorRound(t *testing.T) {
	s := startServer(t, vfvserver.Config{TickInterval: 20 * time.Millisecond, LockOwnerTimeout: time.Second})

	hc := dial(t, s.Addr().String())
	identHeadset(hc)
	_, _, _, _, _, firstConnected := readBindingInfo(hc)
	require.True(t, firstConnected, "the sole connected headset is the anchor provider")

	payload := []byte{1, 2, 3, 4, 5}
	anchorSegment(hc, payload)
	anchorStatus(hc, true)

	require.Equal(t, proto.MsgHeadsetAnchorSegment, hc.nextOpcode())
	require.Equal(t, payload, hc.readBytes())
	require.Equal(t, proto.MsgHeadsetAnchorEOF, hc.nextOpcode())
}

// --- scenario 6: private-owner disconnect sweep -----------------------------

func TestPrivateOwnerDisconnectSweep(t *testing.T) {
	s := startServer(t, vfvserver.Config{TickInterval: 20 * time.Millisecond, LockOwnerTimeout: time.Second})

	h1 := dial(t, s.Addr().String())
	identHeadset(h1)
	readBindingInfo(h1)

	h2 := dial(t, s.Addr().String())
	identHeadset(h2)
	readBindingInfo(h2)

	addVTKDataset(h1, "volume")
	datasetID, _ := readAddVTKDataset(h1)
	readAddVTKDataset(h2)

	addSubDataset(h1, datasetID, false) // private, owned by h1
	_, sdID, _, _ := readAddSubDataset(h1)
	readAddSubDataset(h2)

	require.NoError(t, h1.conn.Close())

	h2.setDeadline(2 * time.Second)
	gotDatasetID, gotSDID := readRemoveSubDataset(h2)
	require.Equal(t, datasetID, gotDatasetID)
	require.Equal(t, sdID, gotSDID)
}
