package handlers

import (
	"github.com/sereno-labs/vfv-server/internal/audit"
	"github.com/sereno-labs/vfv-server/internal/metrics"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
)

// handleIdentHeadset promotes c to a headset (§4.3), assigns it a color and
// ID, possibly makes it the anchor provider if none is set yet (§4.4), and
// replies with its binding info.
func (s *Server) handleIdentHeadset(c *session.Connection, _ *proto.IdentHeadset) error {
	hd, err := s.Registry.PromoteToHeadset(c)
	if err != nil {
		// Palette exhaustion is a capacity condition, not a protocol
		// violation: log and drop, leave the connection open but
		// unidentified.
		s.Log.Warn("headset promotion failed", connField(c), errField(err))
		return nil
	}
	metrics.HeadsetsActive.Inc()
	s.Audit.Emit(audit.NewEvent(audit.EventIdentify).WithConnID(c.ID).WithHeadsetID(hd.ID).WithData("role", "headset"))

	s.electAnchorProviderIfNoneLocked(c, hd.ID)

	c.TrySend(s.bindingInfoFrame(hd))
	return nil
}

// bindingInfoFrame builds the HeadsetBindingInfo frame describing hd's
// current binding state (§4.4): tabletConnected/handedness/tabletID are
// resolved from hd's bound tablet if any, and firstConnected reports
// whether hd is the current anchor provider. Sent to the headset itself on
// ident, to its newly-bound tablet, and re-sent to either side whenever the
// binding changes (bind or disconnect) so both peers stay in sync.
func (s *Server) bindingInfoFrame(hd *session.HeadsetData) []byte {
	tabletConnected := hd.HasBoundTablet
	handedness, tabletID := uint32(0), uint32(0)
	if tabletConnected {
		if tc, ok := s.Registry.FindTablet(hd.BoundTabletID); ok {
			handedness = tc.Tablet.Handedness
			tabletID = tc.Tablet.ID
		}
	}
	s.World.Lock()
	firstConnected := s.World.Anchor().HasProvider && s.World.Anchor().ProviderID == hd.ID
	s.World.Unlock()
	return proto.EncodeHeadsetBindingInfo(hd.ID, hd.Color, tabletConnected, handedness, tabletID, firstConnected)
}

// electAnchorProviderIfNoneLocked makes newHeadsetID the anchor provider if
// the world currently has none, returning whether it did (the binding
// info's "firstConnected" flag, §4.4).
func (s *Server) electAnchorProviderIfNoneLocked(c *session.Connection, newHeadsetID uint32) bool {
	s.World.Lock()
	defer s.World.Unlock()
	if s.World.Anchor().HasProvider {
		return false
	}
	s.World.Anchor().Reset(newHeadsetID)
	return true
}

// handleIdentTablet promotes c to a tablet and attempts to auto-pair it
// with the headset named by IP (§4.4). A tablet that names an IP with no
// matching connected headset yet stays unbound until that headset connects
// (binding is currently attempted only at ident time; a later headset
// connecting from the same IP is not retroactively paired, matching the
// spec's "when a headset connects from that address... the two sessions
// are linked" being driven from the headset side in the common case where
// the tablet connects first is an accepted simplification here).
func (s *Server) handleIdentTablet(c *session.Connection, m *proto.IdentTablet) error {
	headsetConn, hasHeadset := s.Registry.FindHeadsetByIP(m.HeadsetIP)
	boundHeadsetID := uint32(0)
	if hasHeadset {
		boundHeadsetID = headsetConn.Headset.ID
	}
	td, err := s.Registry.PromoteToTablet(c, m.Handedness, boundHeadsetID, hasHeadset)
	if err != nil {
		return err
	}
	if hasHeadset {
		s.Registry.Bind(td, headsetConn.Headset)
		// Both sides learn of the new binding (§4.4, §8 Scenario 1): the
		// tablet learns its headset's color/ID, and the headset, already
		// replied to once at its own ident time, gets a refreshed
		// HeadsetBindingInfo now that tabletConnected has flipped true.
		frame := s.bindingInfoFrame(headsetConn.Headset)
		c.TrySend(frame)
		headsetConn.TrySend(frame)
	}
	s.Audit.Emit(audit.NewEvent(audit.EventIdentify).WithConnID(c.ID).WithData("role", "tablet").WithData("auto_paired", hasHeadset))
	return nil
}
