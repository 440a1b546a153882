package handlers

import (
	"github.com/sereno-labs/vfv-server/internal/audit"
	"github.com/sereno-labs/vfv-server/internal/metrics"
	"github.com/sereno-labs/vfv-server/internal/perm"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
)

// HandleDisconnect runs the full close-time cleanup for a connection
// (§4.4, §4.5): for a headset, the owner-disconnect sweep plus anchor
// provider re-election if it was the provider; for a tablet, clearing the
// bound headset's reference. Called by internal/vfvserver once a
// connection's read loop exits.
func (s *Server) HandleDisconnect(c *session.Connection) {
	hd, removed := s.Registry.Remove(c.ID)
	if !removed {
		return
	}
	if hd == nil {
		// A tablet (or a still-unidentified connection) disconnected: the
		// only cross-connection state to clean up is its bound headset's
		// reference back to it.
		if c.Role == session.RoleTablet && c.Tablet != nil && c.Tablet.HasBoundHeadset {
			if headsetConn, ok := s.Registry.FindHeadset(c.Tablet.BoundHeadsetID); ok {
				headsetConn.Headset.HasBoundTablet = false
				headsetConn.TrySend(s.bindingInfoFrame(headsetConn.Headset))
			}
		}
		return
	}
	metrics.HeadsetsActive.Dec()
	s.Audit.Emit(audit.NewEvent(audit.EventDisconnect).WithConnID(c.ID).WithHeadsetID(hd.ID))

	s.World.Lock()
	removed, relinquished := perm.DisconnectSweepLocked(s.World, hd.ID)
	wasProvider := s.World.Anchor().HasProvider && s.World.Anchor().ProviderID == hd.ID
	s.World.Unlock()

	for _, sd := range removed {
		s.broadcastAll(proto.EncodeRemoveSubDataset(sd.DatasetID, sd.ID))
	}
	for _, sd := range relinquished {
		s.broadcastAll(proto.EncodeSubDatasetLockOwner(sd.DatasetID, sd.ID, proto.PublicOwnerID))
	}

	if hd.HasBoundTablet {
		if tabletConn, ok := s.Registry.FindTablet(hd.BoundTabletID); ok {
			tabletConn.Tablet.HasBoundHeadset = false
			hd.HasBoundTablet = false
			tabletConn.TrySend(s.bindingInfoFrame(hd))
		}
	}

	if wasProvider {
		metrics.AnchorRoundsTotal.WithLabelValues("provider_disconnected").Inc()
		s.reelectAnchorProvider()
	}
}
