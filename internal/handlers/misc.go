package handlers

import (
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
)

func (s *Server) handleToggleMapVisibility(c *session.Connection, m *proto.ToggleMapVisibility) error {
	s.World.Lock()
	sd, ok := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
	if ok {
		sd.Meta.MapVisible = !sd.Meta.MapVisible
	}
	s.World.Unlock()
	if !ok {
		s.Log.Warn("toggle map visibility: unknown target", connField(c))
		return nil
	}
	s.broadcastAll(proto.EncodeToggleMapVisibility(m.DatasetID, m.SDID))
	return nil
}

// handleResetVolumetricSelection clears the acting headset's working set
// for the named subdataset; it is not itself subject to canModify since it
// discards the sender's own pending selection rather than shared state.
func (s *Server) handleResetVolumetricSelection(c *session.Connection, m *proto.ResetVolumetricSelection) error {
	headsetID, hasActing := actingHeadset(c)
	if !hasActing {
		return nil
	}
	if conn, ok := s.Registry.FindHeadset(headsetID); ok {
		conn.Headset.ClearVolumetricWorkingSet()
	}
	return nil
}
