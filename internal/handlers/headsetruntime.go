package handlers

import (
	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
)

// handleUpdateHeadset caches a headset's pose and pointing substate only;
// no mutation of world state and no immediate broadcast — the tick loop
// (internal/broadcast) aggregates every headset's cached state into one
// HeadsetsStatus frame (§4.7).
func (s *Server) handleUpdateHeadset(c *session.Connection, m *proto.UpdateHeadset) error {
	if c.Role != session.RoleHeadset || c.Headset == nil {
		return protoerr.NewRoleViolation("update_headset", "headset", c.Role.String())
	}
	h := c.Headset
	h.Position = m.Position
	h.Rotation = m.Rotation
	h.Pointing = session.PointingState{
		Technique:     m.PointingTechnique,
		DatasetID:     m.PointingDatasetID,
		SubDatasetID:  m.PointingSubDatasetID,
		InPublic:      m.PointingInPublic,
		LocalPosition: m.LocalSDPosition,
		StartPosition: m.HeadsetStartPosition,
		StartRotation: m.HeadsetStartRotation,
	}
	return nil
}

// handleHeadsetCurrentAction updates the cached action and clears the
// volumetric working set on leaving a selection state (§4.3).
func (s *Server) handleHeadsetCurrentAction(c *session.Connection, m *proto.HeadsetCurrentAction) error {
	if c.Role != session.RoleHeadset || c.Headset == nil {
		return protoerr.NewRoleViolation("headset_current_action", "headset", c.Role.String())
	}
	h := c.Headset
	wasSelecting := isSelectionAction(h.CurrentAction)
	h.CurrentAction = m.Action
	if wasSelecting && !isSelectionAction(m.Action) {
		h.ClearVolumetricWorkingSet()
	}
	return nil
}
