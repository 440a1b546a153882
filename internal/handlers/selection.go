package handlers

import (
	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
)

// Selection-pipeline messages arrive only from tablets and drive a bound
// headset's volumetric-selection working set; none of them have a
// dedicated outbound broadcast shape in §6 since the selection cursor is
// local to the tablet/headset pair, not shared world state.

func requireTablet(c *session.Connection, op string) error {
	if c.Role != session.RoleTablet || c.Tablet == nil {
		return protoerr.NewRoleViolation(op, "tablet", c.Role.String())
	}
	return nil
}

func (s *Server) handleLocation(c *session.Connection, m *proto.Location) error {
	return requireTablet(c, "location")
}

func (s *Server) handleTabletScale(c *session.Connection, m *proto.TabletScale) error {
	return requireTablet(c, "tablet_scale")
}

func (s *Server) handleLasso(c *session.Connection, m *proto.Lasso) error {
	if err := requireTablet(c, "lasso"); err != nil {
		return err
	}
	if headsetConn, ok := s.Registry.FindHeadset(c.Tablet.BoundHeadsetID); ok && c.Tablet.HasBoundHeadset {
		for i := range m.PointsX {
			headsetConn.Headset.VolumetricWorking[uint32(i)] = struct{}{}
		}
	}
	return nil
}

func (s *Server) handleAddNewSelectionInput(c *session.Connection, m *proto.AddNewSelectionInput) error {
	if err := requireTablet(c, "add_new_selection_input"); err != nil {
		return err
	}
	c.Tablet.SelectionMethod = m.Method
	return nil
}

func (s *Server) handleConfirmSelection(c *session.Connection, m *proto.ConfirmSelection) error {
	if err := requireTablet(c, "confirm_selection"); err != nil {
		return err
	}
	s.World.Lock()
	_, ok := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
	s.World.Unlock()
	if !ok {
		s.Log.Warn("confirm selection: unknown target", connField(c))
	}
	return nil
}
