package handlers

import (
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
	"github.com/sereno-labs/vfv-server/internal/world"
)

func (s *Server) handleRotateDataset(c *session.Connection, m *proto.RotateDataset) error {
	headsetID, _ := actingHeadset(c)
	return s.withPermittedSubDataset(c, m.DatasetID, m.SDID, func() {
		sd, _ := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
		sd.Rotation = m.Quat
	}, func() {
		s.broadcastAllExcept(proto.EncodeRotateDataset(m.DatasetID, m.SDID, headsetID, m.Quat), c)
	})
}

func (s *Server) handleTranslateDataset(c *session.Connection, m *proto.TranslateDataset) error {
	headsetID, _ := actingHeadset(c)
	return s.withPermittedSubDataset(c, m.DatasetID, m.SDID, func() {
		sd, _ := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
		sd.Position = m.Position
	}, func() {
		s.broadcastAllExcept(proto.EncodeMoveDataset(m.DatasetID, m.SDID, headsetID, m.Position), c)
	})
}

func (s *Server) handleScaleDataset(c *session.Connection, m *proto.ScaleDataset) error {
	headsetID, _ := actingHeadset(c)
	return s.withPermittedSubDataset(c, m.DatasetID, m.SDID, func() {
		sd, _ := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
		sd.Scale = m.Scale
	}, func() {
		s.broadcastAllExcept(proto.EncodeScaleDataset(m.DatasetID, m.SDID, headsetID, m.Scale), c)
	})
}

// handleSetSubDatasetClipping stamps lock ownership like any other
// transform mutation but has no dedicated outbound frame in §6's table;
// the clipping plane is stored on the subdataset only. No frame is sent,
// and no code path republishes the plane to peers or late joiners.
func (s *Server) handleSetSubDatasetClipping(c *session.Connection, m *proto.SetSubDatasetClipping) error {
	return s.withPermittedSubDataset(c, m.DatasetID, m.SDID, func() {
		sd, _ := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
		sd.Clipping = world.ClippingPlane{Normal: m.Normal, Center: m.Center, Set: true}
	}, func() {})
}
