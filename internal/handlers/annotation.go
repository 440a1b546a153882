package handlers

import (
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
)

// Annotation handlers are structural (create/anchor/clear), not ownership
// mutations, so they fan out to everyone including the originator (§4.3)
// without going through withPermittedSubDataset's canModify gate — the
// original treats annotations as shared scratch space rather than
// lock-arbitrated subdataset content.

func (s *Server) handleStartAnnotationStroke(c *session.Connection, m *proto.StartAnnotationStroke) error {
	s.World.Lock()
	_, ok := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
	s.World.Unlock()
	if !ok {
		s.Log.Warn("start annotation stroke: unknown target", connField(c))
		return nil
	}
	s.broadcastAll(proto.EncodeStartAnnotationStroke(m.DatasetID, m.SDID, m.AnnotationID, m.Color, m.Width, m.PointsX, m.PointsY))
	return nil
}

func (s *Server) handleStartAnnotationText(c *session.Connection, m *proto.StartAnnotationText) error {
	s.World.Lock()
	_, ok := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
	s.World.Unlock()
	if !ok {
		s.Log.Warn("start annotation text: unknown target", connField(c))
		return nil
	}
	s.broadcastAll(proto.EncodeStartAnnotationText(m.DatasetID, m.SDID, m.AnnotationID, m.Color, m.PosX, m.PosY, m.Text))
	return nil
}

func (s *Server) handleAnchorAnnotation(c *session.Connection, m *proto.AnchorAnnotation) error {
	s.broadcastAll(proto.EncodeAnchorAnnotation(m.DatasetID, m.SDID, m.AnnotationID))
	return nil
}

func (s *Server) handleClearAnnotations(c *session.Connection, m *proto.ClearAnnotations) error {
	s.broadcastAll(proto.EncodeClearAnnotations(m.DatasetID, m.SDID))
	return nil
}
