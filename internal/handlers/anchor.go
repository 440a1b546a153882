package handlers

import (
	"github.com/sereno-labs/vfv-server/internal/audit"
	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
	"github.com/sereno-labs/vfv-server/internal/metrics"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
)

// handleAnchoringDataSegment accumulates one chunk of the anchor upload
// (§4.4). Only the current provider may send segments; anyone else doing
// so is a protocol violation (§4.4: "a segment from any other connection
// closes that connection").
func (s *Server) handleAnchoringDataSegment(c *session.Connection, m *proto.AnchoringDataSegment) error {
	if c.Role != session.RoleHeadset || c.Headset == nil {
		return protoerr.NewRoleViolation("anchoring_data_segment", "headset", c.Role.String())
	}
	s.World.Lock()
	defer s.World.Unlock()
	a := s.World.Anchor()
	if !a.HasProvider || a.ProviderID != c.Headset.ID {
		return protoerr.NewProtocolError("anchoring_data_segment", errNotProvider{c.Headset.ID})
	}
	a.Push(m.Data)
	return nil
}

type errNotProvider struct{ headsetID uint32 }

func (e errNotProvider) Error() string { return "handlers: segment from non-provider headset" }

// handleAnchoringDataStatus commits or resets the anchor round (§4.4). On
// ok=true the buffer is frozen and streamed to every headset that has not
// yet received it; on ok=false the buffer is cleared and a new provider is
// elected.
func (s *Server) handleAnchoringDataStatus(c *session.Connection, m *proto.AnchoringDataStatus) error {
	if c.Role != session.RoleHeadset || c.Headset == nil {
		return protoerr.NewRoleViolation("anchoring_data_status", "headset", c.Role.String())
	}

	s.World.Lock()
	a := s.World.Anchor()
	if !a.HasProvider || a.ProviderID != c.Headset.ID {
		s.World.Unlock()
		return protoerr.NewProtocolError("anchoring_data_status", errNotProvider{c.Headset.ID})
	}
	a.Finalize(m.OK)
	var segments [][]byte
	if m.OK {
		segments = a.Segments()
	}
	s.World.Unlock()

	if m.OK {
		metrics.AnchorRoundsTotal.WithLabelValues("committed").Inc()
		s.Audit.Emit(audit.NewEvent(audit.EventAnchor).WithConnID(c.ID).WithHeadsetID(c.Headset.ID).WithData("outcome", "committed"))
		s.streamAnchorToPendingHeadsets(segments)
	} else {
		metrics.AnchorRoundsTotal.WithLabelValues("failed").Inc()
		s.Audit.Emit(audit.NewEvent(audit.EventAnchor).WithConnID(c.ID).WithHeadsetID(c.Headset.ID).WithData("outcome", "failed"))
		s.reelectAnchorProvider()
	}
	return nil
}

// streamAnchorToPendingHeadsets sends the committed segments, then an EOF
// marker, to every headset whose anchoringSent flag is still false.
func (s *Server) streamAnchorToPendingHeadsets(segments [][]byte) {
	var pending []*session.Connection
	for _, conn := range s.Registry.Snapshot() {
		if conn.Role == session.RoleHeadset && conn.Headset != nil && !conn.Headset.AnchoringSent {
			pending = append(pending, conn)
		}
	}
	for _, data := range segments {
		_ = s.Bcast.FanoutTo(proto.EncodeHeadsetAnchorSegment(data), pending)
	}
	_ = s.Bcast.FanoutTo(proto.EncodeHeadsetAnchorEOF(), pending)
	for _, conn := range pending {
		conn.Headset.AnchoringSent = true
	}
}

// reelectAnchorProvider clears the buffer and assigns the first headset in
// enumeration order as the new provider (§4.4's failure/disconnect path).
func (s *Server) reelectAnchorProvider() {
	s.World.Lock()
	defer s.World.Unlock()
	a := s.World.Anchor()
	a.ClearProvider()
	for _, conn := range s.Registry.Snapshot() {
		if conn.Role == session.RoleHeadset && conn.Headset != nil {
			conn.Headset.AnchoringSent = false
		}
	}
	for _, conn := range s.Registry.Snapshot() {
		if conn.Role == session.RoleHeadset && conn.Headset != nil {
			a.Reset(conn.Headset.ID)
			return
		}
	}
}
