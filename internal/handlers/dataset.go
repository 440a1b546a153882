package handlers

import (
	"time"

	"github.com/sereno-labs/vfv-server/internal/audit"
	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
	"github.com/sereno-labs/vfv-server/internal/metrics"
	"github.com/sereno-labs/vfv-server/internal/perm"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
	"github.com/sereno-labs/vfv-server/internal/world"
)

// handleAddVTKDataset loads a new dataset (§4.3) and publishes it to every
// connection; a freshly-added dataset with no caller-specified subdatasets
// starts with none (AddSubDataset is a distinct message).
func (s *Server) handleAddVTKDataset(c *session.Connection, m *proto.AddVTKDataset) error {
	s.World.Lock()
	d := s.World.AddDatasetLocked(m.Name, m.PtFields, m.CellFields)
	s.World.Unlock()

	s.broadcastAll(proto.EncodeAddVTKDataset(d.ID, d.Name, d.PtFields, d.CellFields))
	return nil
}

// handleAddCloudPointDataset loads a point-cloud dataset. The wire only
// defines a bit-exact AddVTKDataset broadcast shape (§6); a cloud-point
// dataset is re-published using that same shape with empty field lists;
// its cloud-point Kind is recorded only in the world state.
func (s *Server) handleAddCloudPointDataset(c *session.Connection, m *proto.AddCloudPointDataset) error {
	s.World.Lock()
	d := s.World.AddDatasetLocked(m.Name, nil, nil)
	d.Kind = world.KindCloudPoint
	s.World.Unlock()

	s.broadcastAll(proto.EncodeAddVTKDataset(d.ID, d.Name, nil, nil))
	return nil
}

// handleAddSubDataset creates an empty subdataset under an existing
// dataset, owned by the sender's acting headset if IsPublic is false.
func (s *Server) handleAddSubDataset(c *session.Connection, m *proto.AddSubDataset) error {
	s.World.Lock()
	d, ok := s.World.DatasetLocked(m.DatasetID)
	if !ok {
		s.World.Unlock()
		s.Log.Warn("add subdataset: unknown dataset", connField(c))
		return nil
	}
	var owner uint32
	hasOwner := false
	if !m.IsPublic {
		headsetID, hasActing := actingHeadset(c)
		if !hasActing {
			s.World.Unlock()
			s.Log.Warn("add private subdataset: no acting headset", connField(c))
			return nil
		}
		owner, hasOwner = headsetID, true
	}
	sd := d.AddSubDatasetLocked(owner, hasOwner)
	s.World.Unlock()

	ownerWire := proto.PublicOwnerID
	if hasOwner {
		ownerWire = owner
	}
	s.broadcastAll(proto.EncodeAddSubDataset(sd.DatasetID, sd.ID, sd.Name, ownerWire))
	return nil
}

// handleRemoveSubDataset mutates subject to §4.5's permission check.
func (s *Server) handleRemoveSubDataset(c *session.Connection, m *proto.RemoveSubDataset) error {
	return s.withPermittedSubDataset(c, m.DatasetID, m.SDID, func() {
		s.World.RemoveSubDatasetLocked(m.DatasetID, m.SDID)
	}, func() {
		s.broadcastAll(proto.EncodeRemoveSubDataset(m.DatasetID, m.SDID))
	})
}

// handleDuplicateSubDataset clones a subdataset's name and transform under
// a new ID, copying the source's private owner (or leaving it public if
// the source was public); duplication itself is always permitted on a
// resolvable target since it creates new state rather than mutating shared
// state (no lock contention to arbitrate).
func (s *Server) handleDuplicateSubDataset(c *session.Connection, m *proto.DuplicateSubDataset) error {
	s.World.Lock()
	d, ok := s.World.DatasetLocked(m.DatasetID)
	if !ok {
		s.World.Unlock()
		s.Log.Warn("duplicate subdataset: unknown dataset", connField(c), errField(protoerr.NewUnknownTarget(m.DatasetID, 0, false)))
		return nil
	}
	src, ok := d.SubDatasets[m.SDID]
	if !ok {
		s.World.Unlock()
		s.Log.Warn("duplicate subdataset: unknown subdataset", connField(c), errField(protoerr.NewUnknownTarget(m.DatasetID, m.SDID, true)))
		return nil
	}
	owner, hasOwner := src.Meta.Owner, src.Meta.HasOwner
	clone := d.AddSubDatasetLocked(owner, hasOwner)
	clone.Position, clone.Rotation, clone.Scale = src.Position, src.Rotation, src.Scale
	clone.Name = src.Name
	s.World.Unlock()

	ownerWire := proto.PublicOwnerID
	if hasOwner {
		ownerWire = owner
	}
	s.broadcastAll(proto.EncodeDuplicateSubDataset(m.DatasetID, m.SDID, clone.ID, clone.Name, ownerWire))
	return nil
}

func (s *Server) handleRenameSubDataset(c *session.Connection, m *proto.RenameSubDataset) error {
	return s.withPermittedSubDataset(c, m.DatasetID, m.SDID, func() {
		sd, _ := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
		sd.Name = m.Name
	}, func() {
		s.broadcastAll(proto.EncodeRenameSubDataset(m.DatasetID, m.SDID, m.Name))
	})
}

// handleMakeSubDatasetPublic clears private ownership; per §4.5 this is one
// of the two ways owner is cleared outside of disconnect.
func (s *Server) handleMakeSubDatasetPublic(c *session.Connection, m *proto.MakeSubDatasetPublic) error {
	return s.withPermittedSubDataset(c, m.DatasetID, m.SDID, func() {
		sd, _ := s.World.SubDatasetLocked(m.DatasetID, m.SDID)
		sd.Meta.ClearOwner()
	}, func() {
		s.broadcastAll(proto.EncodeSubDatasetOwner(m.DatasetID, m.SDID, proto.PublicOwnerID))
	})
}

// withPermittedSubDataset implements the §4.6 contract shared by most
// transform/lifecycle handlers: resolve target, check canModify, stamp on
// success, run mutate under the world lock, then fan out after release.
// mutate and broadcast are only invoked when permitted; an unresolvable
// target is logged and dropped (UnknownTarget, §7), a denied permission is
// silently ignored (PermissionDenied, §7).
func (s *Server) withPermittedSubDataset(c *session.Connection, datasetID, sdID uint32, mutate func(), broadcast func()) error {
	headsetID, hasActing := actingHeadset(c)

	s.World.Lock()
	sd, err := resolveSubDataset(s.World, datasetID, sdID)
	if err != nil {
		s.World.Unlock()
		s.Log.Warn("unknown target", connField(c), errField(err))
		return nil
	}
	if !perm.CanModify(headsetID, hasActing, &sd.Meta) {
		s.World.Unlock()
		metrics.PermissionDeniedTotal.Inc()
		s.Audit.Emit(audit.NewEvent(audit.EventDenied).WithConnID(c.ID).WithHeadsetID(headsetID).
			WithData("dataset_id", datasetID).WithData("sd_id", sdID))
		return nil
	}
	perm.Stamp(&sd.Meta, headsetID, time.Now())
	mutate()
	s.World.Unlock()

	s.Audit.Emit(audit.NewEvent(audit.EventMutation).WithConnID(c.ID).WithHeadsetID(headsetID).
		WithData("dataset_id", datasetID).WithData("sd_id", sdID))
	broadcast()
	return nil
}
