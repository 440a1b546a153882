// Package handlers implements the Command Handlers component (§4.6): one
// function per inbound message kind, each following the normative contract
// — resolve target, role-gate, permission-check, stamp, mutate, fan out.
//
// Grounded on alxayo-rtmp-go/internal/rtmp/rpc's dispatcher shape (one
// parsed-command-to-handler mapping per connection, errors returned to the
// caller rather than logged-and-swallowed here), generalized from a
// name-keyed AMF0 command switch to a proto.Opcode-keyed switch over the
// closed InMessage sum type.
package handlers

import (
	"go.uber.org/zap"

	"github.com/sereno-labs/vfv-server/internal/audit"
	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
	"github.com/sereno-labs/vfv-server/internal/logger"
	"github.com/sereno-labs/vfv-server/internal/metrics"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
	"github.com/sereno-labs/vfv-server/internal/world"
)

// Broadcaster is the subset of *broadcast.Broadcaster handlers need. Kept
// as an interface so this package never imports internal/broadcast and
// tests can substitute a recording fake (handlers_test.go's fakeBroadcaster).
type Broadcaster interface {
	FanoutAll(frame []byte, conns []*session.Connection, excludeConnID string) error
	FanoutTo(frame []byte, recipients []*session.Connection) error
}

// Server holds the shared component handles every handler needs. One
// instance is constructed at startup (internal/vfvserver) and shared by
// every connection's read loop.
type Server struct {
	World    *world.World
	Registry *session.Registry
	Bcast    Broadcaster
	Log      *zap.Logger

	// Audit defaults to audit.New(""), an inert Logger whose Emit is a
	// no-op (audit log disabled, §10.4); *audit.Logger's Emit is also
	// nil-safe, so no caller here needs a nil check.
	Audit *audit.Logger
}

func New(w *world.World, r *session.Registry, bc Broadcaster) *Server {
	return &Server{World: w, Registry: r, Bcast: bc, Log: logger.Named("handlers"), Audit: audit.New("")}
}

// WithAudit attaches an enabled audit logger, returning s for chaining at
// construction time (e.g. handlers.New(w, r, bc).WithAudit(audit.New(path))).
func (s *Server) WithAudit(a *audit.Logger) *Server {
	s.Audit = a
	return s
}

// Dispatch routes a decoded inbound message to its handler. Errors
// satisfying errors.IsProtocolError (or RoleViolation, which is also a
// protocol-marker) mean the caller must close c; any other error is a
// benign drop already logged by the handler.
func (s *Server) Dispatch(c *session.Connection, msg proto.InMessage) error {
	switch m := msg.(type) {
	case *proto.IdentHeadset:
		return s.handleIdentHeadset(c, m)
	case *proto.IdentTablet:
		return s.handleIdentTablet(c, m)
	case *proto.AddVTKDataset:
		return s.handleAddVTKDataset(c, m)
	case *proto.AddCloudPointDataset:
		return s.handleAddCloudPointDataset(c, m)
	case *proto.AddSubDataset:
		return s.handleAddSubDataset(c, m)
	case *proto.RemoveSubDataset:
		return s.handleRemoveSubDataset(c, m)
	case *proto.DuplicateSubDataset:
		return s.handleDuplicateSubDataset(c, m)
	case *proto.RenameSubDataset:
		return s.handleRenameSubDataset(c, m)
	case *proto.MakeSubDatasetPublic:
		return s.handleMakeSubDatasetPublic(c, m)
	case *proto.RotateDataset:
		return s.handleRotateDataset(c, m)
	case *proto.TranslateDataset:
		return s.handleTranslateDataset(c, m)
	case *proto.ScaleDataset:
		return s.handleScaleDataset(c, m)
	case *proto.SetSubDatasetClipping:
		return s.handleSetSubDatasetClipping(c, m)
	case *proto.TFDataset:
		return s.handleTFDataset(c, m)
	case *proto.UpdateHeadset:
		return s.handleUpdateHeadset(c, m)
	case *proto.HeadsetCurrentAction:
		return s.handleHeadsetCurrentAction(c, m)
	case *proto.AnchoringDataSegment:
		return s.handleAnchoringDataSegment(c, m)
	case *proto.AnchoringDataStatus:
		return s.handleAnchoringDataStatus(c, m)
	case *proto.StartAnnotationStroke:
		return s.handleStartAnnotationStroke(c, m)
	case *proto.StartAnnotationText:
		return s.handleStartAnnotationText(c, m)
	case *proto.AnchorAnnotation:
		return s.handleAnchorAnnotation(c, m)
	case *proto.ClearAnnotations:
		return s.handleClearAnnotations(c, m)
	case *proto.Location:
		return s.handleLocation(c, m)
	case *proto.TabletScale:
		return s.handleTabletScale(c, m)
	case *proto.Lasso:
		return s.handleLasso(c, m)
	case *proto.AddNewSelectionInput:
		return s.handleAddNewSelectionInput(c, m)
	case *proto.ConfirmSelection:
		return s.handleConfirmSelection(c, m)
	case *proto.ToggleMapVisibility:
		return s.handleToggleMapVisibility(c, m)
	case *proto.ResetVolumetricSelection:
		return s.handleResetVolumetricSelection(c, m)
	default:
		metrics.ProtocolErrorsTotal.WithLabelValues("unhandled_opcode").Inc()
		return protoerr.NewProtocolError("dispatch", errUnhandled{msg.Opcode()})
	}
}

type errUnhandled struct{ op proto.Opcode }

func (e errUnhandled) Error() string { return "handlers: no handler registered for opcode" }

// actingHeadset resolves the headset ID a mutating message should be
// attributed to (§4.4): the connection itself if it is a headset, or its
// bound headset if it is a tablet. hasActing=false models "none", which
// perm.CanModify always denies.
func actingHeadset(c *session.Connection) (id uint32, hasActing bool) {
	switch c.Role {
	case session.RoleHeadset:
		return c.Headset.ID, true
	case session.RoleTablet:
		if c.Tablet != nil && c.Tablet.HasBoundHeadset {
			return c.Tablet.BoundHeadsetID, true
		}
	}
	return 0, false
}

// resolveSubDataset looks up a (datasetID, sdID) pair under the world lock
// already held by the caller, returning UnknownTarget on miss so callers
// can apply §7's "log warning, drop message" action uniformly.
func resolveSubDataset(w *world.World, datasetID, sdID uint32) (*world.SubDataset, error) {
	sd, ok := w.SubDatasetLocked(datasetID, sdID)
	if !ok {
		return nil, protoerr.NewUnknownTarget(datasetID, sdID, true)
	}
	return sd, nil
}

func (s *Server) broadcastAll(frame []byte) {
	if err := s.Bcast.FanoutAll(frame, s.Registry.Snapshot(), ""); err != nil {
		s.Log.Debug("broadcast backpressure", zap.Error(err))
	}
}

// broadcastAllExcept fans frame out to every connection except originator —
// the pure-transform contract (§4.3): the connection that sent the mutation
// applied it locally already and must not receive its own echo (§8 Scenario
// 2).
func (s *Server) broadcastAllExcept(frame []byte, originator *session.Connection) {
	if err := s.Bcast.FanoutAll(frame, s.Registry.Snapshot(), originator.ID); err != nil {
		s.Log.Debug("broadcast backpressure", zap.Error(err))
	}
}

func connField(c *session.Connection) zap.Field { return zap.String("conn_id", c.ID) }
func errField(err error) zap.Field               { return zap.Error(err) }
