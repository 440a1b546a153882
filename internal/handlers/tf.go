package handlers

import (
	"time"

	"github.com/sereno-labs/vfv-server/internal/metrics"
	"github.com/sereno-labs/vfv-server/internal/perm"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
)

// handleTFDataset replaces a subdataset's transfer function (§4.3).
func (s *Server) handleTFDataset(c *session.Connection, m *proto.TFDataset) error {
	headsetID, hasActing := actingHeadset(c)

	s.World.Lock()
	sd, err := resolveSubDataset(s.World, m.DatasetID, m.SDID)
	if err != nil {
		s.World.Unlock()
		s.Log.Warn("tf dataset: unknown target", connField(c), errField(err))
		return nil
	}
	if !perm.CanModify(headsetID, hasActing, &sd.Meta) {
		s.World.Unlock()
		metrics.PermissionDeniedTotal.Inc()
		return nil
	}
	perm.Stamp(&sd.Meta, headsetID, time.Now())
	sd.Meta.TFType = m.TFType
	sd.Meta.TFColorMode = m.ColorMode
	sd.Meta.TFParams = m.Params
	s.World.Unlock()

	s.broadcastAll(proto.EncodeTFDataset(m.DatasetID, m.SDID, headsetID, m.TFType, m.ColorMode, m.Params))
	return nil
}
