package broadcast

import (
	"context"
	"time"

	"github.com/sereno-labs/vfv-server/internal/logger"
	"github.com/sereno-labs/vfv-server/internal/metrics"
	"github.com/sereno-labs/vfv-server/internal/perm"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
	"github.com/sereno-labs/vfv-server/internal/world"
)

// BackpressureThreshold is the outstanding-write byte count above which a
// connection is skipped for a tick (§4.7's "e.g., 64 KiB").
const BackpressureThreshold = 64 * 1024

// Ticker drives the §4.7 loop: at UPDATE_THREAD_FRAMERATE Hz, broadcast a
// HeadsetsStatus frame (once the anchor round has committed) and run the
// lock-owner expiry scan.
type Ticker struct {
	world    *world.World
	registry *session.Registry
	bc       *Broadcaster

	interval     time.Duration
	maxOwnerTime time.Duration
}

func NewTicker(w *world.World, r *session.Registry, bc *Broadcaster, interval, maxOwnerTime time.Duration) *Ticker {
	return &Ticker{world: w, registry: r, bc: bc, interval: interval, maxOwnerTime: maxOwnerTime}
}

// Run blocks, firing one tick per interval, until ctx is cancelled.
// Grounded on alxayo-rtmp-go/cmd/rtmp-server's main loop shape: a plain
// time.Ticker selected against ctx.Done(), no goroutine pool needed since
// exactly one tick runs the world lock at a time.
func (t *Ticker) Run(ctx context.Context) {
	log := logger.Named("broadcast")
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			start := time.Now()
			t.tick(now)
			metrics.TickDurationSeconds.Observe(time.Since(start).Seconds())
			_ = log // reserved for future per-tick debug logging
		}
	}
}

func (t *Ticker) tick(now time.Time) {
	t.world.Lock()
	anchorReady := t.world.Anchor().Completed() && t.world.Anchor().OK()
	statuses := t.collectHeadsetStatusesLocked()
	expired := perm.ReleaseExpiredLocksLocked(t.world, now, t.maxOwnerTime)
	t.world.Unlock()

	if anchorReady && len(statuses) > 0 {
		frame := proto.EncodeHeadsetsStatus(statuses)
		t.sendToUnderBackpressure(frame)
	}

	for _, sd := range expired {
		metrics.LockExpiriesTotal.Inc()
		frame := proto.EncodeSubDatasetLockOwner(sd.DatasetID, sd.ID, proto.PublicOwnerID)
		_ = t.bc.FanoutAll(frame, t.registry.Snapshot(), "")
	}
}

// collectHeadsetStatusesLocked builds one HeadsetStatus record per
// connected headset. Caller must hold the world lock (the spec places the
// pose snapshot under mapMutex in practice since poses live on Connection
// substate, not world state; this implementation takes its snapshot from
// the registry instead, see sendToUnderBackpressure).
func (t *Ticker) collectHeadsetStatusesLocked() []proto.HeadsetStatus {
	var out []proto.HeadsetStatus
	for _, c := range t.registry.Snapshot() {
		if c.Role != session.RoleHeadset || c.Headset == nil {
			continue
		}
		h := c.Headset
		out = append(out, proto.HeadsetStatus{
			HeadsetID:            h.ID,
			Color:                h.Color,
			Action:               h.CurrentAction,
			Position:             h.Position,
			Rotation:             h.Rotation,
			PointingTechnique:    h.Pointing.Technique,
			PointingDatasetID:    h.Pointing.DatasetID,
			PointingSubDatasetID: h.Pointing.SubDatasetID,
			PointingInPublic:     h.Pointing.InPublic,
			LocalSDPosition:      h.Pointing.LocalPosition,
			HeadsetStartPosition: h.Pointing.StartPosition,
			HeadsetStartRotation: h.Pointing.StartRotation,
		})
	}
	return out
}

func (t *Ticker) sendToUnderBackpressure(frame []byte) {
	for _, c := range t.registry.Snapshot() {
		if c.Role == session.RoleUnidentified {
			continue
		}
		if c.OutboundBytes() >= BackpressureThreshold {
			metrics.TicksSkippedBackpressure.Inc()
			continue
		}
		c.TrySend(frame)
	}
}
