// Package perm implements the Permission & Ownership Engine (§4.5):
// canModify's decision rule, lock-owner expiry, and the owner-disconnect
// sweep. It operates purely on *world.World and plain IDs — it has no
// knowledge of connections or the wire protocol, so handlers (internal/
// handlers) and the tick loop (internal/broadcast) are the only callers
// that need to resolve a connection to an acting headset ID first.
package perm

import (
	"time"

	"github.com/sereno-labs/vfv-server/internal/world"
)

// CanModify implements §4.5's decision table. actingHeadsetID/hasActing
// identify the "h" the rule is stated in terms of; hasActing=false models
// "none" (an unbound tablet, or a connection with no acting headset at
// all), which is always denied.
func CanModify(actingHeadsetID uint32, hasActing bool, meta *world.SubDatasetMetaData) bool {
	if !hasActing {
		return false
	}
	if meta.IsPublic() {
		return !meta.HasLockOwner || meta.LockOwner == actingHeadsetID
	}
	return meta.Owner == actingHeadsetID
}

// Stamp records a successful mutation's effect on lock ownership (§4.5:
// "on every successful mutation, lockOwner <- h, lastModification <- now").
// Caller must hold the world lock.
func Stamp(meta *world.SubDatasetMetaData, actingHeadsetID uint32, now time.Time) {
	meta.SetLock(actingHeadsetID)
	meta.LastModification = now
}

// ReleaseExpiredLocksLocked runs the tick loop's expiry scan (§4.5/§4.7): every
// subdataset whose lock has outlived maxOwnerTime is released. Returns the
// released subdatasets so the caller can broadcast SubDatasetLockOwner
// release frames. Caller must hold the world lock.
func ReleaseExpiredLocksLocked(w *world.World, now time.Time, maxOwnerTime time.Duration) []*world.SubDataset {
	expired := w.ExpiredLocksLocked(now, maxOwnerTime)
	for _, sd := range expired {
		sd.Meta.ClearLock()
	}
	return expired
}

// DisconnectSweepLocked implements §4.5's owner-disconnect sweep for a
// headset that just closed: every subdataset it privately owns is removed
// outright, and every subdataset it merely held the lock on (without
// owning) has that lock relinquished. Caller must hold the world lock; the
// caller is responsible for broadcasting RemoveSubDataset/
// SubDatasetLockOwner frames for the returned subdatasets.
func DisconnectSweepLocked(w *world.World, headsetID uint32) (removed, relinquished []*world.SubDataset) {
	owned := w.OwnedByLocked(headsetID)
	for _, sd := range owned {
		w.RemoveSubDatasetLocked(sd.DatasetID, sd.ID)
	}

	// Removed subdatasets are already gone from w's tables, so this scan
	// naturally excludes them: it only finds locks held on subdatasets the
	// headset did not own outright.
	locked := w.LockedByLocked(headsetID)
	for _, sd := range locked {
		sd.Meta.ClearLock()
		relinquished = append(relinquished, sd)
	}
	return owned, relinquished
}
