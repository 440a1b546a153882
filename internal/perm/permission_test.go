package perm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sereno-labs/vfv-server/internal/world"
)

func TestCanModifyUnboundClientDenied(t *testing.T) {
	meta := &world.SubDatasetMetaData{}
	require.False(t, CanModify(0, false, meta))
}

func TestCanModifyPublicUnlockedAllowsAnyone(t *testing.T) {
	meta := &world.SubDatasetMetaData{}
	require.True(t, CanModify(1, true, meta))
	require.True(t, CanModify(2, true, meta))
}

func TestCanModifyPublicLockedByOtherDenied(t *testing.T) {
	meta := &world.SubDatasetMetaData{LockOwner: 1, HasLockOwner: true}
	require.True(t, CanModify(1, true, meta))
	require.False(t, CanModify(2, true, meta))
}

func TestCanModifyPrivateOnlyOwnerAllowed(t *testing.T) {
	meta := &world.SubDatasetMetaData{Owner: 5, HasOwner: true}
	require.True(t, CanModify(5, true, meta))
	require.False(t, CanModify(6, true, meta))
}

func TestStampSetsLockOwnerAndTimestamp(t *testing.T) {
	meta := &world.SubDatasetMetaData{}
	now := time.Now()
	Stamp(meta, 3, now)
	require.Equal(t, uint32(3), meta.LockOwner)
	require.Equal(t, now, meta.LastModification)
}

func TestReleaseExpiredLocksLockedClearsOnlyStale(t *testing.T) {
	w := world.New()
	w.Lock()
	d := w.AddDatasetLocked("a.vtk", nil, nil)
	fresh := d.AddSubDatasetLocked(0, false)
	fresh.Meta.SetLock(1)
	fresh.Meta.LastModification = time.Now()
	stale := d.AddSubDatasetLocked(0, false)
	stale.Meta.SetLock(2)
	stale.Meta.LastModification = time.Now().Add(-2 * time.Second)
	w.Unlock()

	w.Lock()
	released := ReleaseExpiredLocksLocked(w, time.Now(), time.Second)
	w.Unlock()

	require.Len(t, released, 1)
	require.Equal(t, stale.ID, released[0].ID)
	require.False(t, stale.Meta.HasLockOwner)
	require.Equal(t, uint32(1), fresh.Meta.LockOwner)
}

func TestDisconnectSweepRemovesOwnedAndRelinquishesLocks(t *testing.T) {
	w := world.New()
	w.Lock()
	d := w.AddDatasetLocked("a.vtk", nil, nil)
	owned := d.AddSubDatasetLocked(9, true)
	lockedOnly := d.AddSubDatasetLocked(0, false)
	lockedOnly.Meta.SetLock(9)
	untouched := d.AddSubDatasetLocked(0, false)
	w.Unlock()

	w.Lock()
	removed, relinquished := DisconnectSweepLocked(w, 9)
	w.Unlock()

	require.Len(t, removed, 1)
	require.Equal(t, owned.ID, removed[0].ID)
	require.Len(t, relinquished, 1)
	require.Equal(t, lockedOnly.ID, relinquished[0].ID)
	require.False(t, lockedOnly.Meta.HasLockOwner)

	w.Lock()
	_, stillThere := w.SubDatasetLocked(d.ID, untouched.ID)
	_, ownedGone := w.SubDatasetLocked(d.ID, owned.ID)
	w.Unlock()
	require.True(t, stillThere)
	require.False(t, ownedGone)
}
