// Package world holds the shared-world data model (§4.4): datasets and
// their subdatasets, per-subdataset ownership/lock metadata, and the anchor
// data buffer. All mutable state here is guarded by World's own mutex,
// which callers must treat as the outermost lock in the ordering defined by
// §5 (datasetMutex -> mapMutex -> logMutex).
package world

import (
	"sync"
	"time"
)

// SubDatasetMetaData mirrors original_source's MetaData.h fields exactly:
// the owning headset for a private subdataset, the headset currently
// holding the short-lived modification lock, when that lock was last
// renewed, and the subdataset's transfer function state.
// SubDatasetMetaData's Owner/LockOwner are meaningful only when their
// companion Has* flag is true. Headset IDs are plain monotonic counters
// starting at 0 (§10.6), so "no owner" cannot be encoded as a magic ID
// value the way the wire protocol does with proto.PublicOwnerID — headset 0
// is a real, ownable ID, and the zero value of a bare uint32 would
// otherwise be indistinguishable from it. The explicit bool is what the
// wire sentinel is mapped to/from at the encode boundary, keeping this
// package itself wire-format-agnostic.
type SubDatasetMetaData struct {
	DatasetID        uint32
	SubDatasetID     uint32
	Owner            uint32 // headset ID; valid only if HasOwner
	HasOwner         bool
	LockOwner        uint32 // headset ID; valid only if HasLockOwner
	HasLockOwner     bool
	LastModification time.Time
	TFType           uint8
	TFColorMode      uint8
	TFParams         []float32
	MapVisible       bool
}

// IsPublic reports whether the subdataset has no private owner.
func (m *SubDatasetMetaData) IsPublic() bool { return !m.HasOwner }

// IsLocked reports whether a headset currently holds the modification lock.
func (m *SubDatasetMetaData) IsLocked() bool { return m.HasLockOwner }

// ClearOwner makes the subdataset public (§4.5: MakeSubDatasetPublic).
func (m *SubDatasetMetaData) ClearOwner() { m.Owner, m.HasOwner = 0, false }

// ClearLock releases the modification lock (§4.5: expiry, disconnect sweep).
func (m *SubDatasetMetaData) ClearLock() { m.LockOwner, m.HasLockOwner = 0, false }

// SetLock stamps the modification lock to headsetID (§4.5: Stamp).
func (m *SubDatasetMetaData) SetLock(headsetID uint32) { m.LockOwner, m.HasLockOwner = headsetID, true }

// ClippingPlane is the single-plane clipping representation this module
// uses in place of the original's full clipping-volume list (see
// DESIGN.md's Open Question decisions).
type ClippingPlane struct {
	Normal [3]float32
	Center [3]float32
	Set    bool
}

// SubDataset is one manipulable view over a Dataset: its own transform and
// metadata, keyed by an ID unique within its parent dataset.
type SubDataset struct {
	ID        uint32
	DatasetID uint32
	Name      string
	Position  [3]float32
	Rotation  [4]float32
	Scale     [3]float32
	Clipping  ClippingPlane
	Meta      SubDatasetMetaData
}

// DatasetKind distinguishes the loader a dataset came through. The wire
// protocol only defines a bit-exact AddVTKDataset broadcast shape (§6); a
// cloud-point dataset is modeled as a VTK dataset with empty field lists,
// so Kind exists purely for bookkeeping/logging, not for a different wire
// encoding.
type DatasetKind uint8

const (
	KindVTK DatasetKind = iota
	KindCloudPoint
)

// Dataset is a loaded dataset (VTK grid or point cloud) and the subdatasets
// derived from it.
type Dataset struct {
	ID          uint32
	Name        string
	Kind        DatasetKind
	PtFields    []uint32
	CellFields  []uint32
	SubDatasets map[uint32]*SubDataset
	nextSubID   uint32
}

// World owns every dataset/subdataset and the monotonic ID counters that
// mint them, all behind one mutex (§5's datasetMutex, the outermost lock).
type World struct {
	mu            sync.Mutex
	datasets      map[uint32]*Dataset
	nextDatasetID uint32
	anchor        *AnchorBuffer
}

func New() *World {
	return &World{
		datasets: make(map[uint32]*Dataset),
		anchor:   NewAnchorBuffer(),
	}
}

// Lock/Unlock expose the world mutex directly: handlers (§4.6) need to hold
// it across a read-check-mutate-broadcast sequence that no single World
// method can express without either leaking broadcast concerns into this
// package or re-taking the lock (and losing atomicity).
func (w *World) Lock()   { w.mu.Lock() }
func (w *World) Unlock() { w.mu.Unlock() }

// AddDatasetLocked creates a new dataset and returns it. Caller must hold
// the World lock.
func (w *World) AddDatasetLocked(name string, ptFields, cellFields []uint32) *Dataset {
	w.nextDatasetID++
	id := w.nextDatasetID
	d := &Dataset{
		ID:          id,
		Name:        name,
		PtFields:    ptFields,
		CellFields:  cellFields,
		SubDatasets: make(map[uint32]*SubDataset),
	}
	w.datasets[id] = d
	return d
}

// Dataset returns the dataset with the given ID. Caller must hold the lock.
func (w *World) DatasetLocked(id uint32) (*Dataset, bool) {
	d, ok := w.datasets[id]
	return d, ok
}

// Datasets returns every dataset. Caller must hold the lock.
func (w *World) DatasetsLocked() map[uint32]*Dataset { return w.datasets }

// AddSubDataset creates a subdataset under dataset datasetID, privately
// owned by owner if hasOwner is true or public otherwise. Caller must hold
// the lock and have already verified the dataset exists.
func (d *Dataset) AddSubDatasetLocked(owner uint32, hasOwner bool) *SubDataset {
	d.nextSubID++
	id := d.nextSubID
	sd := &SubDataset{
		ID:        id,
		DatasetID: d.ID,
		Name:      d.Name,
		Scale:     [3]float32{1, 1, 1},
		Rotation:  [4]float32{0, 0, 0, 1},
		Meta: SubDatasetMetaData{
			DatasetID:        d.ID,
			SubDatasetID:     id,
			Owner:            owner,
			HasOwner:         hasOwner,
			LastModification: time.Time{},
		},
	}
	d.SubDatasets[id] = sd
	return sd
}

// SubDataset resolves a (datasetID, sdID) pair. Caller must hold the lock.
func (w *World) SubDatasetLocked(datasetID, sdID uint32) (*SubDataset, bool) {
	d, ok := w.datasets[datasetID]
	if !ok {
		return nil, false
	}
	sd, ok := d.SubDatasets[sdID]
	return sd, ok
}

// RemoveSubDatasetLocked deletes a subdataset. Caller must hold the lock.
func (w *World) RemoveSubDatasetLocked(datasetID, sdID uint32) bool {
	d, ok := w.datasets[datasetID]
	if !ok {
		return false
	}
	if _, ok := d.SubDatasets[sdID]; !ok {
		return false
	}
	delete(d.SubDatasets, sdID)
	return true
}

// Anchor returns the world's single anchor buffer. Caller must hold the lock
// for any mutation; the returned pointer is stable for World's lifetime.
func (w *World) Anchor() *AnchorBuffer { return w.anchor }

// ExpiredLocks returns every subdataset whose lock has been held past
// maxOwnerTime without renewal, as of now. Caller must hold the lock; the
// caller is responsible for clearing LockOwner and broadcasting release.
func (w *World) ExpiredLocksLocked(now time.Time, maxOwnerTime time.Duration) []*SubDataset {
	var expired []*SubDataset
	for _, d := range w.datasets {
		for _, sd := range d.SubDatasets {
			if sd.Meta.IsLocked() && now.Sub(sd.Meta.LastModification) >= maxOwnerTime {
				expired = append(expired, sd)
			}
		}
	}
	return expired
}

// OwnedByLocked returns every subdataset privately owned by headsetID,
// across all datasets. Caller must hold the lock.
func (w *World) OwnedByLocked(headsetID uint32) []*SubDataset {
	var owned []*SubDataset
	for _, d := range w.datasets {
		for _, sd := range d.SubDatasets {
			if sd.Meta.HasOwner && sd.Meta.Owner == headsetID {
				owned = append(owned, sd)
			}
		}
	}
	return owned
}

// LockedByLocked returns every subdataset whose modification lock is
// currently held by headsetID, across all datasets. Caller must hold the
// lock.
func (w *World) LockedByLocked(headsetID uint32) []*SubDataset {
	var locked []*SubDataset
	for _, d := range w.datasets {
		for _, sd := range d.SubDatasets {
			if sd.Meta.HasLockOwner && sd.Meta.LockOwner == headsetID {
				locked = append(locked, sd)
			}
		}
	}
	return locked
}
