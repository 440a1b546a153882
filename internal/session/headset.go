package session

// PointingState is a headset's current targeting substate, cached from its
// most recent UpdateHeadset message (§4.3) and republished verbatim in the
// next HeadsetsStatus tick (§6).
type PointingState struct {
	Technique     uint32
	DatasetID     uint32
	SubDatasetID  uint32
	InPublic      bool
	LocalPosition [3]float32
	StartPosition [3]float32
	StartRotation [4]float32
}

// HeadsetData is the substate a connection gains once identified as a
// headset (§4.3's IdentHeadset, §4.4). Grounded on original_source's
// MetaData.h/AnchorHeadsetData.h headset bookkeeping: a color drawn from
// the fixed 10-slot palette, the last pose reported via UpdateHeadset, the
// current-action enum driving selection-state transitions, a volumetric
// working set of subdataset IDs the headset is actively selecting within,
// and the tablet it is bound to (if any).
type HeadsetData struct {
	ID                uint32
	Color             uint32
	Position          [3]float32
	Rotation          [4]float32
	CurrentAction     uint32
	Pointing          PointingState
	VolumetricWorking map[uint32]struct{}
	BoundTabletID     uint32
	HasBoundTablet    bool
	AnchoringSent     bool
}

// ClearVolumetricWorkingSet empties the working set, called when
// HeadsetCurrentAction transitions out of a selection state (§4.3).
func (h *HeadsetData) ClearVolumetricWorkingSet() {
	h.VolumetricWorking = make(map[uint32]struct{})
}
