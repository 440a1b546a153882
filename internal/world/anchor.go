package world

// AnchorBuffer accumulates the anchor data segments streamed by the current
// anchor-provider headset (§4.4, §6's AnchoringDataSegment/Status) and
// tracks whether the round finished successfully, so the handlers can
// stream the assembled buffer to every headset not yet sent it.
//
// Grounded on original_source's AnchorHeadsetData.h: isCompleted()/
// finalize(bool)/pushDataSegment() become Completed()/Finalize()/Push(),
// the struct equivalent of that class's segment vector plus completion
// flag, minus the C++ class's manual memory ownership of the segments.
type AnchorBuffer struct {
	ProviderID  uint32
	HasProvider bool
	segments    [][]byte
	completed   bool
	ok          bool
}

func NewAnchorBuffer() *AnchorBuffer { return &AnchorBuffer{} }

// Reset clears the buffer and assigns a new provider, starting a new round.
func (a *AnchorBuffer) Reset(providerID uint32) {
	a.ProviderID = providerID
	a.HasProvider = true
	a.segments = a.segments[:0]
	a.completed = false
	a.ok = false
}

// ClearProvider drops the current provider without starting a new round
// (used when the provider disconnects mid-round and no replacement has
// been elected yet).
func (a *AnchorBuffer) ClearProvider() {
	a.HasProvider = false
	a.segments = nil
	a.completed = false
	a.ok = false
}

// Push appends one data segment to the in-progress round.
func (a *AnchorBuffer) Push(data []byte) {
	cp := append([]byte(nil), data...)
	a.segments = append(a.segments, cp)
}

// Finalize marks the round's outcome. ok=false means the provider reported
// failure; the caller should re-elect a provider and discard the buffer.
func (a *AnchorBuffer) Finalize(ok bool) {
	a.completed = true
	a.ok = ok
}

// Completed reports whether the provider has sent its AnchoringDataStatus.
func (a *AnchorBuffer) Completed() bool { return a.completed }

// OK reports the outcome of a completed round; undefined if !Completed().
func (a *AnchorBuffer) OK() bool { return a.ok }

// Segments returns the accumulated segments in arrival order. Valid once
// Completed() && OK().
func (a *AnchorBuffer) Segments() [][]byte { return a.segments }
