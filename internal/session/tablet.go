package session

// TabletData is the substate a connection gains once identified as a
// tablet (§4.3's IdentTablet, §4.4). Grounded on original_source's tablet
// client bookkeeping: handedness and the active selection technique are
// cached here because later Lasso/ConfirmSelection messages need them, and
// BoundHeadsetID records the peer this tablet was paired with at ident
// time (tablets bind to the headset named in their own IdentTablet
// message, not the reverse).
type TabletData struct {
	ID              uint32
	Handedness      uint32
	SelectionMethod uint32
	BoundHeadsetID  uint32
	HasBoundHeadset bool
}
