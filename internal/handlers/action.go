package handlers

// Headset current-action values, matching
// original_source/include/VFVClientSocket.h's VFVHeadsetCurrentActionType
// enumeration exactly so a recorded session's action codes need no
// translation.
const (
	ActionNothing uint32 = iota
	ActionMoving
	ActionScaling
	ActionRotating
	ActionSketching
	ActionCreateAnnotation
	ActionLasso
	ActionSelecting
	ActionReviewingSelection
)

// isSelectionAction reports whether action keeps a headset's volumetric
// working set alive; leaving one of these (per original_source's
// isInVolumetricSelectionState) clears it (§4.3).
func isSelectionAction(action uint32) bool {
	switch action {
	case ActionLasso, ActionSelecting, ActionReviewingSelection:
		return true
	default:
		return false
	}
}
