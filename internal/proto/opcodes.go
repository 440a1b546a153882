// Package proto implements the Message Parser (§4.2) and the inbound/outbound
// message taxonomy (§4.3, §6): a streaming per-connection state machine that
// turns a byte stream into whole, strongly-typed messages, and a symmetric
// set of frame builders for the server's outbound broadcasts.
//
// Design: per DESIGN NOTES §9, the parser is a table from a 16-bit type tag
// to a per-variant field schedule (Schema) plus a constructor (Build), not a
// hand-rolled tagged union with parallel setType/clear switches. Static
// schedules are declared once as a []FieldKind (StaticSchema); the few
// message kinds whose field count depends on an earlier field (the VTK
// dataset's point/cell field lists, a lasso's point count, an annotation
// stroke's point count) get a small stateful Schema implementation, mirroring
// (and generalizing) the original VFVDataInformation::getTypeAt/pushValue
// pattern without its default-no-op virtual method sprawl.
package proto

// Opcode is the wire-level 16-bit message type tag (§6: "every message
// begins with u16 type"). The enumeration is shared between inbound and
// outbound directions: a handful of opcodes (AddVTKDataset, AddSubDataset,
// RemoveSubDataset, RotateDataset/TranslateDataset, ScaleDataset, TFDataset)
// are both accepted from clients and re-emitted to peers, with the server
// filling in fields (such as the acting headsetID) the inbound shape omits.
type Opcode = uint16

const (
	MsgIdentHeadset             Opcode = iota // 0: headset -> server
	MsgIdentTablet                            // 1: tablet -> server
	MsgAddVTKDataset                          // 2: tablet/server -> server; server -> all
	MsgAddCloudPointDataset                   // 3: tablet/server -> server; server -> all
	MsgAddSubDataset                          // 4: any -> server; server -> all
	MsgRemoveSubDataset                       // 5: any -> server; server -> all
	MsgDuplicateSubDataset                    // 6: any -> server; server -> all
	MsgRenameSubDataset                       // 7: any -> server; server -> all
	MsgMakeSubDatasetPublic                   // 8: any -> server
	MsgRotateDataset                          // 9: any -> server; server -> all (quat)
	MsgTranslateDataset                       // 10: any -> server; server -> all (as MoveDataset)
	MsgScaleDataset                           // 11: any -> server; server -> all
	MsgSetSubDatasetClipping                  // 12: any -> server
	MsgTFDataset                              // 13: any -> server; server -> all
	MsgUpdateHeadset                          // 14: headset -> server (pose cache only)
	MsgHeadsetCurrentAction                   // 15: headset -> server
	MsgAnchoringDataSegment                   // 16: anchor provider -> server
	MsgAnchoringDataStatus                    // 17: anchor provider -> server
	MsgStartAnnotationStroke                  // 18: any -> server; server -> all
	MsgStartAnnotationText                    // 19: any -> server; server -> all
	MsgAnchorAnnotation                       // 20: any -> server; server -> all
	MsgClearAnnotations                       // 21: any -> server; server -> all
	MsgLocation                               // 22: tablet -> server
	MsgTabletScale                            // 23: tablet -> server
	MsgLasso                                  // 24: tablet -> server
	MsgAddNewSelectionInput                   // 25: tablet -> server
	MsgConfirmSelection                       // 26: tablet -> server
	MsgToggleMapVisibility                    // 27: any -> server; server -> all
	MsgResetVolumetricSelection               // 28: any -> server
	MsgSubDatasetLockOwner                    // 29: server -> all (outbound only)
	MsgSubDatasetOwner                        // 30: server -> all (outbound only)
	MsgHeadsetBindingInfo                     // 31: server -> one (outbound only)
	MsgHeadsetsStatus                         // 32: server -> all, tick broadcast (outbound only)
	MsgHeadsetAnchorSegment                   // 33: server -> headsets (outbound only)
	MsgHeadsetAnchorEOF                       // 34: server -> headsets (outbound only)
)

// PublicOwnerID is the wire sentinel (§6) denoting "no owner"/"public" in
// outbound owner/lock-owner fields.
const PublicOwnerID uint32 = 0xFFFFFFFF
