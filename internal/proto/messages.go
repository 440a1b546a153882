package proto

import protoerr "github.com/sereno-labs/vfv-server/internal/errors"

// InMessage is implemented by every decoded inbound message. The marker
// method carries no behavior; it exists so the parser's return type cannot
// be satisfied by an arbitrary struct from another package, matching the
// "closed sum type" shape called for in DESIGN NOTES §9.
type InMessage interface {
	isInMessage()
	Opcode() Opcode
}

type base struct{ op Opcode }

func (b base) isInMessage()    {}
func (b base) Opcode() Opcode { return b.op }

// --- Identification & binding -------------------------------------------------

type IdentHeadset struct{ base }

type IdentTablet struct {
	base
	HeadsetIP  string
	TabletID   uint32
	Handedness uint32
}

// --- Dataset / subdataset lifecycle ------------------------------------------

type AddVTKDataset struct {
	base
	Name         string
	PtFields     []uint32
	CellFields   []uint32
}

type AddCloudPointDataset struct {
	base
	Name string
}

type AddSubDataset struct {
	base
	DatasetID uint32
	IsPublic  bool
}

type RemoveSubDataset struct {
	base
	DatasetID uint32
	SDID      uint32
}

type DuplicateSubDataset struct {
	base
	DatasetID uint32
	SDID      uint32
}

type RenameSubDataset struct {
	base
	DatasetID uint32
	SDID      uint32
	Name      string
}

type MakeSubDatasetPublic struct {
	base
	DatasetID uint32
	SDID      uint32
}

// --- Transform ----------------------------------------------------------------

type RotateDataset struct {
	base
	DatasetID uint32
	SDID      uint32
	Quat      [4]float32
}

type TranslateDataset struct {
	base
	DatasetID uint32
	SDID      uint32
	Position  [3]float32
}

type ScaleDataset struct {
	base
	DatasetID uint32
	SDID      uint32
	Scale     [3]float32
}

type SetSubDatasetClipping struct {
	base
	DatasetID uint32
	SDID      uint32
	Normal    [3]float32
	Center    [3]float32
}

// --- Transfer function ---------------------------------------------------------

type TFDataset struct {
	base
	DatasetID uint32
	SDID      uint32
	TFType    uint8
	ColorMode uint8
	Params    []float32
}

// --- Headset runtime -------------------------------------------------------------

// UpdateHeadset carries a headset's pose plus its pointing substate (§6's
// HeadsetsStatus record fields, minus id/color/action which the server
// already tracks): the targeting technique, the dataset/subdataset it is
// currently pointing at (if any), whether that target is in the public or
// private working set, the pointer's local-space position on the
// subdataset, and the headset's pose at the start of the current pointing
// gesture (used by ray/go-go style techniques to compute a stable offset).
type UpdateHeadset struct {
	base
	Position            [3]float32
	Rotation             [4]float32
	PointingTechnique    uint32
	PointingDatasetID    uint32
	PointingSubDatasetID uint32
	PointingInPublic     bool
	LocalSDPosition      [3]float32
	HeadsetStartPosition [3]float32
	HeadsetStartRotation [4]float32
}

type HeadsetCurrentAction struct {
	base
	Action uint32
}

// --- Anchor -------------------------------------------------------------------

type AnchoringDataSegment struct {
	base
	Data []byte
}

type AnchoringDataStatus struct {
	base
	OK bool
}

// --- Annotation -----------------------------------------------------------------

type StartAnnotationStroke struct {
	base
	DatasetID    uint32
	SDID         uint32
	AnnotationID uint32
	Color        uint32
	Width        float32
	PointsX      []float32
	PointsY      []float32
}

type StartAnnotationText struct {
	base
	DatasetID    uint32
	SDID         uint32
	AnnotationID uint32
	Color        uint32
	PosX, PosY   float32
	Text         string
}

type AnchorAnnotation struct {
	base
	DatasetID    uint32
	SDID         uint32
	AnnotationID uint32
}

type ClearAnnotations struct {
	base
	DatasetID uint32
	SDID      uint32
}

// --- Selection pipeline (tablet) -------------------------------------------------

type Location struct {
	base
	Position [3]float32
}

type TabletScale struct {
	base
	Scale float32
}

type Lasso struct {
	base
	PointsX []float32
	PointsY []float32
}

type AddNewSelectionInput struct {
	base
	Method uint32
}

type ConfirmSelection struct {
	base
	DatasetID uint32
	SDID      uint32
}

// --- Misc --------------------------------------------------------------------

type ToggleMapVisibility struct {
	base
	DatasetID uint32
	SDID      uint32
}

type ResetVolumetricSelection struct {
	base
	DatasetID uint32
	SDID      uint32
}

// registryEntry pairs a fresh-Schema factory with a Build function that
// assembles the concrete message once the schema reports completion.
type registryEntry struct {
	NewSchema func() Schema
	Build     func(values []fieldValue) (InMessage, error)
}

func staticEntry(op Opcode, kinds StaticSchema, build func(op Opcode, values []fieldValue) (InMessage, error)) registryEntry {
	return registryEntry{
		NewSchema: func() Schema { return kinds },
		Build:     func(values []fieldValue) (InMessage, error) { return build(op, values) },
	}
}

// registry is the opcode -> (schema, constructor) table the streaming parser
// consults. Every inbound opcode listed in opcodes.go must have an entry.
var registry = map[Opcode]registryEntry{
	MsgIdentHeadset: staticEntry(MsgIdentHeadset, StaticSchema{}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &IdentHeadset{base{op}}, nil
	}),
	MsgIdentTablet: staticEntry(MsgIdentTablet, StaticSchema{FieldString, FieldU32, FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &IdentTablet{base{op}, v[0].Str(), v[1].U32(), v[2].U32()}, nil
	}),
	MsgAddVTKDataset: {
		NewSchema: func() Schema { return &vtkSchema{} },
		Build: func(v []fieldValue) (InMessage, error) {
			name := v[0].Str()
			nbPt := int(v[1].U32())
			pt := make([]uint32, nbPt)
			for i := 0; i < nbPt; i++ {
				pt[i] = v[2+i].U32()
			}
			nbCell := int(v[2+nbPt].U32())
			cell := make([]uint32, nbCell)
			for i := 0; i < nbCell; i++ {
				cell[i] = v[3+nbPt+i].U32()
			}
			return &AddVTKDataset{base{MsgAddVTKDataset}, name, pt, cell}, nil
		},
	},
	MsgAddCloudPointDataset: staticEntry(MsgAddCloudPointDataset, StaticSchema{FieldString}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &AddCloudPointDataset{base{op}, v[0].Str()}, nil
	}),
	MsgAddSubDataset: staticEntry(MsgAddSubDataset, StaticSchema{FieldU32, FieldBool}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &AddSubDataset{base{op}, v[0].U32(), v[1].Bool()}, nil
	}),
	MsgRemoveSubDataset: staticEntry(MsgRemoveSubDataset, StaticSchema{FieldU32, FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &RemoveSubDataset{base{op}, v[0].U32(), v[1].U32()}, nil
	}),
	MsgDuplicateSubDataset: staticEntry(MsgDuplicateSubDataset, StaticSchema{FieldU32, FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &DuplicateSubDataset{base{op}, v[0].U32(), v[1].U32()}, nil
	}),
	MsgRenameSubDataset: staticEntry(MsgRenameSubDataset, StaticSchema{FieldU32, FieldU32, FieldString}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &RenameSubDataset{base{op}, v[0].U32(), v[1].U32(), v[2].Str()}, nil
	}),
	MsgMakeSubDatasetPublic: staticEntry(MsgMakeSubDatasetPublic, StaticSchema{FieldU32, FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &MakeSubDatasetPublic{base{op}, v[0].U32(), v[1].U32()}, nil
	}),
	MsgRotateDataset: staticEntry(MsgRotateDataset, StaticSchema{FieldU32, FieldU32, FieldF32, FieldF32, FieldF32, FieldF32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &RotateDataset{base{op}, v[0].U32(), v[1].U32(), [4]float32{v[2].F32(), v[3].F32(), v[4].F32(), v[5].F32()}}, nil
	}),
	MsgTranslateDataset: staticEntry(MsgTranslateDataset, StaticSchema{FieldU32, FieldU32, FieldF32, FieldF32, FieldF32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &TranslateDataset{base{op}, v[0].U32(), v[1].U32(), [3]float32{v[2].F32(), v[3].F32(), v[4].F32()}}, nil
	}),
	MsgScaleDataset: staticEntry(MsgScaleDataset, StaticSchema{FieldU32, FieldU32, FieldF32, FieldF32, FieldF32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &ScaleDataset{base{op}, v[0].U32(), v[1].U32(), [3]float32{v[2].F32(), v[3].F32(), v[4].F32()}}, nil
	}),
	MsgSetSubDatasetClipping: staticEntry(MsgSetSubDatasetClipping, StaticSchema{
		FieldU32, FieldU32, FieldF32, FieldF32, FieldF32, FieldF32, FieldF32, FieldF32,
	}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &SetSubDatasetClipping{base{op}, v[0].U32(), v[1].U32(),
			[3]float32{v[2].F32(), v[3].F32(), v[4].F32()},
			[3]float32{v[5].F32(), v[6].F32(), v[7].F32()}}, nil
	}),
	MsgTFDataset: {
		NewSchema: func() Schema { return &tfSchema{} },
		Build: func(v []fieldValue) (InMessage, error) {
			n := int(v[4].U32())
			params := make([]float32, n)
			for i := 0; i < n; i++ {
				params[i] = v[5+i].F32()
			}
			return &TFDataset{base{MsgTFDataset}, v[0].U32(), v[1].U32(), v[2].U8(), v[3].U8(), params}, nil
		},
	},
	MsgUpdateHeadset: staticEntry(MsgUpdateHeadset, StaticSchema{
		FieldF32, FieldF32, FieldF32, // position
		FieldF32, FieldF32, FieldF32, FieldF32, // rotation
		FieldU32,          // pointing technique
		FieldU32, FieldU32, // pointing dataset/subdataset
		FieldBool,          // pointing in public
		FieldF32, FieldF32, FieldF32, // local subdataset position
		FieldF32, FieldF32, FieldF32, // headset start position
		FieldF32, FieldF32, FieldF32, FieldF32, // headset start rotation
	}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &UpdateHeadset{
			base:                 base{op},
			Position:             [3]float32{v[0].F32(), v[1].F32(), v[2].F32()},
			Rotation:             [4]float32{v[3].F32(), v[4].F32(), v[5].F32(), v[6].F32()},
			PointingTechnique:    v[7].U32(),
			PointingDatasetID:    v[8].U32(),
			PointingSubDatasetID: v[9].U32(),
			PointingInPublic:     v[10].Bool(),
			LocalSDPosition:      [3]float32{v[11].F32(), v[12].F32(), v[13].F32()},
			HeadsetStartPosition: [3]float32{v[14].F32(), v[15].F32(), v[16].F32()},
			HeadsetStartRotation: [4]float32{v[17].F32(), v[18].F32(), v[19].F32(), v[20].F32()},
		}, nil
	}),
	MsgHeadsetCurrentAction: staticEntry(MsgHeadsetCurrentAction, StaticSchema{FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &HeadsetCurrentAction{base{op}, v[0].U32()}, nil
	}),
	MsgAnchoringDataSegment: staticEntry(MsgAnchoringDataSegment, StaticSchema{FieldBytes}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &AnchoringDataSegment{base{op}, v[0].Bytes()}, nil
	}),
	MsgAnchoringDataStatus: staticEntry(MsgAnchoringDataStatus, StaticSchema{FieldBool}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &AnchoringDataStatus{base{op}, v[0].Bool()}, nil
	}),
	MsgStartAnnotationStroke: {
		NewSchema: func() Schema { return &strokeSchema{} },
		Build: func(v []fieldValue) (InMessage, error) {
			nbPoints := int(v[5].U32())
			xs := make([]float32, nbPoints)
			ys := make([]float32, nbPoints)
			for i := 0; i < nbPoints; i++ {
				xs[i] = v[strokeFixedFields+2*i].F32()
				ys[i] = v[strokeFixedFields+2*i+1].F32()
			}
			return &StartAnnotationStroke{base{MsgStartAnnotationStroke},
				v[0].U32(), v[1].U32(), v[2].U32(), v[3].U32(), v[4].F32(), xs, ys}, nil
		},
	},
	MsgStartAnnotationText: staticEntry(MsgStartAnnotationText, StaticSchema{
		FieldU32, FieldU32, FieldU32, FieldU32, FieldF32, FieldF32, FieldString,
	}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &StartAnnotationText{base{op}, v[0].U32(), v[1].U32(), v[2].U32(), v[3].U32(), v[4].F32(), v[5].F32(), v[6].Str()}, nil
	}),
	MsgAnchorAnnotation: staticEntry(MsgAnchorAnnotation, StaticSchema{FieldU32, FieldU32, FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &AnchorAnnotation{base{op}, v[0].U32(), v[1].U32(), v[2].U32()}, nil
	}),
	MsgClearAnnotations: staticEntry(MsgClearAnnotations, StaticSchema{FieldU32, FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &ClearAnnotations{base{op}, v[0].U32(), v[1].U32()}, nil
	}),
	MsgLocation: staticEntry(MsgLocation, StaticSchema{FieldF32, FieldF32, FieldF32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &Location{base{op}, [3]float32{v[0].F32(), v[1].F32(), v[2].F32()}}, nil
	}),
	MsgTabletScale: staticEntry(MsgTabletScale, StaticSchema{FieldF32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &TabletScale{base{op}, v[0].F32()}, nil
	}),
	MsgLasso: {
		NewSchema: func() Schema { return &lassoSchema{} },
		Build: func(v []fieldValue) (InMessage, error) {
			n := int(v[0].U32())
			xs := make([]float32, n)
			ys := make([]float32, n)
			for i := 0; i < n; i++ {
				xs[i] = v[1+2*i].F32()
				ys[i] = v[1+2*i+1].F32()
			}
			return &Lasso{base{MsgLasso}, xs, ys}, nil
		},
	},
	MsgAddNewSelectionInput: staticEntry(MsgAddNewSelectionInput, StaticSchema{FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &AddNewSelectionInput{base{op}, v[0].U32()}, nil
	}),
	MsgConfirmSelection: staticEntry(MsgConfirmSelection, StaticSchema{FieldU32, FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &ConfirmSelection{base{op}, v[0].U32(), v[1].U32()}, nil
	}),
	MsgToggleMapVisibility: staticEntry(MsgToggleMapVisibility, StaticSchema{FieldU32, FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &ToggleMapVisibility{base{op}, v[0].U32(), v[1].U32()}, nil
	}),
	MsgResetVolumetricSelection: staticEntry(MsgResetVolumetricSelection, StaticSchema{FieldU32, FieldU32}, func(op Opcode, v []fieldValue) (InMessage, error) {
		return &ResetVolumetricSelection{base{op}, v[0].U32(), v[1].U32()}, nil
	}),
}

func lookup(op Opcode) (registryEntry, error) {
	e, ok := registry[op]
	if !ok {
		return registryEntry{}, protoerr.NewProtocolError("proto.lookup", unknownOpcodeErr(op))
	}
	return e, nil
}
