package proto

// Dynamic schedules: schemas whose field count depends on a count field
// decoded earlier in the same message. Each mirrors a variable-length
// message from the original VFVDataInformation family (dataset field lists,
// a lasso's point list, an annotation stroke's point list) but is expressed
// as a small stateful Schema instead of a hand-rolled cursor/switch pair.

// vtkSchema schedules AddVTKDataset: name, nbPtFields, ptFields[nbPtFields],
// nbCellFields, cellFields[nbCellFields]. Grounded on original_source's
// VFVVTKDatasetInformation, which streams exactly these five zones.
type vtkSchema struct {
	nbPt, nbCell         uint32
	haveNbPt, haveNbCell bool
}

func (s *vtkSchema) FieldKindAt(cursor int) (FieldKind, bool) {
	switch {
	case cursor == 0:
		return FieldString, true // dataset name
	case cursor == 1:
		return FieldU32, true // nbPtFields
	case !s.haveNbPt:
		return 0, false
	case cursor < 2+int(s.nbPt):
		return FieldU32, true // ptFields[i] (nb components of field i)
	case cursor == 2+int(s.nbPt):
		return FieldU32, true // nbCellFields
	case !s.haveNbCell:
		return 0, false
	case cursor < 3+int(s.nbPt)+int(s.nbCell):
		return FieldU32, true // cellFields[i]
	default:
		return 0, false
	}
}

func (s *vtkSchema) Observe(cursor int, v fieldValue) {
	switch {
	case cursor == 1:
		s.nbPt, s.haveNbPt = v.U32(), true
	case s.haveNbPt && cursor == 2+int(s.nbPt):
		s.nbCell, s.haveNbCell = v.U32(), true
	}
}

// lassoSchema schedules Lasso: nbPoints followed by nbPoints interleaved
// (x, y) float pairs. Grounded on VFVSelectionLasso's point buffer.
type lassoSchema struct {
	nbPoints uint32
	have     bool
}

func (s *lassoSchema) FieldKindAt(cursor int) (FieldKind, bool) {
	switch {
	case cursor == 0:
		return FieldU32, true
	case !s.have:
		return 0, false
	case cursor < 1+2*int(s.nbPoints):
		return FieldF32, true
	default:
		return 0, false
	}
}

func (s *lassoSchema) Observe(cursor int, v fieldValue) {
	if cursor == 0 {
		s.nbPoints, s.have = v.U32(), true
	}
}

// strokeSchema schedules StartAnnotationStroke: datasetID, sdID,
// annotationID, color, width, nbPoints, then nbPoints interleaved (x, y)
// float pairs. Grounded on VFVAnnotationStroke's point accumulation loop.
type strokeSchema struct {
	nbPoints uint32
	have     bool
}

const strokeFixedFields = 6 // datasetID, sdID, annotationID, color, width, nbPoints

func (s *strokeSchema) FieldKindAt(cursor int) (FieldKind, bool) {
	switch {
	case cursor < strokeFixedFields-1:
		return fixedStrokeKindAt(cursor), true
	case cursor == strokeFixedFields-1:
		return FieldU32, true // nbPoints
	case !s.have:
		return 0, false
	case cursor < strokeFixedFields+2*int(s.nbPoints):
		return FieldF32, true
	default:
		return 0, false
	}
}

func fixedStrokeKindAt(cursor int) FieldKind {
	switch cursor {
	case 0, 1, 2, 3: // datasetID, sdID, annotationID, color
		return FieldU32
	case 4: // width
		return FieldF32
	default:
		return FieldU32
	}
}

func (s *strokeSchema) Observe(cursor int, v fieldValue) {
	if cursor == strokeFixedFields-1 {
		s.nbPoints, s.have = v.U32(), true
	}
}

// tfSchema schedules TFDataset: datasetID, sdID, tfType, colorMode,
// paramCount, params[paramCount]. Grounded on VFVColorInformation,
// generalized to a count-prefixed parameter vector so any transfer function
// kind (grayscale ramp, 2-color gradient, triangular TF, ...) fits the same
// wire shape without a per-kind opcode. tfType/colorMode are u8 on the wire
// (§6), matching the outbound TFDataset frame layout.
type tfSchema struct {
	paramCount uint32
	have       bool
}

func (s *tfSchema) FieldKindAt(cursor int) (FieldKind, bool) {
	switch {
	case cursor < 2:
		return FieldU32, true // datasetID, sdID
	case cursor < 4:
		return FieldU8, true // tfType, colorMode
	case cursor == 4:
		return FieldU32, true // paramCount
	case !s.have:
		return 0, false
	case cursor < 5+int(s.paramCount):
		return FieldF32, true
	default:
		return 0, false
	}
}

func (s *tfSchema) Observe(cursor int, v fieldValue) {
	if cursor == 4 {
		s.paramCount, s.have = v.U32(), true
	}
}
