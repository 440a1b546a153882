package proto

// FieldKind identifies the wire representation of one field in a message's
// schedule, mirroring the scalar/string/bytes vocabulary of internal/wire.
type FieldKind uint8

const (
	FieldU8 FieldKind = iota
	FieldU16
	FieldU32
	FieldF32
	FieldBool
	FieldString
	FieldBytes
)

// fieldValue is one decoded field, tagged with the kind that produced it.
// U32 also stores decoded u16 and bool values (widened/narrowed at the
// accessor) so the parser does not need a variant per scalar width.
type fieldValue struct {
	kind FieldKind
	u    uint32
	f    float32
	s    string
	b    []byte
}

func (v fieldValue) U32() uint32  { return v.u }
func (v fieldValue) U16() uint16  { return uint16(v.u) }
func (v fieldValue) U8() uint8    { return uint8(v.u) }
func (v fieldValue) Bool() bool   { return v.u != 0 }
func (v fieldValue) F32() float32 { return v.f }
func (v fieldValue) Str() string  { return v.s }
func (v fieldValue) Bytes() []byte {
	return v.b
}

// Schema is the field schedule for one message kind (§4.2's "per-variant
// field schedule"): FieldKindAt tells the parser what type of field to read
// next, and whether the cursor is still within the message at all (ok=false
// means the message is complete). Observe lets schedules whose shape depends
// on an earlier field (a declared count) update their own state once that
// field has been decoded — the generalization of the original parser's
// pushValue bookkeeping.
type Schema interface {
	FieldKindAt(cursor int) (FieldKind, bool)
	Observe(cursor int, v fieldValue)
}

// StaticSchema is a fixed field list, used by every message kind whose shape
// does not depend on any of its own field values.
type StaticSchema []FieldKind

func (s StaticSchema) FieldKindAt(cursor int) (FieldKind, bool) {
	if cursor < 0 || cursor >= len(s) {
		return 0, false
	}
	return s[cursor], true
}

func (s StaticSchema) Observe(int, fieldValue) {}
