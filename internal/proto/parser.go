package proto

import (
	"fmt"

	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
	"github.com/sereno-labs/vfv-server/internal/wire"
)

func unknownOpcodeErr(op Opcode) error { return fmt.Errorf("unknown opcode %d", op) }

// fieldPhase tracks where a single field is in its own (possibly two-phase)
// decode: scalar fields read once; string/bytes fields first read a u32
// length, validate it, then read that many bytes.
type fieldPhase int

const (
	phaseScalar fieldPhase = iota
	phaseLen
	phaseBody
)

// Parser is the per-connection streaming state machine (§4.2). Feed may be
// called with any number of bytes, split at any boundary; it returns every
// message that became complete as a result, and preserves cursor/accumulator
// state across calls so a message started in one Feed call can finish in a
// later one. A Parser is not safe for concurrent use; each connection owns
// exactly one.
type Parser struct {
	readingTag bool
	tagAcc     *wire.Accumulator

	opcode Opcode
	schema Schema
	cursor int
	values []fieldValue

	fieldAcc   *wire.Accumulator
	fieldPhase fieldPhase
	fieldKind  FieldKind
}

// NewParser returns a Parser positioned to read the next message's type tag.
func NewParser() *Parser {
	return &Parser{readingTag: true, tagAcc: wire.NewAccumulator(wire.SizeU16)}
}

// Feed consumes data and returns every message completed by it, in arrival
// order. A returned error is always connection-fatal (§7: ProtocolError /
// FrameError) — the caller should close the connection without attempting
// to resume the parser.
func (p *Parser) Feed(data []byte) ([]InMessage, error) {
	var out []InMessage
	for len(data) > 0 || !p.readingTag {
		if p.readingTag {
			n := p.tagAcc.Feed(data)
			data = data[n:]
			if !p.tagAcc.Full() {
				return out, nil
			}
			op := wire.DecodeU16(p.tagAcc.Bytes())
			entry, err := lookup(op)
			if err != nil {
				return out, err
			}
			p.opcode = op
			p.schema = entry.NewSchema()
			p.cursor = 0
			p.values = p.values[:0]
			p.readingTag = false
			p.tagAcc.Reset(wire.SizeU16)
			p.fieldAcc = nil
		}

		msg, consumed, err := p.stepFields(data)
		data = data[consumed:]
		if err != nil {
			return out, err
		}
		if msg != nil {
			out = append(out, msg)
			p.readingTag = true
		}
		if consumed == 0 && msg == nil {
			// No progress possible without more bytes.
			return out, nil
		}
	}
	return out, nil
}

// stepFields advances through as many fields of the in-flight message as
// data allows, returning the completed message (nil if not yet complete)
// and how many bytes of data were consumed.
func (p *Parser) stepFields(data []byte) (InMessage, int, error) {
	total := 0
	for {
		kind, ok := p.schema.FieldKindAt(p.cursor)
		if !ok {
			entry, err := lookup(p.opcode)
			if err != nil {
				return nil, total, err
			}
			msg, err := entry.Build(p.values)
			if err != nil {
				return nil, total, protoerr.NewProtocolError("proto.build", err)
			}
			return msg, total, nil
		}

		if p.fieldAcc == nil {
			p.fieldKind = kind
			if kind == FieldString || kind == FieldBytes {
				p.fieldAcc = wire.NewAccumulator(wire.SizeU32)
				p.fieldPhase = phaseLen
			} else {
				p.fieldAcc = wire.NewAccumulator(fieldByteSize(kind))
				p.fieldPhase = phaseScalar
			}
		}

		if len(data) == 0 && !p.fieldAcc.Full() {
			return nil, total, nil
		}
		n := p.fieldAcc.Feed(data)
		data = data[n:]
		total += n
		if !p.fieldAcc.Full() {
			return nil, total, nil
		}

		switch p.fieldPhase {
		case phaseLen:
			length := wire.DecodeU32(p.fieldAcc.Bytes())
			if err := wire.CheckFieldLength("proto.field_length", length); err != nil {
				return nil, total, err
			}
			p.fieldAcc.Reset(int(length))
			p.fieldPhase = phaseBody
			continue
		case phaseBody:
			body := append([]byte(nil), p.fieldAcc.Bytes()...)
			v := fieldValue{kind: p.fieldKind}
			if p.fieldKind == FieldString {
				v.s = string(body)
			} else {
				v.b = body
			}
			p.commitField(v)
		default: // phaseScalar
			v := decodeScalar(p.fieldKind, p.fieldAcc.Bytes())
			p.commitField(v)
		}
	}
}

func (p *Parser) commitField(v fieldValue) {
	p.values = append(p.values, v)
	p.schema.Observe(p.cursor, v)
	p.cursor++
	p.fieldAcc = nil
}

func fieldByteSize(k FieldKind) int {
	switch k {
	case FieldU8:
		return wire.SizeU8
	case FieldU16:
		return wire.SizeU16
	case FieldU32, FieldF32:
		return wire.SizeU32
	case FieldBool:
		return wire.SizeBool
	default:
		return 0
	}
}

func decodeScalar(k FieldKind, b []byte) fieldValue {
	switch k {
	case FieldU8:
		return fieldValue{kind: k, u: uint32(wire.DecodeU8(b))}
	case FieldU16:
		return fieldValue{kind: k, u: uint32(wire.DecodeU16(b))}
	case FieldU32:
		return fieldValue{kind: k, u: wire.DecodeU32(b)}
	case FieldF32:
		return fieldValue{kind: k, f: wire.DecodeF32(b)}
	case FieldBool:
		u := uint32(0)
		if wire.DecodeBool(b) {
			u = 1
		}
		return fieldValue{kind: k, u: u}
	default:
		return fieldValue{kind: k}
	}
}
