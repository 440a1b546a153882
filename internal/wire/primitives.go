// Package wire implements the Frame Codec (§4.1): big-endian primitive
// encode/decode for the fixed-width scalar types the wire protocol uses,
// plus length-prefixed strings and byte arrays. Decoding from a live,
// possibly-fragmented TCP stream is handled by Accumulator (reader.go); this
// file only converts already-assembled byte slices to/from Go values and
// appends Go values to an outbound byte buffer.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
)

// MaxFieldLength bounds any single length-prefixed field (string or byte
// array) to guard against a corrupt or hostile length value asking for an
// implausible allocation. §4.1 calls this the "implementation-defined
// sanity bound"; 1 GiB matches the value named in the spec.
const MaxFieldLength = 1 << 30

// Sizes in bytes of each fixed-width wire primitive.
const (
	SizeU8   = 1
	SizeU16  = 2
	SizeU32  = 4
	SizeF32  = 4
	SizeBool = 1
)

// DecodeU8 decodes a single byte as an unsigned 8-bit integer.
func DecodeU8(b []byte) uint8 { return b[0] }

// DecodeU16 decodes a big-endian uint16 from the first 2 bytes of b.
func DecodeU16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// DecodeU32 decodes a big-endian uint32 from the first 4 bytes of b.
func DecodeU32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// DecodeF32 decodes a big-endian IEEE-754 float32 from the first 4 bytes of b.
func DecodeF32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

// DecodeBool decodes a single-byte boolean: 0 is false, any other value is true.
func DecodeBool(b []byte) bool { return b[0] != 0 }

// AppendU8 appends a single unsigned 8-bit integer to buf.
func AppendU8(buf []byte, v uint8) []byte { return append(buf, v) }

// AppendU16 appends the big-endian encoding of v to buf.
func AppendU16(buf []byte, v uint16) []byte {
	var tmp [SizeU16]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// AppendU32 appends the big-endian encoding of v to buf.
func AppendU32(buf []byte, v uint32) []byte {
	var tmp [SizeU32]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// AppendF32 appends the big-endian IEEE-754 encoding of v to buf.
func AppendF32(buf []byte, v float32) []byte {
	return AppendU32(buf, math.Float32bits(v))
}

// AppendBool appends a single boolean byte (0 or 1) to buf.
func AppendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// AppendString appends a u32-length-prefixed UTF-8 string to buf.
func AppendString(buf []byte, s string) []byte {
	buf = AppendU32(buf, uint32(len(s)))
	return append(buf, s...)
}

// AppendBytes appends a u32-length-prefixed raw byte array to buf.
func AppendBytes(buf []byte, b []byte) []byte {
	buf = AppendU32(buf, uint32(len(b)))
	return append(buf, b...)
}

// CheckFieldLength validates a declared length-prefix value against the
// sanity bound, returning *errors.FrameError(OversizedField) if it is exceeded.
func CheckFieldLength(op string, length uint32) error {
	if length > MaxFieldLength {
		return protoerr.NewFrameError(op, fmt.Errorf("oversized field: declared length %d exceeds %d", length, MaxFieldLength))
	}
	return nil
}
