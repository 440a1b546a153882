package wire

import (
	"io"

	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
)

// Writer buffers an outbound frame's fields and flushes them to an
// io.Writer in one Write call, so a connection's outbound byte counter
// (used for backpressure, §4.7) moves in a single, accountable step per
// frame rather than one syscall per field.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty frame Writer, writing the given message type
// tag as the first two bytes per §6 ("every message begins with u16 type").
func NewWriter(msgType uint16) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.buf = AppendU16(w.buf, msgType)
	return w
}

func (w *Writer) U8(v uint8) *Writer      { w.buf = AppendU8(w.buf, v); return w }
func (w *Writer) U16(v uint16) *Writer    { w.buf = AppendU16(w.buf, v); return w }
func (w *Writer) U32(v uint32) *Writer    { w.buf = AppendU32(w.buf, v); return w }
func (w *Writer) F32(v float32) *Writer   { w.buf = AppendF32(w.buf, v); return w }
func (w *Writer) Bool(v bool) *Writer     { w.buf = AppendBool(w.buf, v); return w }
func (w *Writer) String(v string) *Writer { w.buf = AppendString(w.buf, v); return w }
func (w *Writer) Bytes(v []byte) *Writer  { w.buf = AppendBytes(w.buf, v); return w }

// Raw appends already-encoded bytes verbatim. No encoder in this module
// calls it; transfer function parameters are written as a u32 count plus
// f32 values.
func (w *Writer) Raw(b []byte) *Writer { w.buf = append(w.buf, b...); return w }

// Len reports the number of bytes the frame currently occupies.
func (w *Writer) Len() int { return len(w.buf) }

// Payload returns the assembled frame bytes.
func (w *Writer) Payload() []byte { return w.buf }

// Flush writes the assembled frame to dst in a single Write call.
func (w *Writer) Flush(dst io.Writer) error {
	n, err := dst.Write(w.buf)
	if err != nil {
		return protoerr.NewFrameError("writer.flush", err)
	}
	if n != len(w.buf) {
		return protoerr.NewFrameError("writer.flush", io.ErrShortWrite)
	}
	return nil
}
