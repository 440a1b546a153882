package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	var buf []byte
	buf = AppendU16(buf, 0xBEEF)
	buf = AppendU32(buf, 0xDEADBEEF)
	buf = AppendF32(buf, 3.14159)
	buf = AppendBool(buf, true)
	buf = AppendBool(buf, false)

	require.Equal(t, uint16(0xBEEF), DecodeU16(buf[0:2]))
	require.Equal(t, uint32(0xDEADBEEF), DecodeU32(buf[2:6]))
	require.InDelta(t, float32(3.14159), DecodeF32(buf[6:10]), 0.0001)
	require.True(t, DecodeBool(buf[10:11]))
	require.False(t, DecodeBool(buf[11:12]))
}

func TestStringAndBytesWireFormat(t *testing.T) {
	var buf []byte
	buf = AppendString(buf, "sub000")
	buf = AppendBytes(buf, []byte{1, 2, 3})

	require.Equal(t, uint32(6), DecodeU32(buf[0:4]))
	require.Equal(t, "sub000", string(buf[4:10]))
	require.Equal(t, uint32(3), DecodeU32(buf[10:14]))
	require.Equal(t, []byte{1, 2, 3}, buf[14:17])
}

func TestEmptyStringRoundTrip(t *testing.T) {
	buf := AppendString(nil, "")
	require.Equal(t, uint32(0), DecodeU32(buf))
	require.Len(t, buf, 4)
}

func TestCheckFieldLengthRejectsOversized(t *testing.T) {
	require.NoError(t, CheckFieldLength("test", 1024))
	err := CheckFieldLength("test", MaxFieldLength+1)
	require.Error(t, err)
}

func TestWriterAssemblesFrame(t *testing.T) {
	w := NewWriter(7)
	w.U32(1).U32(2).String("sd-name").F32(1.5)

	var out bytes.Buffer
	require.NoError(t, w.Flush(&out))

	b := out.Bytes()
	require.Equal(t, uint16(7), DecodeU16(b[0:2]))
	require.Equal(t, uint32(1), DecodeU32(b[2:6]))
	require.Equal(t, uint32(2), DecodeU32(b[6:10]))
	nameLen := DecodeU32(b[10:14])
	require.Equal(t, uint32(7), nameLen)
	require.Equal(t, "sd-name", string(b[14:21]))
	require.InDelta(t, float32(1.5), DecodeF32(b[21:25]), 0.0001)
}
