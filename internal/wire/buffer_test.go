package wire

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferAppendFullRollback(t *testing.T) {
	b := NewBuffer(8)
	require.NoError(t, b.AppendU32(1))
	before := append([]byte(nil), b.Bytes()...)
	undo := b.Tell()

	// This append would cross the limit; the buffer must come back
	// byte-for-byte unchanged.
	err := b.AppendBytes([]byte("12345"))
	require.ErrorIs(t, err, ErrBufferFull)
	_, serr := b.Seek(undo, io.SeekStart)
	require.NoError(t, serr)
	require.Equal(t, before, b.Bytes())
}

func TestBufferPrimitiveRoundTrip(t *testing.T) {
	b := NewBuffer(64)
	require.NoError(t, b.AppendU8(7))
	require.NoError(t, b.AppendU16(1234))
	require.NoError(t, b.AppendU32(987654))
	require.NoError(t, b.AppendI16(-5))
	require.NoError(t, b.AppendI32(-70000))
	require.NoError(t, b.AppendString("hello"))
	require.NoError(t, b.AppendString(""))

	b.SetLimit(b.Tell())
	b.Reset()

	u8, err := b.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 7, u8)

	u16, err := b.ReadU16()
	require.NoError(t, err)
	require.EqualValues(t, 1234, u16)

	u32, err := b.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 987654, u32)

	i16, err := b.ReadI16()
	require.NoError(t, err)
	require.EqualValues(t, -5, i16)

	i32, err := b.ReadI32()
	require.NoError(t, err)
	require.EqualValues(t, -70000, i32)

	s, err := b.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	s, err = b.ReadString()
	require.NoError(t, err)
	require.Equal(t, "", s)
}

func TestBufferMessageFraming(t *testing.T) {
	b := NewBuffer(64)
	require.NoError(t, b.BeginMsg(KindChdir))
	require.NoError(t, b.AppendBytes([]byte("/srv/data")))
	require.NoError(t, b.EndMsg())

	framed := b.Bytes()
	require.Equal(t, byte(KindChdir), framed[0])
	payloadLen := uint32(framed[1]) | uint32(framed[2])<<8 | uint32(framed[3])<<16 | uint32(framed[4])<<24
	require.EqualValues(t, len("/srv/data"), payloadLen)
	require.Equal(t, "/srv/data", string(framed[5:]))
}
