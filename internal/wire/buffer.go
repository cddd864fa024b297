package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrBufferFull is returned by any append that would cross the buffer's
// current limit. It is recoverable: callers save the cursor before a
// speculative sequence of appends and rewind to it on ErrBufferFull,
// which leaves the filled prefix byte-for-byte as it was. A multi-part
// append such as AppendString or BeginMsg may already have advanced the
// cursor when a later part fails, so the rewind is always needed.
var ErrBufferFull = errors.New("wire: buffer full")

// Buffer is a fixed-capacity byte region with a movable cursor and a
// soft limit, at most the capacity, that bounds every read and append.
// It is the sole mechanism by which the client decides a bulk request
// has grown too large to send in one frame.
type Buffer struct {
	data      []byte
	cursor    int
	limit     int
	msgLenPos int // position of the reserved length field's payload, -1 if not framing
}

// NewBuffer allocates a Buffer with the given fixed capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		data:      make([]byte, capacity),
		limit:     capacity,
		msgLenPos: -1,
	}
}

// Capacity returns the buffer's fixed byte capacity.
func (b *Buffer) Capacity() int { return len(b.data) }

// Limit returns the current soft limit.
func (b *Buffer) Limit() int { return b.limit }

// SetLimit bounds subsequent reads/appends to n bytes; n is clamped to
// [0, Capacity()].
func (b *Buffer) SetLimit(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(b.data) {
		n = len(b.data)
	}
	b.limit = n
	if b.cursor > b.limit {
		b.cursor = b.limit
	}
}

// Reset moves the cursor back to the start without changing the limit.
func (b *Buffer) Reset() { b.cursor = 0 }

// Tell returns the current cursor position.
func (b *Buffer) Tell() int { return b.cursor }

// Seek moves the cursor to an absolute (whence=io.SeekStart) or relative
// (whence=io.SeekCurrent) position, clamped to [0, Limit()].
func (b *Buffer) Seek(offset int, whence int) (int, error) {
	var pos int
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = b.cursor + offset
	default:
		return 0, fmt.Errorf("wire: unsupported whence %d", whence)
	}
	if pos < 0 {
		pos = 0
	}
	if pos > b.limit {
		pos = b.limit
	}
	b.cursor = pos
	return b.cursor, nil
}

func (b *Buffer) ensure(n int) error {
	if b.cursor+n > b.limit {
		return ErrBufferFull
	}
	return nil
}

// AppendBytes appends raw bytes.
func (b *Buffer) AppendBytes(p []byte) error {
	if err := b.ensure(len(p)); err != nil {
		return err
	}
	copy(b.data[b.cursor:], p)
	b.cursor += len(p)
	return nil
}

// AppendU8 appends a single byte.
func (b *Buffer) AppendU8(v uint8) error {
	if err := b.ensure(1); err != nil {
		return err
	}
	b.data[b.cursor] = v
	b.cursor++
	return nil
}

// AppendU16 appends an unsigned 16-bit little-endian integer.
func (b *Buffer) AppendU16(v uint16) error {
	if err := b.ensure(2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b.data[b.cursor:], v)
	b.cursor += 2
	return nil
}

// AppendU32 appends an unsigned 32-bit little-endian integer.
func (b *Buffer) AppendU32(v uint32) error {
	if err := b.ensure(4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[b.cursor:], v)
	b.cursor += 4
	return nil
}

// AppendI16 appends a signed 16-bit little-endian integer.
func (b *Buffer) AppendI16(v int16) error { return b.AppendU16(uint16(v)) }

// AppendI32 appends a signed 32-bit little-endian integer.
func (b *Buffer) AppendI32(v int32) error { return b.AppendU32(uint32(v)) }

// AppendString appends a 16-bit length prefix followed by the UTF-8
// bytes of s. Length 0 is valid.
func (b *Buffer) AppendString(s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("wire: string too long (%d bytes)", len(s))
	}
	if err := b.AppendU16(uint16(len(s))); err != nil {
		return err
	}
	return b.AppendBytes([]byte(s))
}

// ReadU8 reads a single byte.
func (b *Buffer) ReadU8() (uint8, error) {
	if b.cursor+1 > b.limit {
		return 0, io.ErrUnexpectedEOF
	}
	v := b.data[b.cursor]
	b.cursor++
	return v, nil
}

// ReadU16 reads an unsigned 16-bit little-endian integer.
func (b *Buffer) ReadU16() (uint16, error) {
	if b.cursor+2 > b.limit {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint16(b.data[b.cursor:])
	b.cursor += 2
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian integer.
func (b *Buffer) ReadU32() (uint32, error) {
	if b.cursor+4 > b.limit {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(b.data[b.cursor:])
	b.cursor += 4
	return v, nil
}

// ReadI16 reads a signed 16-bit little-endian integer.
func (b *Buffer) ReadI16() (int16, error) {
	v, err := b.ReadU16()
	return int16(v), err
}

// ReadI32 reads a signed 32-bit little-endian integer.
func (b *Buffer) ReadI32() (int32, error) {
	v, err := b.ReadU32()
	return int32(v), err
}

// ReadBytes reads n raw bytes. The returned slice aliases the buffer's
// backing array and is only valid until the next Reset/SetLimit.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || b.cursor+n > b.limit {
		return nil, io.ErrUnexpectedEOF
	}
	v := b.data[b.cursor : b.cursor+n]
	b.cursor += n
	return v, nil
}

// ReadString reads a 16-bit length prefix followed by that many UTF-8
// bytes.
func (b *Buffer) ReadString() (string, error) {
	n, err := b.ReadU16()
	if err != nil {
		return "", err
	}
	raw, err := b.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// AppendFrom reads directly into the unused region between the cursor
// and the limit from r, advancing the cursor by however many bytes were
// read. It reports 0 bytes (and a nil error) on EOF, the same shape the
// CHUNK body-streaming loop uses to detect "no more data for this fd".
func (b *Buffer) AppendFrom(r io.Reader) (int, error) {
	room := b.limit - b.cursor
	if room <= 0 {
		return 0, nil
	}
	n, err := r.Read(b.data[b.cursor : b.cursor+room])
	b.cursor += n
	if err != nil && err != io.EOF {
		return n, err
	}
	return n, nil
}

// ReadRemaining returns everything from the cursor up to the limit and
// advances the cursor to the limit.
func (b *Buffer) ReadRemaining() []byte {
	v := b.data[b.cursor:b.limit]
	b.cursor = b.limit
	return v
}

// Bytes returns the filled prefix [0, cursor) of the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.cursor] }

// Backing exposes the full backing array up to the current limit, for
// callers (such as a stream read) that need to fill the buffer directly
// rather than go through the append API.
func (b *Buffer) Backing() []byte { return b.data[:b.limit] }

// BeginMsg writes the 1-byte kind, reserves 4 bytes for the payload
// length, and records the payload start so EndMsg can back-patch it.
func (b *Buffer) BeginMsg(kind Kind) error {
	if err := b.AppendU8(uint8(kind)); err != nil {
		return err
	}
	if err := b.ensure(4); err != nil {
		return err
	}
	b.cursor += 4
	b.msgLenPos = b.cursor
	return nil
}

// EndMsg back-patches the 4-byte payload length field reserved by
// BeginMsg with (current offset - payload start), leaving the cursor at
// end-of-message.
func (b *Buffer) EndMsg() error {
	if b.msgLenPos < 0 {
		return fmt.Errorf("wire: EndMsg called without BeginMsg")
	}
	payloadLen := b.cursor - b.msgLenPos
	binary.LittleEndian.PutUint32(b.data[b.msgLenPos-4:], uint32(payloadLen))
	b.msgLenPos = -1
	return nil
}
