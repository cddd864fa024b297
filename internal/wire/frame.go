package wire

import (
	"fmt"
	"io"

	"github.com/jamestut/s2r/internal/stream"
)

// ErrFrameTooLarge is a fatal protocol error: the peer announced a
// payload length exceeding our receive buffer's capacity.
type ErrFrameTooLarge struct {
	Length, Capacity int
}

func (e *ErrFrameTooLarge) Error() string {
	return fmt.Sprintf("wire: frame payload of %d bytes exceeds buffer capacity %d", e.Length, e.Capacity)
}

// WriteFrame sends whatever BeginMsg/appends/EndMsg built up in buf.
func WriteFrame(w io.Writer, buf *Buffer) error {
	return stream.WriteFull(w, buf.Bytes())
}

// ReadKind reads the 1-byte message kind that leads every frame. ok is
// false on a clean EOF (no bytes at all were available), which signals
// orderly shutdown rather than a protocol error.
func ReadKind(r io.Reader) (kind Kind, ok bool, err error) {
	var b [1]byte
	err = stream.ReadFull(r, b[:])
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return Kind(b[0]), true, nil
}

// ReadPayload reads a frame's 4-byte length prefix and then exactly that
// many payload bytes into buf, positioning buf for reading from offset 0.
func ReadPayload(r io.Reader, buf *Buffer) error {
	var lb [4]byte
	if err := stream.ReadFull(r, lb[:]); err != nil {
		return err
	}
	length := int(lb[0]) | int(lb[1])<<8 | int(lb[2])<<16 | int(lb[3])<<24
	if length < 0 || length > buf.Capacity() {
		return &ErrFrameTooLarge{Length: length, Capacity: buf.Capacity()}
	}
	buf.SetLimit(length)
	buf.Reset()
	if err := stream.ReadFull(r, buf.Backing()); err != nil {
		return err
	}
	return nil
}
