// Package rclient implements the client side of the protocol: the
// negotiation handshake, the speculative bulk-op queue, and chunked body
// upload, all driven against whatever io.Reader/io.Writer the caller
// wires to a running helper subprocess (spec §4.3). Grounded on the
// original clientcomm.py _Client and _OpQueue classes for control flow.
package rclient

import (
	"fmt"
	"io"

	"github.com/jamestut/s2r/internal/errno"
	"github.com/jamestut/s2r/internal/wire"
)

// MaxBufferSize is the client's local frame buffer capacity. The
// effective payload budget for bulk requests and CHUNK bodies is the
// smaller of this and whatever the server advertises in LIMIT_RESP.
const MaxBufferSize = 1 << 20

// retKind tags which result shape a queued op expects back: a bare
// errno (delete, symlink) or an (fd, errno) pair (write).
type retKind uint8

const (
	retGeneric retKind = iota
	retOpenFD
)

// Session is one negotiated connection to a running server executor. It
// is not safe for concurrent use: the protocol is strictly synchronous,
// and so is this type.
type Session struct {
	r io.Reader
	w io.Writer

	buf *wire.Buffer

	maxOpenWrites  uint32
	effectiveLimit int // 0 until negotiated, then min(server max_payload, buf capacity)

	hasBulk        bool
	enqueuedWrites uint32
	rets           []retKind
}

// NewSession negotiates protocol version, request limits, and the
// remote working directory against a freshly started server executor.
func NewSession(r io.Reader, w io.Writer, remoteCWD string) (*Session, error) {
	s := &Session{
		r:   r,
		w:   w,
		buf: wire.NewBuffer(MaxBufferSize),
	}
	if err := s.negotiate(remoteCWD); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) negotiate(remoteCWD string) error {
	if err := s.beginMsg(wire.KindVersion); err != nil {
		return err
	}
	if err := s.sendAndRecv(wire.KindVersionResp); err != nil {
		return fmt.Errorf("rclient: VERSION handshake: %w", err)
	}
	ver, err := s.buf.ReadU32()
	if err != nil {
		return err
	}
	if ver != wire.ProtocolVersion {
		return fmt.Errorf("rclient: server speaks protocol version %d, want %d", ver, wire.ProtocolVersion)
	}

	if err := s.beginMsg(wire.KindReqLimit); err != nil {
		return err
	}
	if err := s.sendAndRecv(wire.KindLimitResp); err != nil {
		return fmt.Errorf("rclient: REQ_LIMIT handshake: %w", err)
	}
	maxOfd, err := s.buf.ReadU32()
	if err != nil {
		return err
	}
	serverMaxPayload, err := s.buf.ReadU32()
	if err != nil {
		return err
	}
	s.maxOpenWrites = maxOfd
	s.effectiveLimit = int(serverMaxPayload)
	if s.effectiveLimit <= 0 || s.effectiveLimit > s.buf.Capacity() {
		s.effectiveLimit = s.buf.Capacity()
	}

	if err := s.beginMsg(wire.KindChdir); err != nil {
		return err
	}
	if err := s.buf.AppendBytes([]byte(remoteCWD)); err != nil {
		return fmt.Errorf("rclient: remote working directory path too long for one frame")
	}
	if err := s.sendAndRecv(wire.KindGenResult); err != nil {
		return fmt.Errorf("rclient: CHDIR handshake: %w", err)
	}
	code, err := s.buf.ReadU16()
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("rclient: remote chdir to %q: %w", remoteCWD, errno.Decode(code))
	}
	return nil
}

// beginMsg resets the buffer and applies the current effective payload
// limit (the full capacity before negotiation has learned one).
func (s *Session) beginMsg(kind wire.Kind) error {
	s.buf.Reset()
	limit := s.effectiveLimit
	if limit <= 0 {
		limit = s.buf.Capacity()
	}
	s.buf.SetLimit(limit)
	return s.buf.BeginMsg(kind)
}

func (s *Session) sendMsg() error {
	if err := s.buf.EndMsg(); err != nil {
		return err
	}
	return wire.WriteFrame(s.w, s.buf)
}

func (s *Session) recvMsg() (wire.Kind, error) {
	kind, ok, err := wire.ReadKind(s.r)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("rclient: server closed the connection unexpectedly")
	}
	if err := wire.ReadPayload(s.r, s.buf); err != nil {
		return 0, err
	}
	return kind, nil
}

func (s *Session) sendAndRecv(expect wire.Kind) error {
	if err := s.sendMsg(); err != nil {
		return err
	}
	kind, err := s.recvMsg()
	if err != nil {
		return err
	}
	if kind != expect {
		return fmt.Errorf("rclient: expected %v reply, got %v", expect, kind)
	}
	return nil
}

// initBulkQueue lazily opens a BULKOP_BEGIN frame on the first enqueue
// since the last flush (spec §4.3 "speculative enqueue").
func (s *Session) initBulkQueue() error {
	if s.hasBulk {
		return nil
	}
	if err := s.beginMsg(wire.KindBulkopBegin); err != nil {
		return err
	}
	s.hasBulk = true
	s.enqueuedWrites = 0
	s.rets = s.rets[:0]
	return nil
}

// EnqueueDelete speculatively appends a DELETE op. It reports false
// (without error) if the op would overflow the current frame; the
// buffer is left unchanged in that case.
func (s *Session) EnqueueDelete(path string) (bool, error) {
	if err := s.initBulkQueue(); err != nil {
		return false, err
	}
	mark := s.buf.Tell()
	if err := s.appendDelete(path); err != nil {
		if err == wire.ErrBufferFull {
			s.buf.Seek(mark, io.SeekStart)
			return false, nil
		}
		return false, err
	}
	s.rets = append(s.rets, retGeneric)
	return true, nil
}

func (s *Session) appendDelete(path string) error {
	if err := s.buf.AppendU8(uint8(wire.OpDelete)); err != nil {
		return err
	}
	return s.buf.AppendString(path)
}

// EnqueueSymlink speculatively appends a SYMLINK op.
func (s *Session) EnqueueSymlink(path, target string) (bool, error) {
	if err := s.initBulkQueue(); err != nil {
		return false, err
	}
	mark := s.buf.Tell()
	if err := s.appendSymlink(path, target); err != nil {
		if err == wire.ErrBufferFull {
			s.buf.Seek(mark, io.SeekStart)
			return false, nil
		}
		return false, err
	}
	s.rets = append(s.rets, retGeneric)
	return true, nil
}

func (s *Session) appendSymlink(path, target string) error {
	if err := s.buf.AppendU8(uint8(wire.OpSymlink)); err != nil {
		return err
	}
	if err := s.buf.AppendString(path); err != nil {
		return err
	}
	return s.buf.AppendString(target)
}

// EnqueueWrite speculatively appends a WRITE op. It also reports false,
// without touching the buffer, once the open-write budget negotiated in
// REQ_LIMIT is exhausted for this bulk frame.
func (s *Session) EnqueueWrite(path string, executable bool) (bool, error) {
	if err := s.initBulkQueue(); err != nil {
		return false, err
	}
	if s.enqueuedWrites >= s.maxOpenWrites {
		return false, nil
	}
	mark := s.buf.Tell()
	if err := s.appendWrite(path, executable); err != nil {
		if err == wire.ErrBufferFull {
			s.buf.Seek(mark, io.SeekStart)
			return false, nil
		}
		return false, err
	}
	s.enqueuedWrites++
	s.rets = append(s.rets, retOpenFD)
	return true, nil
}

func (s *Session) appendWrite(path string, executable bool) error {
	if err := s.buf.AppendU8(uint8(wire.OpWrite)); err != nil {
		return err
	}
	execByte := uint8(0)
	if executable {
		execByte = 1
	}
	if err := s.buf.AppendU8(execByte); err != nil {
		return err
	}
	return s.buf.AppendString(path)
}

// OpResult is one queued op's outcome, in enqueue order.
type OpResult struct {
	Kind  retKind
	Errno error
	FD    int32 // valid, and >= 0 on success, only when Kind == retOpenFD
}

// RunBulk sends the accumulated BULKOP_BEGIN frame and parses the
// ordered BULKOP_RESULTS reply. It is a fatal error to call this with
// nothing queued.
func (s *Session) RunBulk() ([]OpResult, error) {
	if !s.hasBulk {
		return nil, fmt.Errorf("rclient: RunBulk called with no bulk operation queued")
	}
	if err := s.sendAndRecv(wire.KindBulkopResults); err != nil {
		return nil, err
	}
	s.hasBulk = false

	results := make([]OpResult, 0, len(s.rets))
	for _, k := range s.rets {
		switch k {
		case retGeneric:
			code, err := s.buf.ReadU16()
			if err != nil {
				return nil, err
			}
			results = append(results, OpResult{Kind: retGeneric, Errno: errno.Decode(code)})
		case retOpenFD:
			fd, err := s.buf.ReadI32()
			if err != nil {
				return nil, err
			}
			code, err := s.buf.ReadU16()
			if err != nil {
				return nil, err
			}
			results = append(results, OpResult{Kind: retOpenFD, FD: fd, Errno: errno.Decode(code)})
		}
	}
	s.rets = s.rets[:0]
	return results, nil
}

// UploadFile streams r's content to the open fd fd as a sequence of
// CHUNK frames sized to the effective payload budget, ending at the
// first empty read. CHUNK carries no reply (spec §4.3): the protocol's
// only fire-and-forget message, eliminating a round-trip per chunk.
func (s *Session) UploadFile(fd int32, r io.Reader) (int64, error) {
	var total int64
	for {
		if err := s.beginMsg(wire.KindChunk); err != nil {
			return total, err
		}
		if err := s.buf.AppendU32(uint32(fd)); err != nil {
			return total, err
		}
		n, err := s.buf.AppendFrom(r)
		if err != nil {
			return total, fmt.Errorf("rclient: reading local file body: %w", err)
		}
		if n == 0 {
			break
		}
		if err := s.buf.EndMsg(); err != nil {
			return total, err
		}
		if err := wire.WriteFrame(s.w, s.buf); err != nil {
			return total, err
		}
		total += int64(n)
	}
	return total, nil
}

// CloseResult is one fd's outcome from BULKOP_CLOSE.
type CloseResult struct {
	FD    int32
	Errno error
}

// Close sends BULKOP_CLOSE and parses the (fd, errno) pairs the server
// reports for every fd opened since the last BULKOP_BEGIN.
func (s *Session) Close() ([]CloseResult, error) {
	if err := s.beginMsg(wire.KindBulkopClose); err != nil {
		return nil, err
	}
	if err := s.sendAndRecv(wire.KindBulkopCloseResults); err != nil {
		return nil, err
	}
	var results []CloseResult
	for s.buf.Tell() < s.buf.Limit() {
		fd, err := s.buf.ReadI32()
		if err != nil {
			return nil, err
		}
		code, err := s.buf.ReadI16()
		if err != nil {
			return nil, err
		}
		results = append(results, CloseResult{FD: fd, Errno: errno.DecodeSigned(code)})
	}
	return results, nil
}

// Exit sends the EXIT message, which the server never replies to.
func (s *Session) Exit() error {
	if err := s.beginMsg(wire.KindExit); err != nil {
		return err
	}
	if err := s.buf.EndMsg(); err != nil {
		return err
	}
	return wire.WriteFrame(s.w, s.buf)
}
