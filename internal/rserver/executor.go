// Package rserver implements the server executor: the single-threaded
// dispatch loop a helper process runs against its stdin/stdout, driven
// by the client session in internal/rclient (spec §4.4).
package rserver

import (
	"fmt"
	"io"
	"os"

	"github.com/jamestut/s2r/internal/errno"
	"github.com/jamestut/s2r/internal/rlog"
	"github.com/jamestut/s2r/internal/wire"
)

// DefaultMaxOpenWrites is the server-chosen concurrent-open-write-fd
// budget advertised in LIMIT_RESP.
const DefaultMaxOpenWrites = 200

// DefaultBufferSize is the receive buffer capacity advertised as
// max_payload in LIMIT_RESP.
const DefaultBufferSize = 1 << 20 // 1048576

// Executor runs the server side of the protocol over an arbitrary
// byte-stream pair, normally a subprocess's stdin/stdout.
type Executor struct {
	r io.Reader
	w io.Writer

	recvBuf  *wire.Buffer
	replyBuf *wire.Buffer

	maxOpenWrites uint32

	bulkActive bool
	openFDs    map[int]*openFile
}

// NewExecutor builds an Executor reading requests from r and writing
// responses to w.
func NewExecutor(r io.Reader, w io.Writer) *Executor {
	return &Executor{
		r:             r,
		w:             w,
		recvBuf:       wire.NewBuffer(DefaultBufferSize),
		replyBuf:      wire.NewBuffer(DefaultBufferSize / 2),
		maxOpenWrites: DefaultMaxOpenWrites,
		openFDs:       make(map[int]*openFile),
	}
}

// kindHandlers is the per-message dispatch table (spec §9 "Dynamic
// kind-keyed dispatch"): a plain map of funcs standing in for the
// source's dict-of-bound-methods, never a type switch pretending to be
// inheritance.
var kindHandlers = map[wire.Kind]func(*Executor) error{
	wire.KindVersion:      (*Executor).handleVersion,
	wire.KindReqLimit:     (*Executor).handleReqLimit,
	wire.KindChdir:        (*Executor).handleChdir,
	wire.KindBulkopBegin:  (*Executor).handleBulkopBegin,
	wire.KindBulkopClose:  (*Executor).handleBulkopClose,
	wire.KindChunk:        (*Executor).handleChunk,
}

// Run drives the dispatch loop until a clean EOF, EXIT message, or fatal
// protocol/transport error.
func (e *Executor) Run() error {
	for {
		kind, ok, err := wire.ReadKind(e.r)
		if err != nil {
			return fmt.Errorf("rserver: reading message kind: %w", err)
		}
		if !ok {
			return nil // clean shutdown: client closed its end
		}
		if err := wire.ReadPayload(e.r, e.recvBuf); err != nil {
			return fmt.Errorf("rserver: reading payload for %v: %w", kind, err)
		}
		if kind == wire.KindExit {
			return nil
		}

		handler, known := kindHandlers[kind]
		if !known {
			return fmt.Errorf("rserver: unknown message kind %v", kind)
		}
		e.replyBuf.SetLimit(e.replyBuf.Capacity())
		e.replyBuf.Reset()
		if err := handler(e); err != nil {
			return err
		}
	}
}

func (e *Executor) sendReply() error {
	return wire.WriteFrame(e.w, e.replyBuf)
}

func (e *Executor) handleVersion() error {
	if err := e.replyBuf.BeginMsg(wire.KindVersionResp); err != nil {
		return err
	}
	if err := e.replyBuf.AppendU32(wire.ProtocolVersion); err != nil {
		return err
	}
	if err := e.replyBuf.EndMsg(); err != nil {
		return err
	}
	return e.sendReply()
}

func (e *Executor) handleReqLimit() error {
	if err := e.replyBuf.BeginMsg(wire.KindLimitResp); err != nil {
		return err
	}
	if err := e.replyBuf.AppendU32(e.maxOpenWrites); err != nil {
		return err
	}
	if err := e.replyBuf.AppendU32(uint32(e.recvBuf.Capacity())); err != nil {
		return err
	}
	if err := e.replyBuf.EndMsg(); err != nil {
		return err
	}
	return e.sendReply()
}

func (e *Executor) handleChdir() error {
	fn := string(e.recvBuf.ReadRemaining())

	err := os.Chdir(fn)
	if errno.IsNotExist(err) {
		if mkErr := os.MkdirAll(fn, 0o777); mkErr == nil {
			err = os.Chdir(fn)
		}
	}
	if err != nil {
		rlog.Errorf(nil, "chdir %q: %v", fn, err)
	}

	if err := e.replyBuf.BeginMsg(wire.KindGenResult); err != nil {
		return err
	}
	if err := e.replyBuf.AppendU16(errno.Encode(err)); err != nil {
		return err
	}
	if err := e.replyBuf.EndMsg(); err != nil {
		return err
	}
	return e.sendReply()
}
