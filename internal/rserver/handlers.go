package rserver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/jamestut/s2r/internal/errno"
	"github.com/jamestut/s2r/internal/rlog"
	"github.com/jamestut/s2r/internal/wire"
)

// opHandlers is the per-opcode dispatch table used inside BULKOP_BEGIN,
// the same "plain map of funcs" shape as kindHandlers.
var opHandlers = map[wire.OpType]func(*Executor) error{
	wire.OpWrite:   (*Executor).opWrite,
	wire.OpSymlink: (*Executor).opSymlink,
	wire.OpDelete:  (*Executor).opDelete,
}

func (e *Executor) handleBulkopBegin() error {
	if e.bulkActive {
		return fmt.Errorf("rserver: nested BULKOP_BEGIN: previous bulk operation not finished")
	}
	e.bulkActive = true
	for k := range e.openFDs {
		delete(e.openFDs, k)
	}

	if err := e.replyBuf.BeginMsg(wire.KindBulkopResults); err != nil {
		return err
	}
	for e.recvBuf.Tell() < e.recvBuf.Limit() {
		opByte, err := e.recvBuf.ReadU8()
		if err != nil {
			return fmt.Errorf("rserver: reading op byte: %w", err)
		}
		op := wire.OpType(opByte)
		handler, known := opHandlers[op]
		if !known {
			return fmt.Errorf("rserver: unknown opcode %v inside BULKOP_BEGIN", op)
		}
		if err := handler(e); err != nil {
			return err
		}
	}
	if err := e.replyBuf.EndMsg(); err != nil {
		return err
	}
	return e.sendReply()
}

func (e *Executor) handleBulkopClose() error {
	if err := e.replyBuf.BeginMsg(wire.KindBulkopCloseResults); err != nil {
		return err
	}
	for fd, of := range e.openFDs {
		of.f.Close()
		if err := e.replyBuf.AppendI32(int32(fd)); err != nil {
			return err
		}
		if err := e.replyBuf.AppendI16(int16(of.writeErrno)); err != nil {
			return err
		}
		delete(e.openFDs, fd)
	}
	e.bulkActive = false
	if err := e.replyBuf.EndMsg(); err != nil {
		return err
	}
	return e.sendReply()
}

func (e *Executor) handleChunk() error {
	if !e.bulkActive {
		return fmt.Errorf("rserver: CHUNK received outside a bulk operation")
	}
	fd32, err := e.recvBuf.ReadU32()
	if err != nil {
		return fmt.Errorf("rserver: reading CHUNK fd: %w", err)
	}
	fd := int(fd32)
	of, known := e.openFDs[fd]
	if !known {
		return fmt.Errorf("rserver: CHUNK for unknown fd %d", fd)
	}

	if !of.truncated {
		of.truncated = true
		if err := of.f.Truncate(0); err != nil {
			of.writeErrno = errno.Encode(err)
		}
		if _, err := of.f.Seek(0, 0); err != nil {
			of.writeErrno = errno.Encode(err)
		}
	}

	body := e.recvBuf.ReadRemaining()
	if of.writeErrno != 0 || len(body) == 0 {
		return nil
	}
	if _, err := of.f.Write(body); err != nil {
		of.writeErrno = errno.Encode(err)
	}
	return nil
}

func (e *Executor) opDelete() error {
	fn, err := e.recvBuf.ReadString()
	if err != nil {
		return fmt.Errorf("rserver: reading DELETE filename: %w", err)
	}
	rmErr := os.Remove(fn)
	if errors.Is(rmErr, os.ErrNotExist) {
		rmErr = nil // already gone: not a problem
	}
	return e.replyBuf.AppendU16(errno.Encode(rmErr))
}

func (e *Executor) opSymlink() error {
	fn, err := e.recvBuf.ReadString()
	if err != nil {
		return fmt.Errorf("rserver: reading SYMLINK filename: %w", err)
	}
	target, err := e.recvBuf.ReadString()
	if err != nil {
		return fmt.Errorf("rserver: reading SYMLINK target: %w", err)
	}

	symErr := createWithRetry(fn, func() error { return os.Symlink(target, fn) })
	return e.replyBuf.AppendU16(errno.Encode(symErr))
}

func (e *Executor) opWrite() error {
	execByte, err := e.recvBuf.ReadU8()
	if err != nil {
		return fmt.Errorf("rserver: reading WRITE executable flag: %w", err)
	}
	fn, err := e.recvBuf.ReadString()
	if err != nil {
		return fmt.Errorf("rserver: reading WRITE filename: %w", err)
	}
	executable := execByte != 0

	var f *os.File
	openErr := createWithRetry(fn, func() error {
		var openErr error
		f, openErr = os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o666)
		return openErr
	})

	fd := int32(-1)
	if openErr == nil {
		fd = int32(f.Fd())
		e.openFDs[int(fd)] = &openFile{f: f}
		if err := setExecutable(f, executable); err != nil {
			rlog.Errorf(fn, "setting mode: %v", err)
		}
	}

	if err := e.replyBuf.AppendI32(fd); err != nil {
		return err
	}
	return e.replyBuf.AppendU16(errno.Encode(openErr))
}

// createWithRetry performs fn, and if it fails because a parent
// directory is missing, creates the parent tree and retries exactly
// once (spec §4.4 CHDIR/WRITE/SYMLINK "create-parent-and-retry").
func createWithRetry(path string, fn func() error) error {
	err := fn()
	if err == nil || !errno.IsNotExist(err) {
		return err
	}
	parent := filepath.Dir(path)
	if mkErr := os.MkdirAll(parent, 0o777); mkErr != nil {
		return err
	}
	return fn()
}

// setExecutable enforces the executable bit per spec §4.4: OR in 0o111
// when executable and any bit is missing, mask it off when not and any
// bit is set, no-op otherwise.
func setExecutable(f *os.File, executable bool) error {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return err
	}
	mode := st.Mode & 0o777
	var newMode uint32
	switch {
	case executable && mode&0o111 != 0o111:
		newMode = mode | 0o111
	case !executable && mode&0o111 != 0:
		newMode = mode &^ 0o111
	default:
		return nil
	}
	return unix.Fchmod(int(f.Fd()), newMode)
}
