package rclient

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamestut/s2r/internal/rlog"
	"github.com/jamestut/s2r/internal/snapshot"
	"github.com/jamestut/s2r/internal/stats"
)

// opEntry is one op this OpQueue has handed to the Session, kept around
// so Flush can match it back up against the result in the same slot.
type opEntry struct {
	path     string
	isDelete bool
	update   snapshot.UpdateData
}

// OpQueue is the sync driver's view of a bulk operation in progress: it
// tracks what was enqueued, applies the "flush and retry exactly once"
// rule when the wire buffer or the open-write budget is exhausted, and
// drives body upload and BULKOP_CLOSE once a batch's results are in.
// Grounded on clientcomm.py's _OpQueue.
type OpQueue struct {
	sess     *Session
	stats    *stats.Stats
	baseDir  string
	enqueued []opEntry
}

// NewOpQueue builds an OpQueue driving sess, recording outcomes in st
// (which may be nil to discard them). Local paths handed to EnqueueDelete/
// EnqueueUpdate are relative to baseDir (the directory a Write op's body
// is read from on upload); pass "." when the caller has already chdir'd
// there.
func NewOpQueue(sess *Session, st *stats.Stats, baseDir string) *OpQueue {
	return &OpQueue{sess: sess, stats: st, baseDir: baseDir}
}

// EnqueueDelete queues a delete, flushing and retrying once if it does
// not fit the current bulk frame.
func (q *OpQueue) EnqueueDelete(path string) error {
	ok, err := q.sess.EnqueueDelete(path)
	if err != nil {
		return err
	}
	if !ok {
		if err := q.Flush(); err != nil {
			return err
		}
		ok, err = q.sess.EnqueueDelete(path)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("rclient: delete of %q does not fit an empty bulk frame", path)
		}
	}
	q.enqueued = append(q.enqueued, opEntry{path: path, isDelete: true})
	return nil
}

// EnqueueUpdate queues a symlink or write, flushing and retrying once on
// the same terms as EnqueueDelete.
func (q *OpQueue) EnqueueUpdate(path string, update snapshot.UpdateData, executable bool) error {
	ok, err := q.tryEnqueueUpdate(path, update, executable)
	if err != nil {
		return err
	}
	if !ok {
		if err := q.Flush(); err != nil {
			return err
		}
		ok, err = q.tryEnqueueUpdate(path, update, executable)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("rclient: update of %q does not fit an empty bulk frame", path)
		}
	}
	q.enqueued = append(q.enqueued, opEntry{path: path, update: update})
	return nil
}

func (q *OpQueue) tryEnqueueUpdate(path string, update snapshot.UpdateData, executable bool) (bool, error) {
	switch update.Kind {
	case snapshot.UpdateSymlink:
		return q.sess.EnqueueSymlink(path, update.Target)
	case snapshot.UpdateWrite:
		return q.sess.EnqueueWrite(path, executable)
	default:
		return false, fmt.Errorf("rclient: unknown update kind for %q", path)
	}
}

// pendingWrite is a WRITE op the server opened and that needs its local
// file body streamed before BULKOP_CLOSE.
type pendingWrite struct {
	fd   int32
	path string
}

// Flush runs the currently queued bulk frame to completion: send
// BULKOP_BEGIN, process results, stream bodies for every opened write,
// and send BULKOP_CLOSE. It stops at the first operation-level error
// (spec §7/§9: the source aborts on first failure mid-batch rather than
// rolling anything back) and returns it; a no-op if nothing is queued.
func (q *OpQueue) Flush() error {
	if len(q.enqueued) == 0 {
		return nil
	}

	results, err := q.sess.RunBulk()
	if err != nil {
		return err
	}
	if len(results) != len(q.enqueued) {
		return fmt.Errorf("rclient: server returned %d results for %d queued ops", len(results), len(q.enqueued))
	}

	var pending []pendingWrite
	for i, entry := range q.enqueued {
		res := results[i]
		switch {
		case entry.isDelete:
			if res.Kind != retGeneric {
				return fmt.Errorf("rclient: unexpected result shape for delete of %q", entry.path)
			}
			if res.Errno != nil {
				q.recordError(entry.path, "delete", res.Errno)
				return res.Errno
			}
			rlog.Infof(entry.path, "deleted")
			q.addDelete()

		case entry.update.Kind == snapshot.UpdateSymlink:
			if res.Kind != retGeneric {
				return fmt.Errorf("rclient: unexpected result shape for symlink at %q", entry.path)
			}
			if res.Errno != nil {
				q.recordError(entry.path, "symlink", res.Errno)
				return res.Errno
			}
			rlog.Infof(entry.path, "symlinked -> %s", entry.update.Target)
			q.addSymlink()

		case entry.update.Kind == snapshot.UpdateWrite:
			if res.Kind != retOpenFD {
				return fmt.Errorf("rclient: unexpected result shape for write at %q", entry.path)
			}
			if res.Errno != nil {
				q.recordError(entry.path, "open for write", res.Errno)
				return res.Errno
			}
			if entry.update.UploadBody {
				pending = append(pending, pendingWrite{fd: res.FD, path: entry.path})
			} else {
				rlog.Infof(entry.path, "permission updated")
			}

		default:
			return fmt.Errorf("rclient: queued op for %q has no recognizable shape", entry.path)
		}
	}

	for _, pw := range pending {
		if err := q.uploadOne(pw); err != nil {
			return err
		}
	}

	closeResults, err := q.sess.Close()
	if err != nil {
		return err
	}
	byFD := make(map[int32]string, len(pending))
	for _, pw := range pending {
		byFD[pw.fd] = pw.path
	}
	for _, cr := range closeResults {
		path, known := byFD[cr.FD]
		if !known {
			continue // permission-only open: nothing more to report
		}
		if cr.Errno != nil {
			q.recordError(path, "close", cr.Errno)
			return cr.Errno // spec §7: abort the sync run on any close error
		}
		rlog.Infof(path, "uploaded")
		q.addFile()
	}

	q.enqueued = q.enqueued[:0]
	return nil
}

func (q *OpQueue) uploadOne(pw pendingWrite) error {
	localPath := filepath.Join(q.baseDir, pw.path)
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("rclient: opening local file %q for upload: %w", localPath, err)
	}
	defer f.Close()
	n, err := q.sess.UploadFile(pw.fd, f)
	if q.stats != nil {
		q.stats.AddBytes(n)
	}
	return err
}

func (q *OpQueue) recordError(path, verb string, err error) {
	rlog.Errorf(path, "%s failed: %v", verb, err)
	if q.stats != nil {
		q.stats.AddError()
	}
}

func (q *OpQueue) addDelete() {
	if q.stats != nil {
		q.stats.AddDelete()
	}
}

func (q *OpQueue) addSymlink() {
	if q.stats != nil {
		q.stats.AddSymlink()
	}
}

func (q *OpQueue) addFile() {
	if q.stats != nil {
		q.stats.AddFile()
	}
}
