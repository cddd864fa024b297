// Package syncer is the sync driver: it glues a Plan from internal/snapshot
// to a negotiated internal/rclient.Session, feeding every delete and
// update into the session's bulk queue and flushing when it fills
// (spec §4.6).
package syncer

import (
	"fmt"

	"github.com/jamestut/s2r/internal/rclient"
	"github.com/jamestut/s2r/internal/rlog"
	"github.com/jamestut/s2r/internal/snapshot"
	"github.com/jamestut/s2r/internal/stats"
)

// Run enqueues every delete in plan, then every update, against sess,
// flushing and retrying per rclient.OpQueue's rules, and runs one final
// flush once everything is queued. The executable bit for a Write
// update is looked up from newState at enqueue time rather than carried
// in the plan itself (open question 1). baseDir is the local directory
// plan's paths are relative to; a Write upload reads its body from
// baseDir joined with the path, matching how the plan's paths were
// produced by snapshot.ScanConcurrent(baseDir, ...). A non-nil error
// means the caller must not persist newState as the new snapshot: the
// remote tree and the would-be snapshot have diverged.
func Run(sess *rclient.Session, plan snapshot.Plan, newState snapshot.Snapshot, baseDir string) (*stats.Stats, error) {
	st := stats.New()
	q := rclient.NewOpQueue(sess, st, baseDir)

	for _, path := range plan.ToDelete {
		if err := q.EnqueueDelete(path); err != nil {
			return st, fmt.Errorf("syncer: deleting %q: %w", path, err)
		}
	}
	for path, update := range plan.ToUpdate {
		executable := newState[path].Executable
		if err := q.EnqueueUpdate(path, update, executable); err != nil {
			return st, fmt.Errorf("syncer: updating %q: %w", path, err)
		}
	}
	if err := q.Flush(); err != nil {
		return st, fmt.Errorf("syncer: final flush: %w", err)
	}

	rlog.Infof(nil, "sync complete: %s", st)
	return st, nil
}
