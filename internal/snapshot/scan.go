package snapshot

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Scan depth-first walks root and returns a Snapshot of every regular
// file and symlink found, excluding stateFileName when it sits at the
// root (spec §4.5, §9 "preserved-as-is quirk": a nested file sharing the
// state file's basename is kept).
func Scan(root, stateFileName string) (Snapshot, error) {
	result := make(Snapshot)
	if err := scanDir(root, ".", result); err != nil {
		return nil, err
	}
	delete(result, stateFileName)
	return result, nil
}

// ScanConcurrent fans the scan root's immediate subdirectories out over a
// bounded pool of goroutines (spec SPEC_FULL §4.5): each goroutine scans
// one top-level subtree into its own fresh Snapshot, recursing
// single-threaded from there, and the caller folds the results together.
// Top-level files are scanned inline. No Snapshot is ever shared between
// goroutines while being written.
func ScanConcurrent(root, stateFileName string) (Snapshot, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading %q: %w", root, err)
	}

	result := make(Snapshot)
	var g errgroup.Group
	g.SetLimit(max(1, runtime.GOMAXPROCS(0)))
	subResults := make([]Snapshot, len(entries))

	for i, de := range entries {
		i, de := i, de
		if !de.IsDir() || de.Type()&os.ModeSymlink != 0 {
			if err := scanEntry(root, ".", de, result); err != nil {
				return nil, err
			}
			continue
		}
		g.Go(func() error {
			sub := make(Snapshot)
			if err := scanDir(root, de.Name(), sub); err != nil {
				return err
			}
			subResults[i] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, sub := range subResults {
		for k, v := range sub {
			result[k] = v
		}
	}
	delete(result, stateFileName)
	return result, nil
}

func scanDir(root, rel string, out Snapshot) error {
	entries, err := os.ReadDir(filepath.Join(root, rel))
	if err != nil {
		return fmt.Errorf("snapshot: reading %q: %w", rel, err)
	}
	for _, de := range entries {
		if err := scanEntry(root, rel, de, out); err != nil {
			return err
		}
	}
	return nil
}

func scanEntry(root, rel string, de os.DirEntry, out Snapshot) error {
	relPath := path.Join(rel, de.Name())
	fullPath := filepath.Join(root, relPath)

	var st unix.Stat_t
	if err := unix.Lstat(fullPath, &st); err != nil {
		return fmt.Errorf("snapshot: lstat %q: %w", relPath, err)
	}

	switch st.Mode & unix.S_IFMT {
	case unix.S_IFLNK:
		target, err := os.Readlink(fullPath)
		if err != nil {
			return fmt.Errorf("snapshot: readlink %q: %w", relPath, err)
		}
		out[relPath] = PathRecord{Kind: KindSymlink, Target: target, MtimeNs: mtimeNs(&st)}
	case unix.S_IFDIR:
		return scanDir(root, relPath, out)
	case unix.S_IFREG:
		out[relPath] = PathRecord{
			Kind:       KindRegular,
			Executable: st.Mode&0o111 != 0,
			MtimeNs:    mtimeNs(&st),
		}
	default:
		// sockets, devices, fifos: not part of the sync domain, skipped.
	}
	return nil
}

// mtimeNs returns max(ctime_ns, mtime_ns) as required by spec §3 — never
// a float, always nanosecond-resolution integer arithmetic.
func mtimeNs(st *unix.Stat_t) int64 {
	ctime := int64(st.Ctim.Sec)*1e9 + int64(st.Ctim.Nsec)
	mtime := int64(st.Mtim.Sec)*1e9 + int64(st.Mtim.Nsec)
	if ctime > mtime {
		return ctime
	}
	return mtime
}
