// Package snapshot implements the local change-detection algorithm: a
// recursive directory scan producing a per-path record, and a pure diff
// that turns two snapshots into a minimal delete/upload plan.
package snapshot

import (
	"encoding/json"
	"fmt"
)

// Kind distinguishes the two path-record shapes the protocol knows
// about. Directories are never recorded: they exist implicitly because
// files are written into them.
type Kind uint8

const (
	KindRegular Kind = iota
	KindSymlink
)

func (k Kind) String() string {
	if k == KindSymlink {
		return "symlink"
	}
	return "regular"
}

// PathRecord is the per-entry tuple the spec's data model describes:
// kind, a kind-specific attribute (Executable for a regular file,
// Target for a symlink), and the nanosecond modification timestamp,
// the larger of the entry's ctime and mtime from a stat that does not
// follow symlinks.
type PathRecord struct {
	Kind       Kind
	Executable bool   // meaningful only when Kind == KindRegular
	Target     string // meaningful only when Kind == KindSymlink
	MtimeNs    int64
}

// Snapshot maps a forward-slash relative path (no leading "./", never
// containing the state-file name) to its PathRecord.
type Snapshot map[string]PathRecord

// jsonTuple mirrors the persisted layout in spec §6: data maps a path to
// [info, mtime_ns] where info is a string for symlinks or a bool for
// regular files.
type jsonTuple [2]any

// MarshalJSON renders the snapshot in the persisted [info, mtime_ns]
// tuple shape.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	raw := make(map[string]jsonTuple, len(s))
	for k, v := range s {
		var info any
		if v.Kind == KindSymlink {
			info = v.Target
		} else {
			info = v.Executable
		}
		raw[k] = jsonTuple{info, v.MtimeNs}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON parses the persisted [info, mtime_ns] tuple shape back
// into a Snapshot.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make(Snapshot, len(raw))
	for k, tuple := range raw {
		if len(tuple) != 2 {
			return fmt.Errorf("snapshot: entry %q has %d fields, want 2", k, len(tuple))
		}
		var mtime int64
		if err := json.Unmarshal(tuple[1], &mtime); err != nil {
			return fmt.Errorf("snapshot: entry %q has invalid mtime: %w", k, err)
		}
		var executable bool
		if err := json.Unmarshal(tuple[0], &executable); err == nil {
			result[k] = PathRecord{Kind: KindRegular, Executable: executable, MtimeNs: mtime}
			continue
		}
		var target string
		if err := json.Unmarshal(tuple[0], &target); err == nil {
			result[k] = PathRecord{Kind: KindSymlink, Target: target, MtimeNs: mtime}
			continue
		}
		return fmt.Errorf("snapshot: entry %q has neither a bool nor a string info field", k)
	}
	*s = result
	return nil
}

// UpdateKind distinguishes the two non-delete update-data shapes.
type UpdateKind uint8

const (
	UpdateSymlink UpdateKind = iota
	UpdateWrite
)

// UpdateData is the sum type `Symlink(target) | Write(upload_body)` from
// spec §3 (deletes are tracked separately, in Plan.ToDelete).
type UpdateData struct {
	Kind       UpdateKind
	Target     string // meaningful only when Kind == UpdateSymlink
	UploadBody bool   // meaningful only when Kind == UpdateWrite
}

// Plan is the derived, transient output of Diff.
type Plan struct {
	ToDelete []string
	ToUpdate map[string]UpdateData
}

// IsEmpty reports whether the plan has nothing to do.
func (p Plan) IsEmpty() bool {
	return len(p.ToDelete) == 0 && len(p.ToUpdate) == 0
}
