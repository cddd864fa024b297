package syncer

import (
	"fmt"
	"io"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/jamestut/s2r/internal/snapshot"
)

// RenderDryRun writes a unified-diff-shaped listing of plan to w without
// touching the session or the filesystem: deleted paths render as "-"
// lines against an empty "after" side, updated paths as "+" lines
// against an empty "before" side (spec §3 "Dry-run report").
func RenderDryRun(w io.Writer, plan snapshot.Plan) error {
	deletePaths := append([]string(nil), plan.ToDelete...)
	sort.Strings(deletePaths)
	beforeLines := make([]string, len(deletePaths))
	for i, path := range deletePaths {
		beforeLines[i] = path + "\n"
	}

	updatePaths := make([]string, 0, len(plan.ToUpdate))
	for path := range plan.ToUpdate {
		updatePaths = append(updatePaths, path)
	}
	sort.Strings(updatePaths)

	afterLines := make([]string, len(updatePaths))
	for i, path := range updatePaths {
		afterLines[i] = describeUpdate(path, plan.ToUpdate[path]) + "\n"
	}

	diff := difflib.UnifiedDiff{
		A:        beforeLines,
		B:        afterLines,
		FromFile: "remote (before)",
		ToFile:   "remote (after)",
		Context:  0,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Errorf("syncer: rendering dry-run diff: %w", err)
	}
	if text == "" {
		_, err := fmt.Fprintln(w, "(nothing to do)")
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

func describeUpdate(path string, u snapshot.UpdateData) string {
	switch u.Kind {
	case snapshot.UpdateSymlink:
		return fmt.Sprintf("%s -> %s", path, u.Target)
	case snapshot.UpdateWrite:
		if u.UploadBody {
			return path
		}
		return path + " (permission only)"
	default:
		return path
	}
}
