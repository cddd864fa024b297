package snapshot

import "sort"

// Diff is pure: it never touches the filesystem and produces the same
// Plan for the same pair of snapshots every time, per spec §4.5 and the
// rules in §3:
//
//  1. path in old only            -> delete
//  2. path in new only            -> upload (symlink or Write(true))
//  3. both regular                -> Write(true) if mtime advanced,
//                                     Write(false) if only the
//                                     executable bit flipped, else omit
//  4. kind/target/exec differ
//     in any other way            -> Symlink(new target) or Write(true)
//  5. otherwise                   -> omit
func Diff(old, new Snapshot) Plan {
	toDelete := make([]string, 0)
	for k := range old {
		if _, ok := new[k]; !ok {
			toDelete = append(toDelete, k)
		}
	}
	sort.Strings(toDelete)

	toUpdate := make(map[string]UpdateData)
	for k, nv := range new {
		ov, existed := old[k]
		if !existed {
			toUpdate[k] = newEntryUpdate(nv)
			continue
		}

		if nv.Kind == KindRegular && ov.Kind == KindRegular {
			switch {
			case nv.MtimeNs > ov.MtimeNs:
				toUpdate[k] = UpdateData{Kind: UpdateWrite, UploadBody: true}
			case nv.Executable != ov.Executable:
				toUpdate[k] = UpdateData{Kind: UpdateWrite, UploadBody: false}
			}
			continue
		}

		// At least one side is a symlink: anything other than "both
		// symlinks pointing at the same target" is a change.
		unchanged := nv.Kind == ov.Kind && nv.Kind == KindSymlink && nv.Target == ov.Target
		if !unchanged {
			toUpdate[k] = newEntryUpdate(nv)
		}
	}

	return Plan{ToDelete: toDelete, ToUpdate: toUpdate}
}

func newEntryUpdate(nv PathRecord) UpdateData {
	if nv.Kind == KindSymlink {
		return UpdateData{Kind: UpdateSymlink, Target: nv.Target}
	}
	return UpdateData{Kind: UpdateWrite, UploadBody: true}
}
