package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffEmpty(t *testing.T) {
	p := Diff(Snapshot{}, Snapshot{})
	require.True(t, p.IsEmpty())
}

func TestDiffNewFile(t *testing.T) {
	old := Snapshot{}
	newS := Snapshot{
		"a/b.txt": {Kind: KindRegular, Executable: false, MtimeNs: 100},
	}
	p := Diff(old, newS)
	require.Empty(t, p.ToDelete)
	require.Equal(t, UpdateData{Kind: UpdateWrite, UploadBody: true}, p.ToUpdate["a/b.txt"])
}

func TestDiffDeleteAndSymlinkAdd(t *testing.T) {
	old := Snapshot{"x": {Kind: KindRegular, Executable: false, MtimeNs: 1}}
	newS := Snapshot{"x": {Kind: KindSymlink, Target: "../y", MtimeNs: 2}}
	p := Diff(old, newS)
	require.Empty(t, p.ToDelete)
	require.Equal(t, UpdateData{Kind: UpdateSymlink, Target: "../y"}, p.ToUpdate["x"])
}

func TestDiffExecutableToggleOnly(t *testing.T) {
	old := Snapshot{"s.sh": {Kind: KindRegular, Executable: false, MtimeNs: 5}}
	newS := Snapshot{"s.sh": {Kind: KindRegular, Executable: true, MtimeNs: 5}}
	p := Diff(old, newS)
	require.Equal(t, UpdateData{Kind: UpdateWrite, UploadBody: false}, p.ToUpdate["s.sh"])
}

func TestDiffNewerMtimeWins(t *testing.T) {
	old := Snapshot{"s.sh": {Kind: KindRegular, Executable: true, MtimeNs: 5}}
	newS := Snapshot{"s.sh": {Kind: KindRegular, Executable: false, MtimeNs: 6}}
	p := Diff(old, newS)
	require.Equal(t, UpdateData{Kind: UpdateWrite, UploadBody: true}, p.ToUpdate["s.sh"])
}

func TestDiffUnchangedOmitted(t *testing.T) {
	old := Snapshot{"s.sh": {Kind: KindRegular, Executable: true, MtimeNs: 5}}
	newS := Snapshot{"s.sh": {Kind: KindRegular, Executable: true, MtimeNs: 5}}
	p := Diff(old, newS)
	require.Empty(t, p.ToUpdate)
	require.Empty(t, p.ToDelete)
}

func TestDiffSymlinkTargetChanged(t *testing.T) {
	old := Snapshot{"l": {Kind: KindSymlink, Target: "a", MtimeNs: 1}}
	newS := Snapshot{"l": {Kind: KindSymlink, Target: "b", MtimeNs: 1}}
	p := Diff(old, newS)
	require.Equal(t, UpdateData{Kind: UpdateSymlink, Target: "b"}, p.ToUpdate["l"])
}

func TestDiffPureDeleteOnly(t *testing.T) {
	old := Snapshot{"gone": {Kind: KindRegular, MtimeNs: 1}}
	newS := Snapshot{}
	p := Diff(old, newS)
	require.Equal(t, []string{"gone"}, p.ToDelete)
	require.Empty(t, p.ToUpdate)
}
