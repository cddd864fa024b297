package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanExcludesStateFileAtRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".s2rstate.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("hi"), 0o644))

	snap, err := Scan(dir, ".s2rstate.json")
	require.NoError(t, err)
	require.NotContains(t, snap, ".s2rstate.json")
	require.Contains(t, snap, "keep.txt")
}

func TestScanNestedStateFileBasenameKept(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", ".s2rstate.json"), []byte("{}"), 0o644))

	snap, err := Scan(dir, ".s2rstate.json")
	require.NoError(t, err)
	require.Contains(t, snap, "sub/.s2rstate.json")
}

func TestScanRecordsExecutableAndSymlink(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.Symlink("run.sh", filepath.Join(dir, "link")))

	snap, err := Scan(dir, ".s2rstate.json")
	require.NoError(t, err)

	rec, ok := snap["run.sh"]
	require.True(t, ok)
	require.Equal(t, KindRegular, rec.Kind)
	require.True(t, rec.Executable)

	link, ok := snap["link"]
	require.True(t, ok)
	require.Equal(t, KindSymlink, link.Kind)
	require.Equal(t, "run.sh", link.Target)
}

func TestScanRecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b", "c.txt"), []byte("x"), 0o644))

	snap, err := Scan(dir, ".s2rstate.json")
	require.NoError(t, err)
	require.Contains(t, snap, "a/b/c.txt")
}

func TestScanConcurrentMatchesScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "x.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b", "y.txt"), []byte("y"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.txt"), []byte("z"), 0o644))

	seq, err := Scan(dir, ".s2rstate.json")
	require.NoError(t, err)
	conc, err := ScanConcurrent(dir, ".s2rstate.json")
	require.NoError(t, err)
	require.Equal(t, seq, conc)
}
