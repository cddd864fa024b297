package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jamestut/s2r/internal/snapshot"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "state.json")

	st := &State{
		Command:   []string{"ssh", "host", "s2r", "server"},
		RemoteCWD: "/srv/target",
		Data: snapshot.Snapshot{
			"a.txt": {Kind: snapshot.KindRegular, Executable: true, MtimeNs: 123},
			"l":     {Kind: snapshot.KindSymlink, Target: "a.txt", MtimeNs: 456},
		},
	}
	require.NoError(t, st.Save(p))

	loaded, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, st.Command, loaded.Command)
	require.Equal(t, st.RemoteCWD, loaded.RemoteCWD)
	require.Equal(t, st.Data, loaded.Data)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "state.json")
	require.False(t, Exists(p))
	require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
	require.True(t, Exists(p))
}
