package syncer

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamestut/s2r/internal/rclient"
	"github.com/jamestut/s2r/internal/rserver"
	"github.com/jamestut/s2r/internal/snapshot"
)

func newSyncedSession(t *testing.T, root string) *rclient.Session {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	exec := rserver.NewExecutor(serverConn, serverConn)

	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	done := make(chan error, 1)
	go func() { done <- exec.Run() }()
	t.Cleanup(func() {
		clientConn.Close()
		<-done
	})

	sess, err := rclient.NewSession(clientConn, clientConn, ".")
	require.NoError(t, err)
	return sess
}

func TestRunAppliesDeletesAndUploads(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "gone.txt"), []byte("bye"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("fresh content"), 0o644))
	sess := newSyncedSession(t, root)

	plan := snapshot.Plan{
		ToDelete: []string{"gone.txt"},
		ToUpdate: map[string]snapshot.UpdateData{
			"new.txt": {Kind: snapshot.UpdateWrite, UploadBody: true},
		},
	}
	newState := snapshot.Snapshot{
		"new.txt": {Kind: snapshot.KindRegular, Executable: true},
	}

	st, err := Run(sess, plan, newState, ".")
	require.NoError(t, err)

	_, statErr := os.Lstat(filepath.Join(root, "gone.txt"))
	require.True(t, os.IsNotExist(statErr))

	data, err := os.ReadFile(filepath.Join(root, "new.txt"))
	require.NoError(t, err)
	require.Equal(t, "fresh content", string(data))
	info, err := os.Stat(filepath.Join(root, "new.txt"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode().Perm()&0o111)

	snap := st.Snapshot()
	require.EqualValues(t, 1, snap.Deletes)
	require.EqualValues(t, 1, snap.Files)
	require.EqualValues(t, 0, snap.Errors)
}

func TestRunEmptyPlanIsNoop(t *testing.T) {
	root := t.TempDir()
	sess := newSyncedSession(t, root)

	st, err := Run(sess, snapshot.Plan{}, snapshot.Snapshot{}, ".")
	require.NoError(t, err)
	snap := st.Snapshot()
	require.Zero(t, snap.Files+snap.Deletes+snap.Symlinks+snap.Errors)
}
