package rclient

import (
	"io"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamestut/s2r/internal/rserver"
	"github.com/jamestut/s2r/internal/wire"
)

// startServer wires an rserver.Executor to one end of an in-memory
// connection, chdir'd into dir, and returns the negotiated Session built
// against the other end.
func startServer(t *testing.T, dir string) *Session {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	exec := rserver.NewExecutor(serverConn, serverConn)

	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	done := make(chan error, 1)
	go func() { done <- exec.Run() }()
	t.Cleanup(func() {
		clientConn.Close()
		<-done
	})

	sess, err := NewSession(clientConn, clientConn, ".")
	require.NoError(t, err)
	return sess
}

func TestNegotiationSetsLimits(t *testing.T) {
	sess := startServer(t, t.TempDir())
	require.EqualValues(t, rserver.DefaultMaxOpenWrites, sess.maxOpenWrites)
	require.EqualValues(t, rserver.DefaultBufferSize, sess.effectiveLimit)
}

func TestNegotiationChdirsIntoSubdirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(root+"/nested", 0o777))

	serverConn, clientConn := net.Pipe()
	exec := rserver.NewExecutor(serverConn, serverConn)
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	done := make(chan error, 1)
	go func() { done <- exec.Run() }()

	_, err = NewSession(clientConn, clientConn, "nested")
	require.NoError(t, err)
	clientConn.Close()
	<-done
}

func TestEnqueueReportsBufferFullWithoutErroring(t *testing.T) {
	sess := &Session{
		r:              nil,
		w:              io.Discard,
		buf:            wire.NewBuffer(16),
		effectiveLimit: 16,
		maxOpenWrites:  10,
	}
	ok, err := sess.EnqueueDelete("a-fairly-long-path-name-that-does-not-fit.txt")
	require.NoError(t, err)
	require.False(t, ok)
}
