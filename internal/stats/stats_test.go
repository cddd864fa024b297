package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatsAccumulate(t *testing.T) {
	s := New()
	s.AddFile()
	s.AddFile()
	s.AddBytes(100)
	s.AddDelete()
	s.AddSymlink()
	s.AddError()

	sn := s.Snapshot()
	require.EqualValues(t, 2, sn.Files)
	require.EqualValues(t, 100, sn.Bytes)
	require.EqualValues(t, 1, sn.Deletes)
	require.EqualValues(t, 1, sn.Symlinks)
	require.EqualValues(t, 1, sn.Errors)
	require.NotEmpty(t, s.String())
}
