package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	t.Parallel()

	paths := ResolvePaths("/data/app")
	primary := filepath.Join("/data/app", "proauth.db3")

	require.Equal(t, primary, paths.Primary)
	require.Equal(t, primary+"-wal", paths.WAL)
	require.Equal(t, primary+"-shm", paths.SHM)
	require.Equal(t, primary+".backup", paths.Backup)
	require.Equal(t, primary+".temp", paths.Temp)
	require.Equal(t, []string{paths.WAL, paths.SHM}, paths.Sidecars())
}
