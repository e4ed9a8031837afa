package vfs_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/vfs"
)

func TestMemoryFileReadWrite(t *testing.T) {
	f, err := vfs.Open(afero.NewMemMapFs(), "db.noid")
	require.NoError(t, err)
	defer f.Close()

	n, err := f.WriteAt([]byte("hello"), 10)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	dst := make([]byte, 5)
	n, err = f.ReadAt(dst, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(dst))

	sz, err := f.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(15), sz)

	require.NoError(t, f.Flush())
	require.NoError(t, f.Sync())
}

func TestMemoryFileLocking(t *testing.T) {
	f, err := vfs.Open(afero.NewMemMapFs(), "db.noid")
	require.NoError(t, err)
	defer f.Close()

	g, err := f.Unique()
	require.NoError(t, err)

	_, ok, err := f.TryShared()
	require.NoError(t, err)
	assert.False(t, ok, "shared lock must not be grantable while unique is held")

	require.NoError(t, g.Unlock())

	g2, ok, err := f.TryShared()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, g2.Unlock())
}

func TestOsFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.noid")

	f, err := vfs.Open(afero.NewOsFs(), path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteAt([]byte("noidkv"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	dst := make([]byte, 6)
	_, err = f.ReadAt(dst, 0)
	require.NoError(t, err)
	assert.Equal(t, "noidkv", string(dst))

	g, err := f.Unique()
	require.NoError(t, err)
	require.NoError(t, g.Unlock())
}
