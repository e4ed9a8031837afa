package filelock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/filelock"
	"noidkv/internal/osrangelock"
)

func TestUniqueExcludesShared(t *testing.T) {
	fl := filelock.New(osrangelock.NoOp{})
	g, err := fl.Unique()
	require.NoError(t, err)

	_, ok, err := fl.TryShared()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.Unlock())

	g2, ok, err := fl.TryShared()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, g2.Unlock())
}

func TestSharedAllowsMultiple(t *testing.T) {
	fl := filelock.New(osrangelock.NoOp{})
	g1, ok, err := fl.TryShared()
	require.NoError(t, err)
	require.True(t, ok)
	g2, ok, err := fl.TryShared()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, g1.Unlock())
	require.NoError(t, g2.Unlock())
}
