package bits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/bits"
)

func TestFNV1aKnownVectors(t *testing.T) {
	// FNV-1a 32-bit of the empty string is the offset basis.
	h, err := bits.FNV1a32(sliceBuf{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x811c9dc5), h)

	// FNV-1a("a") = 0xe40c292c is a widely cited test vector.
	h, err = bits.FNV1a32(sliceBuf("a"), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xe40c292c), h)
}

func TestFNV1aOutOfRange(t *testing.T) {
	_, err := bits.FNV1a32(sliceBuf("ab"), 1, 5)
	require.Error(t, err)
}
