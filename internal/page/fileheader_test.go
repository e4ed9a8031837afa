package page_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/page"
)

func TestFileHeaderDefaultChecksum(t *testing.T) {
	// Scenario S5.
	h, err := page.NewFileHeaderBuilder().Build()
	require.NoError(t, err)
	assert.Equal(t, uint16(4096), h.PageSize)
	assert.Equal(t, uint8(16), h.KeySize)
	assert.Equal(t, uint32(0xa60a2358), h.Checksum)
}

func TestFileHeaderRoundTrip(t *testing.T) {
	h, err := page.NewFileHeaderBuilder().
		WithPageSize(8192).
		WithKeySize(24).
		WithFirstTreeHeaderPage(3).
		WithFirstFreelistPage(7).
		Build()
	require.NoError(t, err)

	raw := page.Serialize(h)
	parsed, err := page.FileHeaderBuilderFromBytes(raw).Build()
	require.NoError(t, err)
	assert.True(t, h.Equal(parsed))
}

func TestFileHeaderTamperInvalidatesChecksum(t *testing.T) {
	h, err := page.NewFileHeaderBuilder().Build()
	require.NoError(t, err)
	raw := page.Serialize(h)
	raw[9] ^= 0xFF // corrupt a byte inside the hashed prefix
	_, err = page.FileHeaderBuilderFromBytes(raw).Build()
	require.Error(t, err)
}

func TestFileHeaderPageSizeSanitization(t *testing.T) {
	h, err := page.NewFileHeaderBuilder().WithPageSize(100).Build()
	require.NoError(t, err)
	assert.Equal(t, uint16(512), h.PageSize)

	h, err = page.NewFileHeaderBuilder().WithPageSize(5000).Build()
	require.NoError(t, err)
	assert.Equal(t, uint16(8192), h.PageSize)
}

func TestFileHeaderKeySizeSanitization(t *testing.T) {
	h, err := page.NewFileHeaderBuilder().WithKeySize(17).Build()
	require.NoError(t, err)
	assert.Equal(t, uint8(24), h.KeySize)
}
