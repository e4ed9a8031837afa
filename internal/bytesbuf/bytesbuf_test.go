package bytesbuf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/bits"
	"noidkv/internal/bytesbuf"
)

func TestFixedZeroInitialized(t *testing.T) {
	f := bytesbuf.NewFixed(16)
	for _, b := range f.Bytes() {
		require.Equal(t, byte(0), b)
	}
}

func TestFixedCloneIsIndependent(t *testing.T) {
	f := bytesbuf.NewFixed(4)
	require.NoError(t, bits.WriteU32(f, 0, 7))
	clone := f.Clone()
	require.NoError(t, bits.WriteU32(f, 0, 9))
	v, err := bits.ReadU32(clone, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)
}

func TestFixedEqual(t *testing.T) {
	a := bytesbuf.NewFixed(4)
	b := bytesbuf.NewFixed(4)
	assert.True(t, a.Equal(b))
	_ = a.CopyRange(0, []byte{1, 2, 3, 4})
	assert.False(t, a.Equal(b))
}

func TestGrowableGrowsOnWrite(t *testing.T) {
	g := bytesbuf.NewGrowable()
	bits.WriteU32Grow(g, 10, 0xCAFEBABE)
	assert.Equal(t, 14, g.Len())
	v, err := bits.ReadU32(g, 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), v)
}

func TestGrowableAppend(t *testing.T) {
	g := bytesbuf.NewGrowable()
	g.Append([]byte("hello"))
	g.Append([]byte(" world"))
	assert.Equal(t, "hello world", string(g.Bytes()))
}
