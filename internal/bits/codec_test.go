package bits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/bits"
	"noidkv/internal/kverrors"
)

type sliceBuf []byte

func (s sliceBuf) Len() int       { return len(s) }
func (s sliceBuf) Bytes() []byte { return s }

func TestU16RoundTrip(t *testing.T) {
	buf := make(sliceBuf, 4)
	require.NoError(t, bits.WriteU16(buf, 1, 0xBEEF))
	v, err := bits.ReadU16(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), v)
}

func TestU32RoundTrip(t *testing.T) {
	buf := make(sliceBuf, 8)
	require.NoError(t, bits.WriteU32(buf, 2, 0xDEADBEEF))
	v, err := bits.ReadU32(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestU64RoundTrip(t *testing.T) {
	buf := make(sliceBuf, 16)
	require.NoError(t, bits.WriteU64(buf, 4, 0x1122334455667788))
	v, err := bits.ReadU64(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122334455667788), v)
}

func TestOutOfRange(t *testing.T) {
	buf := make(sliceBuf, 2)
	_, err := bits.ReadU32(buf, 0)
	require.Error(t, err)
	assert.True(t, kverrors.Is(err, kverrors.OutOfRange))
}

func TestRoundUpToPowerOfTwo(t *testing.T) {
	cases := []struct{ in, want uint16 }{
		{0, 2},
		{1, 2},
		{2, 2},
		{3, 4},
		{4096, 4096},
		{4097, 8192},
		{1 << 15, 1 << 15},
		{0xFFFF, 1 << 15},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, bits.RoundUpToPowerOfTwo(c.in), "in=%d", c.in)
	}
}

func TestRoundUpToMultipleOf8(t *testing.T) {
	cases := []struct{ in, want uint8 }{
		{0, 0},
		{1, 8},
		{8, 8},
		{9, 16},
		{250, 0xFF},
		{255, 0xFF},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, bits.RoundUpToMultipleOf8(c.in), "in=%d", c.in)
	}
}
