package page_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/page"
)

func k(b byte) []byte { return bytes.Repeat([]byte{b}, 16) }

func TestInternalNodeRoundTrip(t *testing.T) {
	n, err := page.NewInternalNodeBuilder(4096, 16).
		WithLeftmostChild(2).
		WithEntry(k(12), 3).
		WithEntry(k(15), 4).
		WithEntry(k(19), 5).
		Build()
	require.NoError(t, err)

	raw := page.SerializeInternalNode(n, 4096)
	parsed, err := page.InternalNodeBuilderFromBytes(4096, 16, raw).Build()
	require.NoError(t, err)

	assert.Equal(t, n.LeftmostChild, parsed.LeftmostChild)
	require.Len(t, parsed.Entries, 3)
	assert.Equal(t, page.PageNumber(5), parsed.Entries[2].RightChild)
}

func TestInternalNodeOverflow(t *testing.T) {
	b := page.NewInternalNodeBuilder(512, 16)
	max := page.MaxInternalEntries(512, 16)
	for i := 0; i <= max; i++ {
		key := make([]byte, 16)
		key[0] = byte(i)
		key[1] = byte(i >> 8)
		b = b.WithEntry(key, page.PageNumber(i+1))
	}
	_, err := b.Build()
	require.Error(t, err)
}

func TestInternalNodeGreatestNotExceeding(t *testing.T) {
	n, err := page.NewInternalNodeBuilder(4096, 16).
		WithEntry(k(12), 1).
		WithEntry(k(15), 2).
		WithEntry(k(19), 3).
		Build()
	require.NoError(t, err)

	cmp := bytes.Compare
	assert.Equal(t, 1, n.GreatestNotExceeding(k(17), cmp))
	assert.Equal(t, -1, n.GreatestNotExceeding(k(1), cmp))
	assert.Equal(t, 2, n.GreatestNotExceeding(k(25), cmp))
}
