package page_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/page"
)

func TestLeafNodeRoundTripInline(t *testing.T) {
	n, err := page.NewLeafNodeBuilder(4096, 16).
		WithLeftSibling(7).
		WithRightSibling(9).
		WithInlineRecord(k(1), []byte{0xAA, 0xBB}).
		WithInlineRecord(k(2), []byte{0xCC}).
		Build()
	require.NoError(t, err)

	raw := page.SerializeLeafNode(n, 4096)
	parsed, err := page.LeafNodeBuilderFromBytes(4096, 16, raw).Build()
	require.NoError(t, err)

	assert.Equal(t, page.PageNumber(7), parsed.LeftSibling)
	assert.Equal(t, page.PageNumber(9), parsed.RightSibling)
	require.Len(t, parsed.Records, 2)
	assert.True(t, parsed.Records[0].IsInline())
	assert.Equal(t, []byte{0xAA, 0xBB}, parsed.Records[0].InlineValue())
}

func TestLeafNodeRoundTripOverflow(t *testing.T) {
	n, err := page.NewLeafNodeBuilder(4096, 16).
		WithOverflowRecord(k(5), []byte{1, 2, 3}, 42).
		Build()
	require.NoError(t, err)

	raw := page.SerializeLeafNode(n, 4096)
	parsed, err := page.LeafNodeBuilderFromBytes(4096, 16, raw).Build()
	require.NoError(t, err)

	require.Len(t, parsed.Records, 1)
	assert.False(t, parsed.Records[0].IsInline())
	assert.Equal(t, page.PageNumber(42), parsed.Records[0].OverflowPage())
	assert.Equal(t, []byte{1, 2, 3}, parsed.Records[0].OverflowPrefix())
}

func TestLeafNodeInlineValueTooLong(t *testing.T) {
	_, err := page.NewLeafNodeBuilder(4096, 16).
		WithInlineRecord(k(1), []byte{1, 2, 3, 4, 5, 6, 7, 8}).
		Build()
	require.Error(t, err)
}

func TestLeafNodeInlineValueEmptyRejected(t *testing.T) {
	_, err := page.NewLeafNodeBuilder(4096, 16).
		WithInlineRecord(k(1), nil).
		Build()
	require.Error(t, err)
}

func TestLeafNodeContains(t *testing.T) {
	n, err := page.NewLeafNodeBuilder(4096, 16).
		WithInlineRecord(k(10), []byte{1}).
		WithInlineRecord(k(20), []byte{2}).
		WithInlineRecord(k(30), []byte{3}).
		Build()
	require.NoError(t, err)

	idx, found := n.Contains(k(20), func(a, b []byte) int {
		for i := range a {
			if a[i] != b[i] {
				if a[i] < b[i] {
					return -1
				}
				return 1
			}
		}
		return 0
	})
	assert.True(t, found)
	assert.Equal(t, 1, idx)
}

func TestLeafNodeCapacity(t *testing.T) {
	max := page.MaxLeafRecords(4096, 16)
	assert.Equal(t, (4096-24)/(16+8), max)
}
