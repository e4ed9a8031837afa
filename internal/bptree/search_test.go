package bptree_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"noidkv/internal/bptree"
)

func bseq(vals ...byte) [][]byte {
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte{v}
	}
	return out
}

func TestNextLargestScenarioS4(t *testing.T) {
	seq := bseq(2, 5, 12, 18)
	cases := []struct {
		needle byte
		want   int
	}{
		{1, 0},
		{3, 1},
		{10, 2},
		{15, 3},
		{19, -1},
	}
	for _, c := range cases {
		got := bptree.NextLargest(seq, []byte{c.needle}, bytes.Compare)
		assert.Equal(t, c.want, got, "needle %d", c.needle)
	}
}

func TestBinarySearchFound(t *testing.T) {
	seq := bseq(2, 5, 12, 18)
	assert.Equal(t, 2, bptree.BinarySearch(seq, []byte{12}, bytes.Compare))
	assert.Equal(t, -1, bptree.BinarySearch(seq, []byte{13}, bytes.Compare))
}

func TestGreatestNotExceeding(t *testing.T) {
	seq := bseq(2, 5, 12, 18)
	assert.Equal(t, -1, bptree.GreatestNotExceeding(seq, []byte{1}, bytes.Compare))
	assert.Equal(t, 0, bptree.GreatestNotExceeding(seq, []byte{2}, bytes.Compare))
	assert.Equal(t, 1, bptree.GreatestNotExceeding(seq, []byte{10}, bytes.Compare))
	assert.Equal(t, 3, bptree.GreatestNotExceeding(seq, []byte{20}, bytes.Compare))
}
