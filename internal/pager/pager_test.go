package pager_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noidkv/internal/pager"
	"noidkv/internal/page"
	"noidkv/internal/vfs"
)

func openMemPager(t *testing.T) *pager.Pager {
	t.Helper()
	f, err := vfs.Open(afero.NewMemMapFs(), "/db")
	require.NoError(t, err)
	p, err := pager.Open(f, nil)
	require.NoError(t, err)
	return p
}

func TestPagerOpenInitializesDefaultHeader(t *testing.T) {
	p := openMemPager(t)
	h := p.ReadFileHeader()
	assert.Equal(t, uint16(4096), h.PageSize)
	assert.Equal(t, uint8(16), h.KeySize)
	assert.True(t, h.FirstTreeHeaderPage.IsNull())
}

func TestPagerReopenReadsExistingHeader(t *testing.T) {
	fs := afero.NewMemMapFs()
	f1, err := vfs.Open(fs, "/db")
	require.NoError(t, err)
	p1, err := pager.Open(f1, nil)
	require.NoError(t, err)

	pn, err := p1.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, f1.Close())

	f2, err := vfs.Open(fs, "/db")
	require.NoError(t, err)
	p2, err := pager.Open(f2, nil)
	require.NoError(t, err)

	assert.Equal(t, p1.ReadFileHeader().PageSize, p2.ReadFileHeader().PageSize)
	assert.Equal(t, page.PageNumber(1), pn)
}

func TestPagerInternalNodeRoundTrip(t *testing.T) {
	p := openMemPager(t)
	n, err := p.NewInternalNodeBuilder().WithLeftmostChild(2).WithEntry(k(5), 3).Build()
	require.NoError(t, err)

	pn, err := p.WriteInternalNode(n, page.NullPage)
	require.NoError(t, err)
	assert.False(t, pn.IsNull())

	got, err := p.ReadInternalNode(pn)
	require.NoError(t, err)
	assert.Equal(t, page.PageNumber(2), got.LeftmostChild)
}

func TestPagerLeafNodeRoundTrip(t *testing.T) {
	p := openMemPager(t)
	n, err := p.NewLeafNodeBuilder().WithInlineRecord(k(7), []byte{9}).Build()
	require.NoError(t, err)

	pn, err := p.WriteLeafNode(n, page.NullPage)
	require.NoError(t, err)

	got, err := p.ReadLeafNode(pn)
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
}

func TestPagerTreeHeaderRoundTrip(t *testing.T) {
	p := openMemPager(t)
	h, err := p.NewTreeHeaderBuilder(page.TreeTypeTable).WithRoot(5).Build()
	require.NoError(t, err)

	pn, err := p.WriteTreeHeader(h, page.NullPage)
	require.NoError(t, err)

	got, err := p.ReadTreeHeader(pn)
	require.NoError(t, err)
	assert.Equal(t, page.PageNumber(5), got.Root)
}

func TestPagerAllocateFreeReuse(t *testing.T) {
	p := openMemPager(t)
	pn1, err := p.AllocatePage()
	require.NoError(t, err)

	require.NoError(t, p.FreePage(pn1))

	pn2, err := p.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, pn1, pn2, "freed page should be reused before extending the file")
}

func TestPagerAllocateExtendsWhenFreelistEmpty(t *testing.T) {
	p := openMemPager(t)
	pn1, err := p.AllocatePage()
	require.NoError(t, err)
	pn2, err := p.AllocatePage()
	require.NoError(t, err)
	assert.NotEqual(t, pn1, pn2)
}

func k(b byte) []byte {
	out := make([]byte, 16)
	for i := range out {
		out[i] = b
	}
	return out
}
