package page

import (
	"noidkv/internal/bits"
	"noidkv/internal/bytesbuf"
	"noidkv/internal/kverrors"
)

// TreeType distinguishes a table tree (primary data, keyed by row id or
// primary key) from an index tree (secondary, keyed by indexed column).
type TreeType uint16

const (
	// TreeTypeTable ("TT" read little-endian).
	TreeTypeTable TreeType = 0x5454
	// TreeTypeIndex ("TI" read little-endian).
	TreeTypeIndex TreeType = 0x4954
)

func (t TreeType) valid() bool { return t == TreeTypeTable || t == TreeTypeIndex }

const (
	treeHeaderOffType       = 0
	treeHeaderOffMaxInt     = 2
	treeHeaderOffMaxLeaf    = 4
	treeHeaderOffRoot       = 6
	treeHeaderOffPageCount  = 10
	treeHeaderFixedPartSize = 14
)

// MaxInternalEntries returns (page_size-24)/20, the internal-node
// capacity derived from page size (spec §3).
func MaxInternalEntries(pageSize uint16, keySize uint8) int {
	entrySize := int(keySize) + 4
	return (int(pageSize) - internalHeaderSize) / entrySize
}

// MaxLeafRecords returns (page_size-24)/24, the leaf-node capacity
// derived from page size (spec §3).
func MaxLeafRecords(pageSize uint16, keySize uint8) int {
	recordSize := int(keySize) + 8
	return (int(pageSize) - leafHeaderSize) / recordSize
}

// TreeHeader is the parsed, immutable view of a tree's header page.
type TreeHeader struct {
	Type                TreeType
	MaxInternalEntries  uint16
	MaxLeafRecords      uint16
	Root                PageNumber
	PageCount           uint32
}

// TreeHeaderBuilder builds or re-derives a TreeHeader. A builder derived
// From an existing header locks Type: spec §4.6 calls changing an
// existing tree's type an InvalidTransition. Root and PageCount remain
// mutable through WithRoot/WithPageCount, since spec §3 states both
// change as the tree grows.
type TreeHeaderBuilder struct {
	pageSize  uint16
	keySize   uint8
	treeType  TreeType
	root      PageNumber
	pageCount uint32
	locked    bool // true when derived From an existing header
	fromBytes []byte
	errv      error
}

// NewTreeHeaderBuilder starts a fresh builder for a new tree of the
// given type.
func NewTreeHeaderBuilder(pageSize uint16, keySize uint8, t TreeType) *TreeHeaderBuilder {
	return &TreeHeaderBuilder{pageSize: pageSize, keySize: keySize, treeType: t}
}

// TreeHeaderBuilderFrom derives a builder from an existing header,
// locking its Type.
func TreeHeaderBuilderFrom(pageSize uint16, keySize uint8, h *TreeHeader) *TreeHeaderBuilder {
	return &TreeHeaderBuilder{
		pageSize:  pageSize,
		keySize:   keySize,
		treeType:  h.Type,
		root:      h.Root,
		pageCount: h.PageCount,
		locked:    true,
	}
}

// TreeHeaderBuilderFromBytes wraps a raw page-sized buffer to be parsed
// and validated when Build is called.
func TreeHeaderBuilderFromBytes(pageSize uint16, keySize uint8, buf []byte) *TreeHeaderBuilder {
	return &TreeHeaderBuilder{pageSize: pageSize, keySize: keySize, fromBytes: buf}
}

// WithType changes the tree type; rejected with InvalidTransition on a
// builder derived from an existing header.
func (b *TreeHeaderBuilder) WithType(t TreeType) *TreeHeaderBuilder {
	if b.locked && t != b.treeType {
		b.errv = kverrors.New(kverrors.InvalidTransition, "treeheader: cannot change type of an existing tree")
		return b
	}
	b.treeType = t
	return b
}

func (b *TreeHeaderBuilder) WithRoot(pn PageNumber) *TreeHeaderBuilder {
	b.root = pn
	return b
}

func (b *TreeHeaderBuilder) WithPageCount(n uint32) *TreeHeaderBuilder {
	b.pageCount = n
	return b
}

// Build finalizes the header, recomputing max_internal_entries and
// max_leaf_records from page_size/key_size.
func (b *TreeHeaderBuilder) Build() (*TreeHeader, error) {
	if b.errv != nil {
		return nil, b.errv
	}
	if b.fromBytes != nil {
		return b.buildFromBytes()
	}
	if !b.treeType.valid() {
		return nil, kverrors.Newf(kverrors.InvalidArgument, "treeheader: unrecognized type %#x", uint16(b.treeType))
	}
	return &TreeHeader{
		Type:               b.treeType,
		MaxInternalEntries: uint16(MaxInternalEntries(b.pageSize, b.keySize)),
		MaxLeafRecords:     uint16(MaxLeafRecords(b.pageSize, b.keySize)),
		Root:               b.root,
		PageCount:          b.pageCount,
	}, nil
}

func (b *TreeHeaderBuilder) buildFromBytes() (*TreeHeader, error) {
	if len(b.fromBytes) < treeHeaderFixedPartSize {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "treeheader: buffer too short: %d", len(b.fromBytes))
	}
	buf := bytesbuf.FixedFrom(b.fromBytes)

	typ, err := bits.ReadU16(buf, treeHeaderOffType)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "treeheader: type")
	}
	t := TreeType(typ)
	if !t.valid() {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "treeheader: unrecognized type magic %#x", typ)
	}

	maxInt, _ := bits.ReadU16(buf, treeHeaderOffMaxInt)
	maxLeaf, _ := bits.ReadU16(buf, treeHeaderOffMaxLeaf)
	wantInt := uint16(MaxInternalEntries(b.pageSize, b.keySize))
	wantLeaf := uint16(MaxLeafRecords(b.pageSize, b.keySize))
	if maxInt != wantInt || maxLeaf != wantLeaf {
		return nil, kverrors.Newf(kverrors.InvalidFormat,
			"treeheader: stored capacities (%d,%d) do not match page_size-derived (%d,%d)",
			maxInt, maxLeaf, wantInt, wantLeaf)
	}

	root, _ := bits.ReadU32(buf, treeHeaderOffRoot)
	pageCount, _ := bits.ReadU32(buf, treeHeaderOffPageCount)

	return &TreeHeader{
		Type:               t,
		MaxInternalEntries: maxInt,
		MaxLeafRecords:      maxLeaf,
		Root:                PageNumber(root),
		PageCount:           pageCount,
	}, nil
}

// SerializeTreeHeader writes h into a page_size-d buffer, zero-padded
// after the 14-byte fixed part.
func SerializeTreeHeader(h *TreeHeader, pageSize uint16) []byte {
	out := bytesbuf.NewFixed(int(pageSize))
	_ = bits.WriteU16(out, treeHeaderOffType, uint16(h.Type))
	_ = bits.WriteU16(out, treeHeaderOffMaxInt, h.MaxInternalEntries)
	_ = bits.WriteU16(out, treeHeaderOffMaxLeaf, h.MaxLeafRecords)
	_ = bits.WriteU32(out, treeHeaderOffRoot, uint32(h.Root))
	_ = bits.WriteU32(out, treeHeaderOffPageCount, h.PageCount)
	return out.Bytes()
}
