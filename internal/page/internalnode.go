package page

import (
	"noidkv/internal/bits"
	"noidkv/internal/bytesbuf"
	"noidkv/internal/kverrors"
)

// internalMagic distinguishes internal-node pages on disk. Stable within
// one database file and distinct from leafMagic/freelistMagic/the tree
// type magics (spec §9 Design Notes: the numeric value isn't fixed by
// the spec, only its stability and distinctness).
var internalMagic = [2]byte{'I', 'P'}

const (
	internalHeaderSize      = 24
	internalOffMagic        = 0
	internalOffEntryCount   = 2
	internalOffLeftmostChld = 3
	internalOffEntries      = 24
	nodeEntryChildSize      = 4
)

// NodeEntry is one key/right-child pair inside an InternalNode.
type NodeEntry struct {
	Key        []byte
	RightChild PageNumber
}

// InternalNode is the parsed, immutable view of an internal B+tree page.
type InternalNode struct {
	LeftmostChild PageNumber
	Entries       []NodeEntry
}

// InternalNodeBuilder builds or re-derives an InternalNode.
type InternalNodeBuilder struct {
	pageSize      uint16
	keySize       int
	leftmostChild PageNumber
	entries       []NodeEntry
	fromBytes     []byte
	err           error
}

// NewInternalNodeBuilder starts a fresh, empty internal node builder.
func NewInternalNodeBuilder(pageSize uint16, keySize int) *InternalNodeBuilder {
	return &InternalNodeBuilder{pageSize: pageSize, keySize: keySize}
}

// InternalNodeBuilderFrom derives a builder from an existing node, to
// produce a modified copy (e.g. during a split).
func InternalNodeBuilderFrom(pageSize uint16, keySize int, n *InternalNode) *InternalNodeBuilder {
	entries := make([]NodeEntry, len(n.Entries))
	copy(entries, n.Entries)
	return &InternalNodeBuilder{
		pageSize:      pageSize,
		keySize:       keySize,
		leftmostChild: n.LeftmostChild,
		entries:       entries,
	}
}

// InternalNodeBuilderFromBytes wraps a raw page-sized buffer, validated
// when Build is called.
func InternalNodeBuilderFromBytes(pageSize uint16, keySize int, buf []byte) *InternalNodeBuilder {
	return &InternalNodeBuilder{pageSize: pageSize, keySize: keySize, fromBytes: buf}
}

func (b *InternalNodeBuilder) WithLeftmostChild(pn PageNumber) *InternalNodeBuilder {
	b.leftmostChild = pn
	return b
}

// WithEntry appends a key/right-child entry.
func (b *InternalNodeBuilder) WithEntry(key []byte, rightChild PageNumber) *InternalNodeBuilder {
	return b.WithEntryAt(key, rightChild, len(b.entries))
}

// WithEntryAt overwrites the entry at an existing slot, or appends when
// slot equals the current entry count; any other slot records an
// OutOfRange error. Exceeding capacity is reported at Build time.
func (b *InternalNodeBuilder) WithEntryAt(key []byte, rightChild PageNumber, slot int) *InternalNodeBuilder {
	if b.err != nil {
		return b
	}
	if len(key) != b.keySize {
		b.err = kverrors.Newf(kverrors.InvalidArgument, "internalnode: key length %d != configured %d", len(key), b.keySize)
		return b
	}
	k := make([]byte, len(key))
	copy(k, key)
	if slot == len(b.entries) {
		b.entries = append(b.entries, NodeEntry{Key: k, RightChild: rightChild})
		return b
	}
	if slot < 0 || slot > len(b.entries) {
		b.err = kverrors.Newf(kverrors.OutOfRange, "internalnode: slot %d out of range", slot)
		return b
	}
	b.entries[slot] = NodeEntry{Key: k, RightChild: rightChild}
	return b
}

func (b *InternalNodeBuilder) maxEntries() int {
	return MaxInternalEntries(b.pageSize, uint8(b.keySize))
}

// Build finalizes the node, enforcing the max_internal_entries capacity.
func (b *InternalNodeBuilder) Build() (*InternalNode, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.fromBytes != nil {
		return b.buildFromBytes()
	}
	if len(b.entries) > b.maxEntries() {
		return nil, kverrors.Newf(kverrors.Overflow, "internalnode: %d entries exceeds max %d", len(b.entries), b.maxEntries())
	}
	return &InternalNode{LeftmostChild: b.leftmostChild, Entries: b.entries}, nil
}

func (b *InternalNodeBuilder) buildFromBytes() (*InternalNode, error) {
	if len(b.fromBytes) < internalHeaderSize {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "internalnode: buffer too short: %d", len(b.fromBytes))
	}
	buf := bytesbuf.FixedFrom(b.fromBytes)

	magic := buf.Bytes()[internalOffMagic : internalOffMagic+2]
	if magic[0] != internalMagic[0] || magic[1] != internalMagic[1] {
		return nil, kverrors.New(kverrors.InvalidFormat, "internalnode: magic mismatch")
	}
	count, err := bits.ReadU8(buf, internalOffEntryCount)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "internalnode: entry_count")
	}
	leftmost, err := bits.ReadU32(buf, internalOffLeftmostChld)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "internalnode: leftmost_child")
	}

	entrySize := b.keySize + nodeEntryChildSize
	entries := make([]NodeEntry, 0, count)
	for i := 0; i < int(count); i++ {
		off := internalOffEntries + i*entrySize
		if off+entrySize > len(b.fromBytes) {
			return nil, kverrors.Newf(kverrors.InvalidFormat, "internalnode: entry %d exceeds page", i)
		}
		key := make([]byte, b.keySize)
		copy(key, b.fromBytes[off:off+b.keySize])
		child, _ := bits.ReadU32(buf, off+b.keySize)
		entries = append(entries, NodeEntry{Key: key, RightChild: PageNumber(child)})
	}

	return &InternalNode{LeftmostChild: PageNumber(leftmost), Entries: entries}, nil
}

// SerializeInternalNode writes n into a page_size-d buffer.
func SerializeInternalNode(n *InternalNode, pageSize uint16) []byte {
	out := bytesbuf.NewFixed(int(pageSize))
	out.CopyRange(internalOffMagic, internalMagic[:])
	_ = bits.WriteU8(out, internalOffEntryCount, uint8(len(n.Entries)))
	_ = bits.WriteU32(out, internalOffLeftmostChld, uint32(n.LeftmostChild))

	keySize := 0
	if len(n.Entries) > 0 {
		keySize = len(n.Entries[0].Key)
	}
	entrySize := keySize + nodeEntryChildSize
	for i, e := range n.Entries {
		off := internalOffEntries + i*entrySize
		out.CopyRange(off, e.Key)
		_ = bits.WriteU32(out, off+keySize, uint32(e.RightChild))
	}
	return out.Bytes()
}

// GreatestNotExceeding returns the index of the greatest entry whose key
// is <= needle, or -1 if needle is smaller than every entry's key (spec
// §4.8).
func (n *InternalNode) GreatestNotExceeding(needle []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, len(n.Entries)-1
	result := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if cmp(n.Entries[mid].Key, needle) <= 0 {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}
