package page

import (
	"noidkv/internal/bits"
	"noidkv/internal/bytesbuf"
	"noidkv/internal/kverrors"
)

// leafMagic distinguishes leaf-node pages on disk.
var leafMagic = [2]byte{'L', 'F'}

const (
	leafHeaderSize      = 24
	leafOffMagic        = 0
	leafOffRecordCount  = 2
	leafOffLeftSibling  = 4
	leafOffRightSibling = 8
	leafOffRecords      = 24

	// payloadSize is the width of a record's fixed 7-byte payload.
	payloadSize = 7
	// maxInlineLen is the largest value storable directly in a payload.
	maxInlineLen = 7
	// overflowPrefixLen is the width of the cached value prefix kept
	// alongside an overflow pointer.
	overflowPrefixLen = 3
)

// NodeRecord is one key/value slot inside a LeafNode: {key,
// inline_indicator, payload[7]} (spec §4.6). When InlineIndicator is in
// [1,7], the first InlineIndicator bytes of Payload are the value. When
// it is 0, the first 3 bytes of Payload are the value's prefix and the
// last 4 are the PageNumber of the first Overflow chunk; an all-zero
// record (indicator 0, payload all zero, i.e. overflow page NullPage)
// denotes an empty, unused slot.
type NodeRecord struct {
	Key             []byte
	InlineIndicator uint8
	Payload         [payloadSize]byte
}

// IsEmpty reports whether the slot is unused.
func (r *NodeRecord) IsEmpty() bool {
	return r.InlineIndicator == 0 && r.Payload == [payloadSize]byte{}
}

// IsInline reports whether the value is carried directly in Payload.
func (r *NodeRecord) IsInline() bool { return r.InlineIndicator > 0 }

// InlineValue returns the value when IsInline is true.
func (r *NodeRecord) InlineValue() []byte {
	return r.Payload[:r.InlineIndicator]
}

// OverflowPrefix returns the cached first bytes of an overflowed value.
func (r *NodeRecord) OverflowPrefix() []byte {
	return r.Payload[:overflowPrefixLen]
}

// OverflowPage returns the first page of an overflowed value's chain.
func (r *NodeRecord) OverflowPage() PageNumber {
	return PageNumber(readPayloadU32LE(r.Payload[overflowPrefixLen:]))
}

func readPayloadU32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func writePayloadU32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// newInlineRecord builds a record carrying value directly.
func newInlineRecord(key, value []byte) (NodeRecord, error) {
	if len(value) < 1 || len(value) > maxInlineLen {
		return NodeRecord{}, kverrors.Newf(kverrors.Length, "leafnode: inline value length %d outside [1,%d]", len(value), maxInlineLen)
	}
	r := NodeRecord{Key: key, InlineIndicator: uint8(len(value))}
	copy(r.Payload[:], value)
	return r, nil
}

// newOverflowRecord builds a record referencing an overflow chain, with
// prefix caching the value's first overflowPrefixLen bytes.
func newOverflowRecord(key []byte, prefix []byte, firstPage PageNumber) (NodeRecord, error) {
	if len(prefix) > overflowPrefixLen {
		return NodeRecord{}, kverrors.Newf(kverrors.Length, "leafnode: overflow prefix length %d exceeds %d", len(prefix), overflowPrefixLen)
	}
	r := NodeRecord{Key: key}
	copy(r.Payload[:overflowPrefixLen], prefix)
	writePayloadU32LE(r.Payload[overflowPrefixLen:], uint32(firstPage))
	return r, nil
}

// LeafNode is the parsed, immutable view of a leaf B+tree page.
type LeafNode struct {
	LeftSibling  PageNumber
	RightSibling PageNumber
	Records      []NodeRecord
}

// Contains performs a binary search for key, returning the matching
// record's index and true, or the insertion point and false. Empty
// slots are never produced by Build/parse (only populated records are
// kept in Records), so every entry here is live.
func (n *LeafNode) Contains(key []byte, cmp func(a, b []byte) int) (int, bool) {
	lo, hi := 0, len(n.Records)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		c := cmp(n.Records[mid].Key, key)
		switch {
		case c == 0:
			return mid, true
		case c < 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return lo, false
}

// LeafNodeBuilder builds or re-derives a LeafNode.
type LeafNodeBuilder struct {
	pageSize     uint16
	keySize      int
	leftSibling  PageNumber
	rightSibling PageNumber
	records      []NodeRecord
	fromBytes    []byte
	err          error
}

// NewLeafNodeBuilder starts a fresh, empty leaf node builder.
func NewLeafNodeBuilder(pageSize uint16, keySize int) *LeafNodeBuilder {
	return &LeafNodeBuilder{pageSize: pageSize, keySize: keySize}
}

// LeafNodeBuilderFrom derives a builder from an existing node.
func LeafNodeBuilderFrom(pageSize uint16, keySize int, n *LeafNode) *LeafNodeBuilder {
	records := make([]NodeRecord, len(n.Records))
	copy(records, n.Records)
	return &LeafNodeBuilder{
		pageSize:     pageSize,
		keySize:      keySize,
		leftSibling:  n.LeftSibling,
		rightSibling: n.RightSibling,
		records:      records,
	}
}

// LeafNodeBuilderFromBytes wraps a raw page-sized buffer, validated when
// Build is called.
func LeafNodeBuilderFromBytes(pageSize uint16, keySize int, buf []byte) *LeafNodeBuilder {
	return &LeafNodeBuilder{pageSize: pageSize, keySize: keySize, fromBytes: buf}
}

func (b *LeafNodeBuilder) WithLeftSibling(pn PageNumber) *LeafNodeBuilder {
	b.leftSibling = pn
	return b
}

func (b *LeafNodeBuilder) WithRightSibling(pn PageNumber) *LeafNodeBuilder {
	b.rightSibling = pn
	return b
}

// WithInlineRecord appends a record whose value is carried directly.
func (b *LeafNodeBuilder) WithInlineRecord(key, value []byte) *LeafNodeBuilder {
	if b.err != nil {
		return b
	}
	r, err := newInlineRecord(cloneBytes(key), value)
	if err != nil {
		b.err = err
		return b
	}
	return b.withRecord(r)
}

// WithOverflowRecord appends a record whose value lives in an overflow
// chain starting at firstPage, caching prefix (at most 3 bytes) inline.
func (b *LeafNodeBuilder) WithOverflowRecord(key []byte, prefix []byte, firstPage PageNumber) *LeafNodeBuilder {
	if b.err != nil {
		return b
	}
	r, err := newOverflowRecord(cloneBytes(key), prefix, firstPage)
	if err != nil {
		b.err = err
		return b
	}
	return b.withRecord(r)
}

func (b *LeafNodeBuilder) withRecord(r NodeRecord) *LeafNodeBuilder {
	if len(r.Key) != b.keySize {
		b.err = kverrors.Newf(kverrors.InvalidArgument, "leafnode: key length %d != configured %d", len(r.Key), b.keySize)
		return b
	}
	b.records = append(b.records, r)
	return b
}

func cloneBytes(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (b *LeafNodeBuilder) maxRecords() int {
	return MaxLeafRecords(b.pageSize, uint8(b.keySize))
}

// Build finalizes the node, enforcing the max_leaf_records capacity.
func (b *LeafNodeBuilder) Build() (*LeafNode, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.fromBytes != nil {
		return b.buildFromBytes()
	}
	if len(b.records) > b.maxRecords() {
		return nil, kverrors.Newf(kverrors.Overflow, "leafnode: %d records exceeds max %d", len(b.records), b.maxRecords())
	}
	return &LeafNode{LeftSibling: b.leftSibling, RightSibling: b.rightSibling, Records: b.records}, nil
}

func (b *LeafNodeBuilder) buildFromBytes() (*LeafNode, error) {
	if len(b.fromBytes) < leafHeaderSize {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "leafnode: buffer too short: %d", len(b.fromBytes))
	}
	buf := bytesbuf.FixedFrom(b.fromBytes)

	magic := buf.Bytes()[leafOffMagic : leafOffMagic+2]
	if magic[0] != leafMagic[0] || magic[1] != leafMagic[1] {
		return nil, kverrors.New(kverrors.InvalidFormat, "leafnode: magic mismatch")
	}
	count, err := bits.ReadU16(buf, leafOffRecordCount)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "leafnode: record_count")
	}
	left, _ := bits.ReadU32(buf, leafOffLeftSibling)
	right, _ := bits.ReadU32(buf, leafOffRightSibling)

	recordSize := b.keySize + 1 + payloadSize
	records := make([]NodeRecord, 0, count)
	for i := 0; i < int(count); i++ {
		off := leafOffRecords + i*recordSize
		if off+recordSize > len(b.fromBytes) {
			return nil, kverrors.Newf(kverrors.InvalidFormat, "leafnode: record %d exceeds page", i)
		}
		key := make([]byte, b.keySize)
		copy(key, b.fromBytes[off:off+b.keySize])
		indicator, _ := bits.ReadU8(buf, off+b.keySize)
		r := NodeRecord{Key: key, InlineIndicator: indicator}
		copy(r.Payload[:], b.fromBytes[off+b.keySize+1:off+b.keySize+1+payloadSize])
		if r.IsEmpty() {
			return nil, kverrors.Newf(kverrors.InvalidFormat, "leafnode: record %d is an empty slot within record_count", i)
		}
		records = append(records, r)
	}

	return &LeafNode{LeftSibling: PageNumber(left), RightSibling: PageNumber(right), Records: records}, nil
}

// SerializeLeafNode writes n into a page_size-d buffer.
func SerializeLeafNode(n *LeafNode, pageSize uint16) []byte {
	out := bytesbuf.NewFixed(int(pageSize))
	out.CopyRange(leafOffMagic, leafMagic[:])
	_ = bits.WriteU16(out, leafOffRecordCount, uint16(len(n.Records)))
	_ = bits.WriteU32(out, leafOffLeftSibling, uint32(n.LeftSibling))
	_ = bits.WriteU32(out, leafOffRightSibling, uint32(n.RightSibling))

	keySize := 0
	if len(n.Records) > 0 {
		keySize = len(n.Records[0].Key)
	}
	recordSize := keySize + 1 + payloadSize
	for i, r := range n.Records {
		off := leafOffRecords + i*recordSize
		out.CopyRange(off, r.Key)
		_ = bits.WriteU8(out, off+keySize, r.InlineIndicator)
		out.CopyRange(off+keySize+1, r.Payload[:])
	}
	return out.Bytes()
}
