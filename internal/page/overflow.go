package page

import (
	"noidkv/internal/bits"
	"noidkv/internal/bytesbuf"
	"noidkv/internal/kverrors"
)

const (
	overflowHeaderSize = 6
	overflowOffSize    = 0
	overflowOffNext    = 2
	overflowOffData    = 6
)

// Overflow is one page of a chained large-value payload: a chunk of data
// plus the page number of the next chunk, or NullPage if this is the
// last one (spec §4.6). Unlike the other page types, an overflow page
// carries no magic bytes of its own; it's only ever reached by following
// a NodeRecord's overflow pointer, which already establishes the page's
// identity.
type Overflow struct {
	Data             []byte
	NextOverflowPage PageNumber
}

// MaxOverflowData returns the largest data chunk an overflow page of the
// given size can hold: page_size - 6.
func MaxOverflowData(pageSize uint16) int {
	return int(pageSize) - overflowHeaderSize
}

// OverflowBuilder builds or re-derives an Overflow page.
type OverflowBuilder struct {
	pageSize  uint16
	data      []byte
	next      PageNumber
	fromBytes []byte
	err       error
}

// NewOverflowBuilder starts a fresh overflow-page builder.
func NewOverflowBuilder(pageSize uint16) *OverflowBuilder {
	return &OverflowBuilder{pageSize: pageSize}
}

// OverflowBuilderFromBytes wraps a raw page-sized buffer, validated when
// Build is called.
func OverflowBuilderFromBytes(pageSize uint16, buf []byte) *OverflowBuilder {
	return &OverflowBuilder{pageSize: pageSize, fromBytes: buf}
}

// WithData sets the chunk's payload, rejecting data that would not fit
// in a single page (spec: chaining, not intra-page overflow-of-overflow).
func (b *OverflowBuilder) WithData(data []byte) *OverflowBuilder {
	if len(data) > MaxOverflowData(b.pageSize) {
		b.err = kverrors.Newf(kverrors.Length, "overflow: data length %d exceeds capacity %d", len(data), MaxOverflowData(b.pageSize))
		return b
	}
	b.data = data
	return b
}

func (b *OverflowBuilder) WithNextOverflowPage(pn PageNumber) *OverflowBuilder {
	b.next = pn
	return b
}

// Build finalizes the overflow page. A zero-length payload is rejected
// with InvalidArgument — an overflow page only exists to carry data.
func (b *OverflowBuilder) Build() (*Overflow, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.fromBytes != nil {
		return b.buildFromBytes()
	}
	if len(b.data) == 0 {
		return nil, kverrors.New(kverrors.InvalidArgument, "overflow: payload_size must be nonzero")
	}
	return &Overflow{Data: b.data, NextOverflowPage: b.next}, nil
}

func (b *OverflowBuilder) buildFromBytes() (*Overflow, error) {
	if len(b.fromBytes) < overflowHeaderSize {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "overflow: buffer too short: %d", len(b.fromBytes))
	}
	buf := bytesbuf.FixedFrom(b.fromBytes)

	size, err := bits.ReadU16(buf, overflowOffSize)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "overflow: payload_size")
	}
	next, err := bits.ReadU32(buf, overflowOffNext)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "overflow: next_overflow_page")
	}

	if overflowOffData+int(size) > len(b.fromBytes) {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "overflow: payload_size %d exceeds page", size)
	}
	data := make([]byte, size)
	copy(data, b.fromBytes[overflowOffData:overflowOffData+int(size)])

	return &Overflow{Data: data, NextOverflowPage: PageNumber(next)}, nil
}

// SerializeOverflow writes o into a page_size-d buffer.
func SerializeOverflow(o *Overflow, pageSize uint16) []byte {
	out := bytesbuf.NewFixed(int(pageSize))
	_ = bits.WriteU16(out, overflowOffSize, uint16(len(o.Data)))
	_ = bits.WriteU32(out, overflowOffNext, uint32(o.NextOverflowPage))
	out.CopyRange(overflowOffData, o.Data)
	return out.Bytes()
}
