package page

import (
	"noidkv/internal/bits"
	"noidkv/internal/bytesbuf"
	"noidkv/internal/kverrors"
)

// freelistMagic distinguishes freelist pages on disk.
var freelistMagic = [2]byte{'F', 'L'}

const (
	freelistHeaderSize = 12
	freelistOffMagic   = 0
	freelistOffPrev    = 2
	freelistOffNext    = 6
	freelistOffCount   = 10
	freelistOffEntries = 12
	freelistEntrySize  = 4
)

// Freelist is one page of the chain of reclaimed-page lists: a run of
// free page numbers, the previous page in the chain (NullPage for the
// head), and the next page in the chain (NullPage for the tail) (spec
// §4.6).
type Freelist struct {
	Previous    PageNumber
	Next        PageNumber
	PageNumbers []PageNumber
}

// FreelistCapacity returns the number of page numbers a freelist page of
// the given size can hold: (page_size-12)/4. Scenario S7 pins this at
// 1021 for a 4096-byte page.
func FreelistCapacity(pageSize uint16) int {
	return (int(pageSize) - freelistHeaderSize) / freelistEntrySize
}

// FreelistBuilder builds or re-derives a Freelist page.
type FreelistBuilder struct {
	pageSize    uint16
	previous    PageNumber
	next        PageNumber
	pageNumbers []PageNumber
	fromBytes   []byte
	err         error
}

// NewFreelistBuilder starts a fresh, empty freelist-page builder.
func NewFreelistBuilder(pageSize uint16) *FreelistBuilder {
	return &FreelistBuilder{pageSize: pageSize}
}

// FreelistBuilderFrom derives a builder from an existing freelist page.
func FreelistBuilderFrom(pageSize uint16, f *Freelist) *FreelistBuilder {
	pns := make([]PageNumber, len(f.PageNumbers))
	copy(pns, f.PageNumbers)
	return &FreelistBuilder{pageSize: pageSize, previous: f.Previous, next: f.Next, pageNumbers: pns}
}

// FreelistBuilderFromBytes wraps a raw page-sized buffer, validated when
// Build is called.
func FreelistBuilderFromBytes(pageSize uint16, buf []byte) *FreelistBuilder {
	return &FreelistBuilder{pageSize: pageSize, fromBytes: buf}
}

func (b *FreelistBuilder) WithPrevious(pn PageNumber) *FreelistBuilder {
	b.previous = pn
	return b
}

func (b *FreelistBuilder) WithNext(pn PageNumber) *FreelistBuilder {
	b.next = pn
	return b
}

// WithPageNumber appends a reclaimed page number, reporting Overflow at
// Build time if it would exceed FreelistCapacity.
func (b *FreelistBuilder) WithPageNumber(pn PageNumber) *FreelistBuilder {
	b.pageNumbers = append(b.pageNumbers, pn)
	return b
}

func (b *FreelistBuilder) capacity() int {
	return FreelistCapacity(b.pageSize)
}

// Build finalizes the freelist page.
func (b *FreelistBuilder) Build() (*Freelist, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.fromBytes != nil {
		return b.buildFromBytes()
	}
	if len(b.pageNumbers) > b.capacity() {
		return nil, kverrors.Newf(kverrors.Overflow, "freelist: %d entries exceeds capacity %d", len(b.pageNumbers), b.capacity())
	}
	return &Freelist{Previous: b.previous, Next: b.next, PageNumbers: b.pageNumbers}, nil
}

func (b *FreelistBuilder) buildFromBytes() (*Freelist, error) {
	if len(b.fromBytes) < freelistHeaderSize {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "freelist: buffer too short: %d", len(b.fromBytes))
	}
	buf := bytesbuf.FixedFrom(b.fromBytes)

	magic := buf.Bytes()[freelistOffMagic : freelistOffMagic+2]
	if magic[0] != freelistMagic[0] || magic[1] != freelistMagic[1] {
		return nil, kverrors.New(kverrors.InvalidFormat, "freelist: magic mismatch")
	}
	prev, _ := bits.ReadU32(buf, freelistOffPrev)
	next, _ := bits.ReadU32(buf, freelistOffNext)
	count, err := bits.ReadU16(buf, freelistOffCount)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "freelist: count")
	}
	if int(count) > b.capacity() {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "freelist: stored count %d exceeds capacity %d", count, b.capacity())
	}

	pns := make([]PageNumber, 0, count)
	for i := 0; i < int(count); i++ {
		off := freelistOffEntries + i*freelistEntrySize
		v, err := bits.ReadU32(buf, off)
		if err != nil {
			return nil, kverrors.Wrapf(err, kverrors.InvalidFormat, "freelist: entry %d", i)
		}
		pns = append(pns, PageNumber(v))
	}

	return &Freelist{Previous: PageNumber(prev), Next: PageNumber(next), PageNumbers: pns}, nil
}

// SerializeFreelist writes f into a page_size-d buffer.
func SerializeFreelist(f *Freelist, pageSize uint16) []byte {
	out := bytesbuf.NewFixed(int(pageSize))
	out.CopyRange(freelistOffMagic, freelistMagic[:])
	_ = bits.WriteU32(out, freelistOffPrev, uint32(f.Previous))
	_ = bits.WriteU32(out, freelistOffNext, uint32(f.Next))
	_ = bits.WriteU16(out, freelistOffCount, uint16(len(f.PageNumbers)))
	for i, pn := range f.PageNumbers {
		off := freelistOffEntries + i*freelistEntrySize
		_ = bits.WriteU32(out, off, uint32(pn))
	}
	return out.Bytes()
}
