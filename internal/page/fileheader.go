package page

import (
	"bytes"

	"noidkv/internal/bits"
	"noidkv/internal/bytesbuf"
	"noidkv/internal/kverrors"
)

// FileHeaderSize is the fixed 100-byte size of page 0's header, per
// spec §6; the rest of the page is zero-padding.
const FileHeaderSize = 100

var fileMagic = [8]byte{'n', 'o', 'i', 'd', ' ', 'v', '1', 0}

const (
	offMagic               = 0
	offPageSize             = 8
	offKeySize              = 10
	offFirstTreeHeaderPage  = 11
	offFirstFreelistPage    = 15
	offChecksum             = 19
	checksumCoveredBytes    = offChecksum // bytes [0, 19) are hashed
)

// FileHeader is the parsed, immutable view of page 0.
type FileHeader struct {
	PageSize            uint16
	KeySize             uint8
	FirstTreeHeaderPage PageNumber
	FirstFreelistPage   PageNumber
	Checksum            uint32
}

// Equal compares two headers field by field.
func (h *FileHeader) Equal(other *FileHeader) bool {
	return h.PageSize == other.PageSize &&
		h.KeySize == other.KeySize &&
		h.FirstTreeHeaderPage == other.FirstTreeHeaderPage &&
		h.FirstFreelistPage == other.FirstFreelistPage &&
		h.Checksum == other.Checksum
}

// FileHeaderBuilder builds or re-derives a FileHeader.
type FileHeaderBuilder struct {
	pageSize            uint16
	keySize             uint8
	firstTreeHeaderPage PageNumber
	firstFreelistPage   PageNumber
	fromBytes           []byte
	err                 error
}

// NewFileHeaderBuilder starts a fresh builder with engine defaults
// (4096-byte pages, 16-byte keys, no trees or freelist yet).
func NewFileHeaderBuilder() *FileHeaderBuilder {
	return &FileHeaderBuilder{pageSize: 4096, keySize: 16}
}

// FileHeaderBuilderFrom derives a new builder from an existing parsed
// header, so a caller can change e.g. FirstTreeHeaderPage and re-Build.
func FileHeaderBuilderFrom(h *FileHeader) *FileHeaderBuilder {
	return &FileHeaderBuilder{
		pageSize:            h.PageSize,
		keySize:             h.KeySize,
		firstTreeHeaderPage: h.FirstTreeHeaderPage,
		firstFreelistPage:   h.FirstFreelistPage,
	}
}

// FileHeaderBuilderFromBytes wraps a raw page-sized buffer to be
// validated (magic + checksum) when Build is called.
func FileHeaderBuilderFromBytes(buf []byte) *FileHeaderBuilder {
	return &FileHeaderBuilder{fromBytes: buf}
}

func (b *FileHeaderBuilder) WithPageSize(v uint16) *FileHeaderBuilder {
	b.pageSize = v
	return b
}

func (b *FileHeaderBuilder) WithKeySize(v uint8) *FileHeaderBuilder {
	b.keySize = v
	return b
}

func (b *FileHeaderBuilder) WithFirstTreeHeaderPage(pn PageNumber) *FileHeaderBuilder {
	b.firstTreeHeaderPage = pn
	return b
}

func (b *FileHeaderBuilder) WithFirstFreelistPage(pn PageNumber) *FileHeaderBuilder {
	b.firstFreelistPage = pn
	return b
}

// Build finalizes the header. Building from scratch/derivation rounds
// page_size up to a power of two (floored at 512) and key_size up to a
// multiple of 8, then recomputes the checksum. Building from raw bytes
// instead verifies the stored checksum and fails with InvalidFormat on
// mismatch.
func (b *FileHeaderBuilder) Build() (*FileHeader, error) {
	if b.fromBytes != nil {
		return b.buildFromBytes()
	}

	pageSize := bits.RoundUpToPowerOfTwo(b.pageSize)
	if pageSize < 512 {
		pageSize = 512
	}
	keySize := bits.RoundUpToMultipleOf8(b.keySize)

	h := &FileHeader{
		PageSize:            pageSize,
		KeySize:             keySize,
		FirstTreeHeaderPage: b.firstTreeHeaderPage,
		FirstFreelistPage:   b.firstFreelistPage,
	}
	h.Checksum = computeChecksum(h)
	return h, nil
}

func (b *FileHeaderBuilder) buildFromBytes() (*FileHeader, error) {
	if len(b.fromBytes) < FileHeaderSize {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "fileheader: buffer too short: %d", len(b.fromBytes))
	}
	buf := bytesbuf.FixedFrom(b.fromBytes[:FileHeaderSize])

	if !bytes.Equal(buf.Bytes()[offMagic:offMagic+8], fileMagic[:]) {
		return nil, kverrors.New(kverrors.InvalidFormat, "fileheader: magic mismatch")
	}

	pageSize, err := bits.ReadU16(buf, offPageSize)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "fileheader: page_size")
	}
	keySize, err := bits.ReadU8(buf, offKeySize)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "fileheader: key_size")
	}
	firstTree, err := bits.ReadU32(buf, offFirstTreeHeaderPage)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "fileheader: first_tree_header_page")
	}
	firstFree, err := bits.ReadU32(buf, offFirstFreelistPage)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "fileheader: first_freelist_page")
	}
	checksum, err := bits.ReadU32(buf, offChecksum)
	if err != nil {
		return nil, kverrors.Wrap(err, kverrors.InvalidFormat, "fileheader: checksum")
	}

	h := &FileHeader{
		PageSize:            pageSize,
		KeySize:             keySize,
		FirstTreeHeaderPage: PageNumber(firstTree),
		FirstFreelistPage:   PageNumber(firstFree),
		Checksum:            checksum,
	}
	if want := computeChecksum(h); want != checksum {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "fileheader: checksum mismatch: stored=%#x computed=%#x", checksum, want)
	}
	return h, nil
}

func computeChecksum(h *FileHeader) uint32 {
	buf := bytesbuf.NewFixed(FileHeaderSize)
	buf.CopyRange(offMagic, fileMagic[:])
	_ = bits.WriteU16(buf, offPageSize, h.PageSize)
	_ = bits.WriteU8(buf, offKeySize, h.KeySize)
	_ = bits.WriteU32(buf, offFirstTreeHeaderPage, uint32(h.FirstTreeHeaderPage))
	_ = bits.WriteU32(buf, offFirstFreelistPage, uint32(h.FirstFreelistPage))
	sum, _ := bits.FNV1a32(buf, 0, checksumCoveredBytes)
	return sum
}

// Serialize writes h into a page_size-d buffer, zero-padded after the
// 100-byte header.
func Serialize(h *FileHeader) []byte {
	out := bytesbuf.NewFixed(int(h.PageSize))
	out.CopyRange(offMagic, fileMagic[:])
	_ = bits.WriteU16(out, offPageSize, h.PageSize)
	_ = bits.WriteU8(out, offKeySize, h.KeySize)
	_ = bits.WriteU32(out, offFirstTreeHeaderPage, uint32(h.FirstTreeHeaderPage))
	_ = bits.WriteU32(out, offFirstFreelistPage, uint32(h.FirstFreelistPage))
	_ = bits.WriteU32(out, offChecksum, h.Checksum)
	return out.Bytes()
}
