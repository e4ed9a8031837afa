// Package bits provides endian-explicit little-endian integer codecs over
// byte containers, with bounds checking, plus the small padding/rounding
// helpers the page codecs lean on. It mirrors the teacher's habit
// (dbms/pager, dbms/index/btpage) of hand-rolling little-endian reads and
// writes with encoding/binary rather than leaving byte order implicit.
package bits

import (
	"encoding/binary"

	"noidkv/internal/kverrors"
)

// Buf is the minimal indexed-byte surface the codecs need. *bytesbuf.Fixed
// and *bytesbuf.Growable both satisfy it, so every ReadU*/WriteU* helper
// below works over either backing store.
type Buf interface {
	Len() int
	Bytes() []byte
}

// GrowBuf is a Buf that can extend itself instead of failing on a
// too-small write.
type GrowBuf interface {
	Buf
	Grow(n int)
}

func checkRange(buf Buf, i, n int) error {
	if i < 0 || n < 0 || i+n > buf.Len() {
		return kverrors.Newf(kverrors.OutOfRange, "bits: access [%d:%d) exceeds length %d", i, i+n, buf.Len())
	}
	return nil
}

// ReadU8 reads a single byte at i.
func ReadU8(buf Buf, i int) (uint8, error) {
	if err := checkRange(buf, i, 1); err != nil {
		return 0, err
	}
	return buf.Bytes()[i], nil
}

// WriteU8 writes a single byte at i, failing with OutOfRange if it does
// not fit. Unlike the 32- and 64-bit writers, it has no Grow variant.
func WriteU8(buf Buf, i int, v uint8) error {
	if err := checkRange(buf, i, 1); err != nil {
		return err
	}
	buf.Bytes()[i] = v
	return nil
}

// ReadU16 reads a little-endian uint16 at i.
func ReadU16(buf Buf, i int) (uint16, error) {
	if err := checkRange(buf, i, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf.Bytes()[i : i+2]), nil
}

// WriteU16 writes a little-endian uint16 at i.
func WriteU16(buf Buf, i int, v uint16) error {
	if err := checkRange(buf, i, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(buf.Bytes()[i:i+2], v)
	return nil
}

// ReadU32 reads a little-endian uint32 at i.
func ReadU32(buf Buf, i int) (uint32, error) {
	if err := checkRange(buf, i, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf.Bytes()[i : i+4]), nil
}

// WriteU32 writes a little-endian uint32 at i.
func WriteU32(buf Buf, i int, v uint32) error {
	if err := checkRange(buf, i, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf.Bytes()[i:i+4], v)
	return nil
}

// ReadU64 reads a little-endian uint64 at i.
func ReadU64(buf Buf, i int) (uint64, error) {
	if err := checkRange(buf, i, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf.Bytes()[i : i+8]), nil
}

// WriteU64 writes a little-endian uint64 at i.
func WriteU64(buf Buf, i int, v uint64) error {
	if err := checkRange(buf, i, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf.Bytes()[i:i+8], v)
	return nil
}

// WriteU32Grow writes a little-endian uint32 at i, growing buf first if
// the write would otherwise run past its end.
func WriteU32Grow(buf GrowBuf, i int, v uint32) {
	if need := i + 4; need > buf.Len() {
		buf.Grow(need)
	}
	binary.LittleEndian.PutUint32(buf.Bytes()[i:i+4], v)
}

// WriteU64Grow writes a little-endian uint64 at i, growing buf first.
func WriteU64Grow(buf GrowBuf, i int, v uint64) {
	if need := i + 8; need > buf.Len() {
		buf.Grow(need)
	}
	binary.LittleEndian.PutUint64(buf.Bytes()[i:i+8], v)
}
