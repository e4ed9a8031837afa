package bits

import "noidkv/internal/kverrors"

const (
	fnvOffsetBasis32 uint32 = 0x811c9dc5
	fnvPrime32       uint32 = 0x01000193
)

// FNV1a32 computes the 32-bit FNV-1a hash over buf[start : start+n].
// Used for the FileHeader checksum (spec §4.9).
func FNV1a32(buf Buf, start, n int) (uint32, error) {
	if err := checkRange(buf, start, n); err != nil {
		return 0, kverrors.Wrap(err, kverrors.OutOfRange, "fnv1a")
	}
	h := fnvOffsetBasis32
	data := buf.Bytes()[start : start+n]
	for _, b := range data {
		h ^= uint32(b)
		h *= fnvPrime32
	}
	return h, nil
}
