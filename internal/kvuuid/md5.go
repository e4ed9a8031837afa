// Package kvuuid implements the hash/identity utilities from spec §4.9:
// a hand-rolled MD5 block transform (the source's "MD5 context as
// mutable buffer of fixed arrays" pattern, spec §9 Design Notes) and the
// name-UUID (v3-compatible) / random-UUID (v4) factories built on top of
// it, grounded on original_source/src/backend/MD5.{h,cc} and UUID.{h,cc}.
package kvuuid

import "encoding/binary"

const blockSize = 64

// digest is MD5's running state: four 32-bit words plus the block
// buffer and the total message length, mirroring the original's
// mutable-fixed-array context rather than a byte-slice accumulator.
type digest struct {
	a, b, c, d uint32
	buf        [blockSize]byte
	buflen     int
	length     uint64
}

var initState = [4]uint32{0x67452301, 0xefcdab89, 0x98badcfe, 0x10325476}

// shiftAmounts is the per-round left-rotate amount, indexed by block
// position (RFC 1321 Appendix A.3).
var shiftAmounts = [64]uint32{
	7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22,
	5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20,
	4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23,
	6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21,
}

// sineTable is floor(abs(sin(i+1)) * 2^32), the per-round additive
// constant (RFC 1321 Appendix A.3).
var sineTable = [64]uint32{
	0xd76aa478, 0xe8c7b756, 0x242070db, 0xc1bdceee,
	0xf57c0faf, 0x4787c62a, 0xa8304613, 0xfd469501,
	0x698098d8, 0x8b44f7af, 0xffff5bb1, 0x895cd7be,
	0x6b901122, 0xfd987193, 0xa679438e, 0x49b40821,
	0xf61e2562, 0xc040b340, 0x265e5a51, 0xe9b6c7aa,
	0xd62f105d, 0x02441453, 0xd8a1e681, 0xe7d3fbc8,
	0x21e1cde6, 0xc33707d6, 0xf4d50d87, 0x455a14ed,
	0xa9e3e905, 0xfcefa3f8, 0x676f02d9, 0x8d2a4c8a,
	0xfffa3942, 0x8771f681, 0x6d9d6122, 0xfde5380c,
	0xa4beea44, 0x4bdecfa9, 0xf6bb4b60, 0xbebfbc70,
	0x289b7ec6, 0xeaa127fa, 0xd4ef3085, 0x04881d05,
	0xd9d4d039, 0xe6db99e5, 0x1fa27cf8, 0xc4ac5665,
	0xf4292244, 0x432aff97, 0xab9423a7, 0xfc93a039,
	0x655b59c3, 0x8f0ccc92, 0xffeff47d, 0x85845dd1,
	0x6fa87e4f, 0xfe2ce6e0, 0xa3014314, 0x4e0811a1,
	0xf7537e82, 0xbd3af235, 0x2ad7d2bb, 0xeb86d391,
}

func newDigest() *digest {
	d := &digest{}
	d.a, d.b, d.c, d.d = initState[0], initState[1], initState[2], initState[3]
	return d
}

func (d *digest) write(p []byte) {
	d.length += uint64(len(p))
	if d.buflen > 0 {
		n := copy(d.buf[d.buflen:], p)
		d.buflen += n
		p = p[n:]
		if d.buflen == blockSize {
			d.block(d.buf[:])
			d.buflen = 0
		}
	}
	for len(p) >= blockSize {
		d.block(p[:blockSize])
		p = p[blockSize:]
	}
	if len(p) > 0 {
		d.buflen = copy(d.buf[:], p)
	}
}

// block runs MD5's main loop over exactly one 64-byte block, per RFC
// 1321 §3.4.
func (d *digest) block(p []byte) {
	var m [16]uint32
	for i := 0; i < 16; i++ {
		m[i] = binary.LittleEndian.Uint32(p[i*4:])
	}

	a, b, c, d2 := d.a, d.b, d.c, d.d
	for i := 0; i < 64; i++ {
		var f uint32
		var g int
		switch {
		case i < 16:
			f = (b & c) | (^b & d2)
			g = i
		case i < 32:
			f = (d2 & b) | (^d2 & c)
			g = (5*i + 1) % 16
		case i < 48:
			f = b ^ c ^ d2
			g = (3*i + 5) % 16
		default:
			f = c ^ (b | ^d2)
			g = (7 * i) % 16
		}
		f += a + sineTable[i] + m[g]
		a, d2, c = d2, c, b
		b += rotl32(f, shiftAmounts[i])
	}

	d.a += a
	d.b += b
	d.c += c
	d.d += d2
}

func rotl32(x uint32, n uint32) uint32 {
	return (x << n) | (x >> (32 - n))
}

// sum finalizes the digest (length padding per RFC 1321 §3.1/§3.2) and
// returns the 16-byte MD5 hash.
func (d *digest) sum() [Size]byte {
	lengthBits := d.length * 8

	// Pad with 0x80 then zeros until length % 64 == 56, then the
	// original bit-length as a little-endian uint64.
	var pad [blockSize + 8]byte
	pad[0] = 0x80
	padLen := 56 - int(d.length%blockSize)
	if padLen <= 0 {
		padLen += blockSize
	}
	d.write(pad[:padLen])

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], lengthBits)
	d.write(lenBuf[:])

	var out [Size]byte
	binary.LittleEndian.PutUint32(out[0:4], d.a)
	binary.LittleEndian.PutUint32(out[4:8], d.b)
	binary.LittleEndian.PutUint32(out[8:12], d.c)
	binary.LittleEndian.PutUint32(out[12:16], d.d)
	return out
}

// Sum computes the MD5 digest of data in one call.
func Sum(data []byte) [Size]byte {
	d := newDigest()
	d.write(data)
	return d.sum()
}
