package kvuuid

import (
	"crypto/rand"
	"encoding/hex"
)

// Size is the length in bytes of a UUID.
const Size = 16

// UUID is a 16-byte Java-compatible UUID (spec §4.9): NameUUID mirrors
// java.util.UUID.nameUUIDFromBytes exactly (MD5 of the name, version
// nibble forced to 3, variant forced to IETF), and RandomUUID is a
// standard v4.
type UUID [Size]byte

// FromBytes wraps a previously created UUID's raw bytes.
func FromBytes(b [Size]byte) UUID { return UUID(b) }

// NameUUID builds a v3 UUID from the MD5 hash of name, byte-identical to
// java.util.UUID.nameUUIDFromBytes(name.getBytes()).
func NameUUID(name string) UUID {
	sum := Sum([]byte(name))
	u := UUID(sum)
	u[6] = (u[6] & 0x0f) | 0x30 // version 3: name-based (MD5)
	u[8] = (u[8] & 0x3f) | 0x80 // variant: IETF
	return u
}

// RandomUUID returns a pseudorandom v4 UUID.
func RandomUUID() UUID {
	var u UUID
	_, _ = rand.Read(u[:]) // crypto/rand.Read never errors per its doc
	u[6] = (u[6] & 0x0f) | 0x40 // version 4: random
	u[8] = (u[8] & 0x3f) | 0x80 // variant: IETF
	return u
}

// Bytes returns the UUID's raw 16 bytes.
func (u UUID) Bytes() [Size]byte { return u }

// String renders the canonical 8-4-4-4-12 hyphenated hex form.
func (u UUID) String() string {
	var buf [36]byte
	hex.Encode(buf[0:8], u[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], u[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], u[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], u[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:36], u[10:16])
	return string(buf[:])
}
