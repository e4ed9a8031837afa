package bits

// RoundUpToPowerOfTwo clamps v into [2, 2^15] and rounds up to the next
// power of two. Used to sanitize a requested page size (spec §4.1).
func RoundUpToPowerOfTwo(v uint16) uint16 {
	const (
		lo uint32 = 2
		hi uint32 = 1 << 15
	)
	x := uint32(v)
	if x < lo {
		x = lo
	}
	if x > hi {
		return uint16(hi)
	}
	// x is already in [2, 2^15]; round up to the next power of two.
	p := uint32(1)
	for p < x {
		p <<= 1
	}
	if p > hi {
		p = hi
	}
	return uint16(p)
}

// RoundUpToMultipleOf8 rounds v up to the next multiple of 8, saturating
// at math.MaxUint8 instead of wrapping. Used to sanitize a requested key
// size (spec §4.1).
func RoundUpToMultipleOf8(v uint8) uint8 {
	rem := v % 8
	if rem == 0 {
		return v
	}
	sum := int(v) + (8 - int(rem))
	if sum > 0xFF {
		return 0xFF
	}
	return uint8(sum)
}
