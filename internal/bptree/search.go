package bptree

// BinarySearch returns the index of needle within keys, or -1 if absent.
func BinarySearch(keys [][]byte, needle []byte, cmp CompareFunc) int {
	lo, hi := 0, len(keys)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch c := cmp(keys[mid], needle); {
		case c == 0:
			return mid
		case c < 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1
}

// GreatestNotExceeding returns the index of the greatest key <= needle,
// or -1 if needle is smaller than every key.
func GreatestNotExceeding(keys [][]byte, needle []byte, cmp CompareFunc) int {
	lo, hi := 0, len(keys)-1
	result := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if cmp(keys[mid], needle) <= 0 {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}

// NextLargest returns the index of the smallest key strictly greater
// than needle, or -1 if none. A key equal to needle does not count as
// larger.
func NextLargest(keys [][]byte, needle []byte, cmp CompareFunc) int {
	lo, hi := 0, len(keys)-1
	result := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if cmp(keys[mid], needle) > 0 {
			result = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return result
}
