package committee

// IsNonSigner reports whether validator index is flagged in bitmap. Bit i
// lives in byte i/8 at position i%8, least significant bit first. Indices
// past the end of the bitmap count as signers.
func IsNonSigner(bitmap []byte, index int) bool {
	byteIdx := index / 8
	bitIdx := uint(index % 8)
	return byteIdx < len(bitmap) && bitmap[byteIdx]&(1<<bitIdx) != 0
}

// CountNonSigners counts flagged indices among the first size validators.
func CountNonSigners(bitmap []byte, size int) int {
	count := 0
	for i := 0; i < size; i++ {
		if IsNonSigner(bitmap, i) {
			count++
		}
	}
	return count
}

// NewNonSignersBitmap builds a bitmap for a committee of size validators
// with the given indices flagged. Indices outside the committee are ignored.
func NewNonSignersBitmap(size int, nonSigners ...int) []byte {
	bits := make([]byte, (size+7)/8)
	for _, i := range nonSigners {
		if i < 0 || i >= size {
			continue
		}
		bits[i/8] |= 1 << (uint(i) % 8)
	}
	return bits
}
