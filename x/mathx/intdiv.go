package mathx

// ScaleDiv returns a*b/c with 64-bit intermediates, truncating toward zero.
// This is the scaling used for duty-register values; truncation, not
// rounding, is the contract.
func ScaleDiv[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](a, b, c T) T {
	if c == 0 {
		return 0
	}
	return T(uint64(a) * uint64(b) / uint64(c))
}

// RoundDiv returns floor((a + b/2)/b), classic rounding for positives.
func RoundDiv[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}
