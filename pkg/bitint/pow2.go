// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used to validate and size
FFT windows. Everything here is allocation free and constant time, so the
functions are safe to call from the capture callback.

	size := bitint.NextPowerOfTwo(1000) // 1024
	ok := bitint.IsPowerOfTwo(size)     // true
	stages := bitint.Log2(size)         // 10 radix-2 butterfly stages

NextPowerOfTwo subtracts one before taking the bit length so an exact power
of two maps to itself: for 8, bits.Len(7) = 3 and 1<<3 = 8. Without the
subtraction bits.Len(8) = 4 and the input would be doubled.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size.
// Zero and negative sizes return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// PrevPowerOfTwo returns the largest power of two <= size, or 0 when size
// is not positive.
func PrevPowerOfTwo(size int) int {
	if size <= 0 {
		return 0
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has exactly one bit set, so n&(n-1) clears it to zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns log2(n) for a power of two n, i.e. the number of radix-2
// stages in an n-point FFT. It returns -1 when n is not a power of two.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
