package common

import (
	"cmp"
	"encoding/binary"
	"math"
)

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp bounds v to the closed interval [lo, hi].
//
// Parameters:
//   - v: the value to bound
//   - lo: the lower bound
//   - hi: the upper bound (must be >= lo)
//
// Returns:
//   - T: lo if v < lo, hi if v > hi, otherwise v
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PutFloat32s writes vs as consecutive little-endian float32 words into buf starting at offset.
//
// Parameters:
//   - buf: the destination buffer; must hold offset+4*len(vs) bytes
//   - offset: the byte offset of the first word
//   - vs: the values to write
//
// Returns:
//   - []byte: buf, for chaining
func PutFloat32s(buf []byte, offset int, vs ...float32) []byte {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(v))
	}
	return buf
}
