package common

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

// AtLeastOne clamps a surface or texture dimension to a minimum of 1.
// Window systems report 0x0 while minimized, which GPU APIs reject.
//
// Parameters:
//   - v: the dimension to clamp
//
// Returns:
//   - uint32: v, or 1 if v is below 1
func AtLeastOne(v int) uint32 {
	if v < 1 {
		return 1
	}
	return uint32(v)
}
