package protocol

import "cmp"

// BoundedValue clamps val into [lower, upper]. A malformed range, where
// lower > upper, passes val through untouched.
func BoundedValue[T cmp.Ordered](lower, upper, val T) T {
	if lower > upper {
		return val
	}
	if val < lower {
		return lower
	}
	if val > upper {
		return upper
	}
	return val
}
