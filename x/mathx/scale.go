package mathx

import "golang.org/x/exp/constraints"

// MulDiv returns v*num/den with integer truncation; den == 0 yields 0.
func MulDiv[T constraints.Integer](v, num, den T) T {
	if den == 0 {
		return 0
	}
	return v * num / den
}

// Window maps x in [inLo, inHi] linearly onto [0, span], clamping outside the window.
func Window[T constraints.Signed](x, inLo, inHi, span T) T {
	if inHi <= inLo {
		return 0
	}
	x = Clamp(x, inLo, inHi)
	return (x - inLo) * span / (inHi - inLo)
}
