package fixmath

import (
	sdkmath "cosmossdk.io/math"
)

// Bounds and target precision for fractional exponentiation. The base must
// stay inside (0, 2*ONE) for the binomial series to converge.
var (
	MinPow       = sdkmath.NewInt(1)
	MaxPow       = ONE.MulRaw(2).SubRaw(1)
	PowPrecision = ONE.QuoRaw(10_000_000_000)
)

// subSign returns |a-b| and whether the difference is negative.
func subSign(a, b sdkmath.Int) (sdkmath.Int, bool) {
	if a.GTE(b) {
		return a.Sub(b), false
	}
	return b.Sub(a), true
}

// powInt raises base (ONE scale) to an integer exponent n by squaring.
func powInt(base sdkmath.Int, n uint64) (sdkmath.Int, error) {
	result := ONE
	acc := base
	var err error
	for n > 0 {
		if n&1 == 1 {
			result, err = Mul(result, acc)
			if err != nil {
				return sdkmath.Int{}, err
			}
		}
		n >>= 1
		if n > 0 {
			acc, err = Mul(acc, acc)
			if err != nil {
				return sdkmath.Int{}, err
			}
		}
	}
	return result, nil
}

// powApprox computes base^exp for a fractional exponent in [0, ONE) via the
// binomial series, truncated once terms fall below precision.
func powApprox(base, exp, precision sdkmath.Int) (sdkmath.Int, error) {
	if exp.IsZero() {
		return ONE, nil
	}

	x, xneg := subSign(base, ONE)
	term := ONE
	sum := term
	negative := false

	// term(k) = term(k-1) * (exp - (k-1)*ONE) * x / (k*ONE)
	for i := int64(1); term.GTE(precision); i++ {
		bigK := ONE.MulRaw(i)
		c, cneg := subSign(exp, bigK.Sub(ONE))

		t, err := Mul(term, c)
		if err != nil {
			return sdkmath.Int{}, err
		}
		t, err = Mul(t, x)
		if err != nil {
			return sdkmath.Int{}, err
		}
		term, err = Div(t, bigK)
		if err != nil {
			return sdkmath.Int{}, err
		}
		if term.IsZero() {
			break
		}

		if xneg {
			negative = !negative
		}
		if cneg {
			negative = !negative
		}
		if negative {
			sum, err = Sub(sum, term)
		} else {
			sum, err = Add(sum, term)
		}
		if err != nil {
			return sdkmath.Int{}, err
		}
	}
	return sum, nil
}

// Pow raises base to exp, both at ONE scale. The whole part of the exponent
// is handled by squaring and the remainder by series approximation.
func Pow(base, exp sdkmath.Int) (sdkmath.Int, error) {
	if base.LT(MinPow) || base.GT(MaxPow) {
		return sdkmath.Int{}, ErrPowBase
	}

	whole := exp.Quo(ONE).Mul(ONE)
	remain := exp.Sub(whole)

	wholePow, err := powInt(base, whole.Quo(ONE).Uint64())
	if err != nil {
		return sdkmath.Int{}, err
	}
	if remain.IsZero() {
		return wholePow, nil
	}

	partial, err := powApprox(base, remain, PowPrecision)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return Mul(wholePow, partial)
}
