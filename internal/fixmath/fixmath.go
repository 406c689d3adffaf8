/*
Deterministic fixed-point arithmetic at 10^18 scale.

All values live in the unsigned 256-bit domain of the on-chain ledger this
system settles against. Operations never panic: out-of-domain results are
reported as errors so callers can abort the enclosing operation cleanly.
*/

package fixmath

import (
	"errors"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// ONE is the fixed-point scale (10^18). A value of ONE represents 1.0.
var ONE = sdkmath.NewIntWithDecimal(1, 18)

// Error definitions for zero-tolerance error handling
var (
	ErrOverflow     = errors.New("arithmetic overflow")
	ErrUnderflow    = errors.New("arithmetic underflow")
	ErrDivZero      = errors.New("division by zero")
	ErrPowBase      = errors.New("pow base out of range")
	ErrNegativeRoot = errors.New("square root of negative value")
)

// maxValue is 2^256 - 1, the largest representable unsigned value.
var maxValue = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// checked converts a raw big.Int result back into the unsigned 256-bit domain.
func checked(raw *big.Int) (sdkmath.Int, error) {
	if raw.Sign() < 0 {
		return sdkmath.Int{}, ErrUnderflow
	}
	if raw.Cmp(maxValue) > 0 {
		return sdkmath.Int{}, ErrOverflow
	}
	return sdkmath.NewIntFromBigInt(raw), nil
}

// Add returns a + b, failing on overflow past 2^256 - 1.
func Add(a, b sdkmath.Int) (sdkmath.Int, error) {
	raw := new(big.Int).Add(a.BigInt(), b.BigInt())
	return checked(raw)
}

// Sub returns a - b, failing on underflow below zero.
func Sub(a, b sdkmath.Int) (sdkmath.Int, error) {
	raw := new(big.Int).Sub(a.BigInt(), b.BigInt())
	return checked(raw)
}

// Mul returns a * b at ONE scale, truncating toward zero.
func Mul(a, b sdkmath.Int) (sdkmath.Int, error) {
	raw := new(big.Int).Mul(a.BigInt(), b.BigInt())
	raw.Quo(raw, ONE.BigInt())
	return checked(raw)
}

// MulUp returns a * b at ONE scale, rounding any remainder up.
func MulUp(a, b sdkmath.Int) (sdkmath.Int, error) {
	raw := new(big.Int).Mul(a.BigInt(), b.BigInt())
	q, r := new(big.Int).QuoRem(raw, ONE.BigInt(), new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return checked(q)
}

// Div returns a / b at ONE scale, truncating toward zero. Fails when b is zero.
func Div(a, b sdkmath.Int) (sdkmath.Int, error) {
	if b.IsZero() {
		return sdkmath.Int{}, ErrDivZero
	}
	raw := new(big.Int).Mul(a.BigInt(), ONE.BigInt())
	raw.Quo(raw, b.BigInt())
	return checked(raw)
}

// DivUp returns a / b at ONE scale, rounding any remainder up. Fails when b
// is zero.
func DivUp(a, b sdkmath.Int) (sdkmath.Int, error) {
	if b.IsZero() {
		return sdkmath.Int{}, ErrDivZero
	}
	raw := new(big.Int).Mul(a.BigInt(), ONE.BigInt())
	q, r := new(big.Int).QuoRem(raw, b.BigInt(), new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return checked(q)
}

// MulDiv returns a * b / c without the ONE scale, truncating toward zero.
// The 512-bit intermediate product cannot overflow.
func MulDiv(a, b, c sdkmath.Int) (sdkmath.Int, error) {
	if c.IsZero() {
		return sdkmath.Int{}, ErrDivZero
	}
	raw := new(big.Int).Mul(a.BigInt(), b.BigInt())
	raw.Quo(raw, c.BigInt())
	return checked(raw)
}

// Sqrt returns the largest integer r such that r*r <= x, using Newton's
// method seeded at (x+1)/2 and iterating while the estimate strictly
// decreases. Note the result is an integer root, not a ONE-scaled root.
func Sqrt(x sdkmath.Int) (sdkmath.Int, error) {
	if x.IsNegative() {
		return sdkmath.Int{}, ErrNegativeRoot
	}
	if x.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	xb := x.BigInt()
	z := new(big.Int).Set(xb)
	y := new(big.Int).Add(xb, big.NewInt(1))
	y.Rsh(y, 1)
	for y.Cmp(z) < 0 {
		z.Set(y)
		// y = (x/y + y) / 2
		t := new(big.Int).Quo(xb, y)
		y.Add(y, t)
		y.Rsh(y, 1)
	}
	return sdkmath.NewIntFromBigInt(z), nil
}
