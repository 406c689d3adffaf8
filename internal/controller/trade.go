package controller

import (
	sdkmath "cosmossdk.io/math"

	"github.com/vbtc-network/arm/internal/fixmath"
)

// feeNumerator and feeDenominator express the 0.3% taker fee charged by the
// reference market on the input amount.
const (
	feeNumerator   = 997
	feeDenominator = 1000
)

// ComputeProfitMaximizingTrade returns the direction and input amount of the
// single trade against a constant-product market (reserveA, reserveB) that
// moves its spot price exactly onto the fair price, accounting for the
// market's fee on the way in.
//
// (valueA, valueB) is an equal-value pair: valueA units of asset A are worth
// valueB units of asset B at the fair price. aToB is true when asset A should
// be sold into the market, i.e. when the market currently overprices A.
// amountIn is denominated in the input asset of the chosen direction and is
// zero when the market already sits on the fair price.
func ComputeProfitMaximizingTrade(valueA, valueB, reserveA, reserveB sdkmath.Int) (bool, sdkmath.Int, error) {
	if !reserveA.IsPositive() || !reserveB.IsPositive() {
		return false, sdkmath.ZeroInt(), fixmath.ErrDivZero
	}

	marketValue, err := fixmath.MulDiv(reserveA, valueB, reserveB)
	if err != nil {
		return false, sdkmath.ZeroInt(), err
	}
	aToB := marketValue.LT(valueA)

	invariant := reserveA.Mul(reserveB)

	valueIn, valueOut, reserveIn := valueB, valueA, reserveB
	if aToB {
		valueIn, valueOut, reserveIn = valueA, valueB, reserveA
	}

	// The price-restoring input solves a quadratic in amountIn; the closed
	// form is sqrt(invariant * valueIn * 1000 / (valueOut * 997)) minus the
	// fee-adjusted input reserve.
	radicand, err := fixmath.MulDiv(
		invariant.MulRaw(feeDenominator),
		valueIn,
		valueOut.MulRaw(feeNumerator),
	)
	if err != nil {
		return aToB, sdkmath.ZeroInt(), err
	}
	left, err := fixmath.Sqrt(radicand)
	if err != nil {
		return aToB, sdkmath.ZeroInt(), err
	}
	right := reserveIn.MulRaw(feeDenominator).QuoRaw(feeNumerator)

	if left.LTE(right) {
		return aToB, sdkmath.ZeroInt(), nil
	}
	return aToB, left.Sub(right), nil
}
