/*
Constant-weight pricing formulas at fixmath.ONE scale.
*/

package amm

import (
	sdkmath "cosmossdk.io/math"

	"github.com/vbtc-network/arm/internal/fixmath"
)

// calcSpotPrice returns the fee-inclusive price of tokenOut in tokenIn:
//
//	(balIn / weightIn) / (balOut / weightOut) * 1 / (1 - fee)
func calcSpotPrice(balIn, weightIn, balOut, weightOut, swapFee sdkmath.Int) (sdkmath.Int, error) {
	numer, err := fixmath.Div(balIn, weightIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	denom, err := fixmath.Div(balOut, weightOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	ratio, err := fixmath.Div(numer, denom)
	if err != nil {
		return sdkmath.Int{}, err
	}
	scale, err := fixmath.Div(fixmath.ONE, fixmath.ONE.Sub(swapFee))
	if err != nil {
		return sdkmath.Int{}, err
	}
	return fixmath.Mul(ratio, scale)
}

// calcOutGivenIn returns the output for an exact fee-adjusted input:
//
//	balOut * (1 - (balIn / (balIn + amountIn*(1-fee)))^(weightIn/weightOut))
func calcOutGivenIn(balIn, weightIn, balOut, weightOut, amountIn, swapFee sdkmath.Int) (sdkmath.Int, error) {
	weightRatio, err := fixmath.Div(weightIn, weightOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	adjustedIn, err := fixmath.Mul(amountIn, fixmath.ONE.Sub(swapFee))
	if err != nil {
		return sdkmath.Int{}, err
	}
	y, err := fixmath.Div(balIn, balIn.Add(adjustedIn))
	if err != nil {
		return sdkmath.Int{}, err
	}
	foo, err := fixmath.Pow(y, weightRatio)
	if err != nil {
		return sdkmath.Int{}, err
	}
	bar, err := fixmath.Sub(fixmath.ONE, foo)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return fixmath.Mul(balOut, bar)
}

// calcInGivenOut returns the input required for an exact output:
//
//	balIn * ((balOut / (balOut - amountOut))^(weightOut/weightIn) - 1) / (1 - fee)
func calcInGivenOut(balIn, weightIn, balOut, weightOut, amountOut, swapFee sdkmath.Int) (sdkmath.Int, error) {
	weightRatio, err := fixmath.Div(weightOut, weightIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	diff, err := fixmath.Sub(balOut, amountOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	y, err := fixmath.Div(balOut, diff)
	if err != nil {
		return sdkmath.Int{}, err
	}
	pow, err := fixmath.Pow(y, weightRatio)
	if err != nil {
		return sdkmath.Int{}, err
	}
	foo, err := fixmath.Sub(pow, fixmath.ONE)
	if err != nil {
		return sdkmath.Int{}, err
	}
	numer, err := fixmath.Mul(balIn, foo)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return fixmath.Div(numer, fixmath.ONE.Sub(swapFee))
}
