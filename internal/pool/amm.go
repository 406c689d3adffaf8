package pool

import (
	sdkmath "cosmossdk.io/math"
)

// AMM is the interface presented by the underlying constant-weight market
// maker primitive. The gated pool owns its lifecycle and is the only
// component allowed to rebind balances and weights; the controller consumes
// the swap and query surface.
type AMM interface {
	// Bind registers a token at an initial balance and denormalized weight.
	Bind(caller, denom string, balance, denorm sdkmath.Int) error
	// Rebind atomically updates a bound token's balance and weight.
	Rebind(caller, denom string, balance, denorm sdkmath.Int) error

	GetBalance(denom string) (sdkmath.Int, error)
	GetDenormalizedWeight(denom string) (sdkmath.Int, error)
	GetTotalDenormalizedWeight() sdkmath.Int

	SetSwapFee(caller string, fee sdkmath.Int) error
	SetPublicSwap(caller string, enabled bool) error
	IsPublicSwap() bool

	// SwapExactAmountIn trades amountIn of tokenIn for at least minAmountOut
	// of tokenOut, and fails if the post-trade spot price exceeds maxPrice.
	SwapExactAmountIn(caller, tokenIn string, amountIn sdkmath.Int, tokenOut string, minAmountOut, maxPrice sdkmath.Int) (amountOut, spotPriceAfter sdkmath.Int, err error)

	// CalcInGivenOut quotes the input amount required to obtain amountOut of
	// tokenOut, without executing.
	CalcInGivenOut(tokenIn, tokenOut string, amountOut sdkmath.Int) (sdkmath.Int, error)
}
