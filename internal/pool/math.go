/*
Pure accounting for weight updates, joins, and exits against a two-asset
constant-weight pool.

Nothing here moves tokens or mutates state: every function is a function of
the current pool state plus explicit inputs, and the caller is responsible for
applying the implied transfers and share adjustments in the same atomic
operation. Rounding is always biased in the pool's favor.
*/

package pool

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vbtc-network/arm/internal/fixmath"
)

// WeightChange is the share and balance adjustment implied by moving a token
// from its current weight to a new one while holding price constant.
type WeightChange struct {
	// NoOp is set when the new weight equals the current weight.
	NoOp bool
	// Increase is true when weight grows: SharesDelta is minted to the caller
	// and BalanceDelta is pulled from it. When false, SharesDelta is burned
	// and BalanceDelta returned.
	Increase     bool
	SharesDelta  sdkmath.Int
	BalanceDelta sdkmath.Int
}

// ComputeWeightChange derives the proportional share and balance deltas for a
// weight move. Balance scales with weight by the pricing formula, which is
// what stops the caller from draining value by unilaterally reweighting.
func ComputeWeightChange(currentWeight, newWeight, balance, totalSupply, totalWeight sdkmath.Int) (WeightChange, error) {
	if newWeight.Equal(currentWeight) {
		return WeightChange{NoOp: true, SharesDelta: sdkmath.ZeroInt(), BalanceDelta: sdkmath.ZeroInt()}, nil
	}
	if newWeight.LT(MinWeight) || newWeight.GT(MaxWeight) {
		return WeightChange{}, fmt.Errorf("%w: weight %s outside [%s, %s]",
			ErrBounds, newWeight, MinWeight, MaxWeight)
	}

	if newWeight.LT(currentWeight) {
		deltaWeight := currentWeight.Sub(newWeight)

		sharesToBurn, err := fixmath.MulDiv(totalSupply, deltaWeight, totalWeight)
		if err != nil {
			return WeightChange{}, err
		}
		balanceOut, err := fixmath.MulDiv(balance, deltaWeight, currentWeight)
		if err != nil {
			return WeightChange{}, err
		}
		if balance.Sub(balanceOut).LT(MinBalance) {
			return WeightChange{}, fmt.Errorf("%w: resulting balance below minimum", ErrBounds)
		}
		return WeightChange{SharesDelta: sharesToBurn, BalanceDelta: balanceOut}, nil
	}

	deltaWeight := newWeight.Sub(currentWeight)
	if totalWeight.Add(deltaWeight).GT(MaxTotalWeight) {
		return WeightChange{}, fmt.Errorf("%w: total weight would exceed %s", ErrBounds, MaxTotalWeight)
	}

	balanceIn, err := fixmath.MulDiv(balance, deltaWeight, currentWeight)
	if err != nil {
		return WeightChange{}, err
	}
	sharesToMint, err := fixmath.MulDiv(totalSupply, deltaWeight, totalWeight)
	if err != nil {
		return WeightChange{}, err
	}
	return WeightChange{Increase: true, SharesDelta: sharesToMint, BalanceDelta: balanceIn}, nil
}

// JoinAmounts computes each asset's proportional input for a requested
// pool-share output. The supply -1 / balance +1 adjustments together with
// round-up division keep the rounding error in the pool's favor.
func JoinAmounts(poolAmountOut, totalSupply sdkmath.Int, balances, maxAmountsIn []sdkmath.Int) ([]sdkmath.Int, error) {
	if len(balances) != len(maxAmountsIn) {
		return nil, fmt.Errorf("%w: %d balances but %d limits", ErrBounds, len(balances), len(maxAmountsIn))
	}

	ratio, err := fixmath.DivUp(poolAmountOut, totalSupply.Sub(sdkmath.OneInt()))
	if err != nil {
		return nil, err
	}
	if ratio.IsZero() {
		return nil, fmt.Errorf("%w: join ratio rounds to zero", ErrRoundingTooCoarse)
	}

	amountsIn := make([]sdkmath.Int, len(balances))
	for i, bal := range balances {
		amountIn, err := fixmath.MulUp(ratio, bal.Add(sdkmath.OneInt()))
		if err != nil {
			return nil, err
		}
		if amountIn.IsZero() {
			return nil, fmt.Errorf("%w: asset %d input rounds to zero", ErrRoundingTooCoarse, i)
		}
		if amountIn.GT(maxAmountsIn[i]) {
			return nil, fmt.Errorf("%w: asset %d requires %s, limit %s",
				ErrSlippage, i, amountIn, maxAmountsIn[i])
		}
		amountsIn[i] = amountIn
	}
	return amountsIn, nil
}

// ExitAmounts computes each asset's proportional output for a surrendered
// pool-share amount, net of the exit fee. Symmetric to JoinAmounts with the
// rounding bias reversed (+1 supply, -1 balances).
func ExitAmounts(poolAmountIn, totalSupply sdkmath.Int, balances, minAmountsOut []sdkmath.Int) ([]sdkmath.Int, sdkmath.Int, error) {
	if len(balances) != len(minAmountsOut) {
		return nil, sdkmath.Int{}, fmt.Errorf("%w: %d balances but %d limits", ErrBounds, len(balances), len(minAmountsOut))
	}

	exitFee, err := fixmath.Mul(poolAmountIn, ExitFee)
	if err != nil {
		return nil, sdkmath.Int{}, err
	}
	netShares := poolAmountIn.Sub(exitFee)

	ratio, err := fixmath.Div(netShares, totalSupply.Add(sdkmath.OneInt()))
	if err != nil {
		return nil, sdkmath.Int{}, err
	}
	if ratio.IsZero() {
		return nil, sdkmath.Int{}, fmt.Errorf("%w: exit ratio rounds to zero", ErrRoundingTooCoarse)
	}

	amountsOut := make([]sdkmath.Int, len(balances))
	for i, bal := range balances {
		amountOut, err := fixmath.Mul(ratio, bal.Sub(sdkmath.OneInt()))
		if err != nil {
			return nil, sdkmath.Int{}, err
		}
		if amountOut.IsZero() {
			return nil, sdkmath.Int{}, fmt.Errorf("%w: asset %d output rounds to zero", ErrRoundingTooCoarse, i)
		}
		if amountOut.LT(minAmountsOut[i]) {
			return nil, sdkmath.Int{}, fmt.Errorf("%w: asset %d yields %s, floor %s",
				ErrSlippage, i, amountOut, minAmountsOut[i])
		}
		amountsOut[i] = amountOut
	}
	return amountsOut, exitFee, nil
}
