package pool_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbtc-network/arm/internal/fixmath"
	"github.com/vbtc-network/arm/internal/pool"
)

func ones(n int64) sdkmath.Int {
	return fixmath.ONE.MulRaw(n)
}

func TestComputeWeightChangeNoOp(t *testing.T) {
	change, err := pool.ComputeWeightChange(ones(10), ones(10), ones(100), ones(100), ones(20))
	require.NoError(t, err)
	assert.True(t, change.NoOp)
	assert.True(t, change.SharesDelta.IsZero())
	assert.True(t, change.BalanceDelta.IsZero())
}

func TestComputeWeightChangeIncrease(t *testing.T) {
	// Weight 10 -> 15 on a balance of 100 pulls 50 more tokens and mints a
	// quarter of the supply (delta 5 over total weight 20).
	change, err := pool.ComputeWeightChange(ones(10), ones(15), ones(100), ones(100), ones(20))
	require.NoError(t, err)
	assert.False(t, change.NoOp)
	assert.True(t, change.Increase)
	assert.Equal(t, ones(50).String(), change.BalanceDelta.String())
	assert.Equal(t, ones(25).String(), change.SharesDelta.String())
}

func TestComputeWeightChangeDecrease(t *testing.T) {
	change, err := pool.ComputeWeightChange(ones(10), ones(5), ones(100), ones(100), ones(20))
	require.NoError(t, err)
	assert.False(t, change.Increase)
	assert.Equal(t, ones(50).String(), change.BalanceDelta.String())
	assert.Equal(t, ones(25).String(), change.SharesDelta.String())
}

func TestComputeWeightChangeBounds(t *testing.T) {
	// Below the minimum weight.
	_, err := pool.ComputeWeightChange(ones(10), fixmath.ONE.QuoRaw(2), ones(100), ones(100), ones(20))
	assert.ErrorIs(t, err, pool.ErrBounds)

	// Above the maximum weight.
	_, err = pool.ComputeWeightChange(ones(10), ones(51), ones(100), ones(100), ones(20))
	assert.ErrorIs(t, err, pool.ErrBounds)

	// Increase that would push the total weight past its cap.
	_, err = pool.ComputeWeightChange(ones(10), ones(45), ones(100), ones(100), ones(20))
	assert.ErrorIs(t, err, pool.ErrBounds)

	// Decrease that would leave a dust balance behind.
	_, err = pool.ComputeWeightChange(ones(10), ones(1), sdkmath.NewInt(1_100_000), ones(100), ones(20))
	assert.ErrorIs(t, err, pool.ErrBounds)
}

func TestJoinAmountsBiasFavorsPool(t *testing.T) {
	balances := []sdkmath.Int{ones(100), ones(400)}
	limits := []sdkmath.Int{ones(100), ones(100)}

	amountsIn, err := pool.JoinAmounts(ones(10), ones(100), balances, limits)
	require.NoError(t, err)
	require.Len(t, amountsIn, 2)

	// With the -1/+1 adjustments the inputs never land below the exact
	// proportional amounts of 10 and 40.
	assert.True(t, amountsIn[0].GTE(ones(10)))
	assert.True(t, amountsIn[1].GTE(ones(40)))
}

func TestJoinAmountsSlippage(t *testing.T) {
	balances := []sdkmath.Int{ones(100), ones(400)}
	limits := []sdkmath.Int{ones(9), ones(100)}

	_, err := pool.JoinAmounts(ones(10), ones(100), balances, limits)
	assert.ErrorIs(t, err, pool.ErrSlippage)
}

func TestJoinAmountsRoundingTooCoarse(t *testing.T) {
	balances := []sdkmath.Int{ones(100), ones(400)}
	limits := []sdkmath.Int{ones(100), ones(100)}

	_, err := pool.JoinAmounts(sdkmath.ZeroInt(), ones(1_000_000_000).MulRaw(1_000_000_000), balances, limits)
	assert.ErrorIs(t, err, pool.ErrRoundingTooCoarse)
}

func TestExitAmountsBiasFavorsPool(t *testing.T) {
	balances := []sdkmath.Int{ones(100), ones(400)}
	floors := []sdkmath.Int{sdkmath.ZeroInt(), sdkmath.ZeroInt()}

	amountsOut, exitFee, err := pool.ExitAmounts(ones(10), ones(100), balances, floors)
	require.NoError(t, err)
	require.Len(t, amountsOut, 2)
	assert.True(t, exitFee.IsZero())

	// The +1/-1 adjustments keep the outputs strictly below the exact
	// proportional amounts.
	assert.True(t, amountsOut[0].LT(ones(10)))
	assert.True(t, amountsOut[1].LT(ones(40)))
}

func TestExitAmountsFloor(t *testing.T) {
	balances := []sdkmath.Int{ones(100), ones(400)}
	floors := []sdkmath.Int{ones(10), sdkmath.ZeroInt()}

	_, _, err := pool.ExitAmounts(ones(10), ones(100), balances, floors)
	assert.ErrorIs(t, err, pool.ErrSlippage)
}

func TestJoinExitRoundTripNeverProfits(t *testing.T) {
	balances := []sdkmath.Int{ones(100), ones(400)}
	noLimit := []sdkmath.Int{ones(1000), ones(1000)}
	noFloor := []sdkmath.Int{sdkmath.ZeroInt(), sdkmath.ZeroInt()}
	supply := ones(100)

	for _, shares := range []sdkmath.Int{ones(1), ones(10), ones(33), sdkmath.NewInt(1_234_567_890_123_456_789)} {
		amountsIn, err := pool.JoinAmounts(shares, supply, balances, noLimit)
		require.NoError(t, err)

		newBalances := []sdkmath.Int{
			balances[0].Add(amountsIn[0]),
			balances[1].Add(amountsIn[1]),
		}
		amountsOut, _, err := pool.ExitAmounts(shares, supply.Add(shares), newBalances, noFloor)
		require.NoError(t, err)

		for i := range amountsOut {
			assert.True(t, amountsOut[i].LTE(amountsIn[i]),
				"asset %d: exit %s exceeds join %s for %s shares", i, amountsOut[i], amountsIn[i], shares)
		}
	}
}

func TestJoinAmountsRoundUp(t *testing.T) {
	// An odd share amount whose truncated join would undercut the later
	// exit payout. The round-up join keeps both inputs above it.
	balances := []sdkmath.Int{ones(100), ones(400)}
	noLimit := []sdkmath.Int{ones(1000), ones(1000)}
	shares := sdkmath.NewInt(1_234_567_890_123_456_789)

	amountsIn, err := pool.JoinAmounts(shares, ones(100), balances, noLimit)
	require.NoError(t, err)
	assert.Equal(t, "1234567890123456801", amountsIn[0].String())
	assert.Equal(t, "4938271560493827201", amountsIn[1].String())
}
