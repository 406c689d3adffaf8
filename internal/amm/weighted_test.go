package amm_test

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbtc-network/arm/internal/amm"
	"github.com/vbtc-network/arm/internal/fixmath"
	"github.com/vbtc-network/arm/internal/ledger"
	"github.com/vbtc-network/arm/internal/pool"
)

const (
	ctrl    = "controller"
	trader  = "trader"
	ammAddr = "amm"
	denomA  = "vbtc"
	denomB  = "weth"
)

func ones(n int64) sdkmath.Int {
	return fixmath.ONE.MulRaw(n)
}

func newPool(t *testing.T) (*ledger.Bank, *amm.WeightedPool) {
	t.Helper()

	bank := ledger.NewBank()
	require.NoError(t, bank.Mint(denomA, ctrl, ones(1_000)))
	require.NoError(t, bank.Mint(denomB, ctrl, ones(1_000)))
	require.NoError(t, bank.Mint(denomA, trader, ones(1_000)))
	require.NoError(t, bank.Mint(denomB, trader, ones(1_000)))

	w := amm.NewWeightedPool(ammAddr, ctrl, bank)
	require.NoError(t, w.Bind(ctrl, denomA, ones(100), ones(10)))
	require.NoError(t, w.Bind(ctrl, denomB, ones(400), ones(10)))
	require.NoError(t, w.SetSwapFee(ctrl, sdkmath.ZeroInt()))
	require.NoError(t, w.SetPublicSwap(ctrl, true))
	return bank, w
}

func TestBindRejectsNonController(t *testing.T) {
	bank := ledger.NewBank()
	require.NoError(t, bank.Mint(denomA, trader, ones(100)))

	w := amm.NewWeightedPool(ammAddr, ctrl, bank)
	err := w.Bind(trader, denomA, ones(100), ones(10))
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
}

func TestSpotPriceEqualWeights(t *testing.T) {
	_, w := newPool(t)

	// With equal weights and no fee the price of A in B is just the balance
	// ratio, 400/100 = 4.
	price, err := w.SpotPrice(denomB, denomA)
	require.NoError(t, err)
	assert.Equal(t, ones(4).String(), price.String())
}

func TestSwapExactAmountIn(t *testing.T) {
	bank, w := newPool(t)

	bBefore := bank.BalanceOf(denomB, trader)
	priceBefore, err := w.SpotPrice(denomA, denomB)
	require.NoError(t, err)

	// Sell 10 A into the pool. With equal weights the constant-product
	// value is 400*(1 - 100/110) = 36.36..
	out, spotAfter, err := w.SwapExactAmountIn(trader, denomA, ones(10), denomB, sdkmath.ZeroInt(), maxPrice())
	require.NoError(t, err)

	assert.True(t, out.GT(ones(36)))
	assert.True(t, out.LT(ones(37)))
	assert.Equal(t, out.String(), bank.BalanceOf(denomB, trader).Sub(bBefore).String())

	// Selling A makes A cheaper in B terms, so the A-per-B price rose.
	assert.True(t, spotAfter.GT(priceBefore))

	balA, err := w.GetBalance(denomA)
	require.NoError(t, err)
	assert.Equal(t, ones(110).String(), balA.String())
}

func TestSwapHonorsMinOut(t *testing.T) {
	_, w := newPool(t)

	_, _, err := w.SwapExactAmountIn(trader, denomA, ones(10), denomB, ones(37), maxPrice())
	assert.ErrorIs(t, err, pool.ErrSlippage)
}

func TestSwapRequiresPublicSwap(t *testing.T) {
	_, w := newPool(t)
	require.NoError(t, w.SetPublicSwap(ctrl, false))

	_, _, err := w.SwapExactAmountIn(trader, denomA, ones(1), denomB, sdkmath.ZeroInt(), maxPrice())
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
}

func TestSwapMaxInRatio(t *testing.T) {
	_, w := newPool(t)

	// More than half the bound balance is refused outright.
	_, _, err := w.SwapExactAmountIn(trader, denomA, ones(51), denomB, sdkmath.ZeroInt(), maxPrice())
	assert.ErrorIs(t, err, pool.ErrBounds)
}

func TestCalcInGivenOutQuotesExecutableInput(t *testing.T) {
	_, w := newPool(t)

	want := ones(30)
	in, err := w.CalcInGivenOut(denomA, denomB, want)
	require.NoError(t, err)

	out, _, err := w.SwapExactAmountIn(trader, denomA, in, denomB, sdkmath.ZeroInt(), maxPrice())
	require.NoError(t, err)

	// The quote is tight: executing it yields the desired output within the
	// power-series precision.
	diff := out.Sub(want).Abs()
	assert.True(t, diff.LTE(sdkmath.NewInt(1_000_000_000)),
		"quoted input yields %s for desired %s", out, want)
}

func TestCalcInGivenOutMaxOutRatio(t *testing.T) {
	_, w := newPool(t)

	_, err := w.CalcInGivenOut(denomA, denomB, ones(150))
	assert.ErrorIs(t, err, pool.ErrBounds)
}

func TestSnapshotRestoresRecords(t *testing.T) {
	_, w := newPool(t)

	restore := w.Snapshot()
	_, _, err := w.SwapExactAmountIn(trader, denomA, ones(10), denomB, sdkmath.ZeroInt(), maxPrice())
	require.NoError(t, err)
	restore()

	balA, err := w.GetBalance(denomA)
	require.NoError(t, err)
	assert.Equal(t, ones(100).String(), balA.String())
	balB, err := w.GetBalance(denomB)
	require.NoError(t, err)
	assert.Equal(t, ones(400).String(), balB.String())
}

func maxPrice() sdkmath.Int {
	return sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
}
