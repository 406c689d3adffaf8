package pool_test

import (
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
	testOwner    = "owner"
	testLP       = "lp"
	testPoolAddr = "pool"
	testAMMAddr  = "amm"
	testPeg      = "vbtc"
	testRef      = "weth"
)

type fixture struct {
	bank *ledger.Bank
	amm  *amm.WeightedPool
	pool *pool.GatedPool
}

func newFixture(t *testing.T, rights pool.Rights) *fixture {
	t.Helper()

	bank := ledger.NewBank()
	require.NoError(t, bank.Mint(testPeg, testOwner, ones(10_000)))
	require.NoError(t, bank.Mint(testRef, testOwner, ones(10_000)))
	require.NoError(t, bank.Mint(testPeg, testLP, ones(1_000)))
	require.NoError(t, bank.Mint(testRef, testLP, ones(1_000)))

	weighted := amm.NewWeightedPool(testAMMAddr, testPoolAddr, bank)

	gated, err := pool.New(pool.Config{
		ShareDenom: "armlp",
		Address:    testPoolAddr,
		Owner:      testOwner,
		Rights:     rights,
		Tokens: []pool.BoundToken{
			{Denom: testPeg, Balance: ones(100), Denorm: ones(10)},
			{Denom: testRef, Balance: ones(400), Denorm: ones(10)},
		},
		SwapFee:       fixmath.ONE.QuoRaw(1000),
		InitialSupply: pool.MinPoolSupply,
		AMM:           weighted,
		Bank:          bank,
	})
	require.NoError(t, err)

	return &fixture{bank: bank, amm: weighted, pool: gated}
}

func (f *fixture) create(t *testing.T) {
	t.Helper()
	require.NoError(t, f.pool.Create(testOwner))
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t, pool.AllRights())

	// Everything gated is rejected before creation.
	err := f.pool.SetSwapFee(testOwner, fixmath.ONE.QuoRaw(100))
	assert.ErrorIs(t, err, pool.ErrNotCreated)
	err = f.pool.JoinPool(testLP, ones(1), []sdkmath.Int{ones(100), ones(100)})
	assert.ErrorIs(t, err, pool.ErrNotCreated)

	// Only the owner may create.
	err = f.pool.Create(testLP)
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
	assert.False(t, f.pool.IsCreated())

	f.create(t)
	assert.True(t, f.pool.IsCreated())
	assert.Equal(t, pool.MinPoolSupply.String(), f.pool.TotalShares().String())
	assert.Equal(t, pool.MinPoolSupply.String(), f.pool.ShareBalance(testOwner).String())
	assert.True(t, f.amm.IsPublicSwap())

	// Creation is one-way.
	err = f.pool.Create(testOwner)
	assert.ErrorIs(t, err, pool.ErrAlreadyCreated)
}

func TestCapabilityGating(t *testing.T) {
	// No capabilities at all: the owner can still create, but every gated
	// entry point is refused afterward.
	f := newFixture(t, pool.Rights{})
	f.create(t)

	err := f.pool.SetSwapFee(testOwner, fixmath.ONE.QuoRaw(100))
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
	err = f.pool.SetPublicSwap(testOwner, false)
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
	err = f.pool.UpdateWeight(testOwner, testPeg, ones(12))
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
	err = f.pool.SetCap(testOwner, ones(1_000))
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
	err = f.pool.WhitelistLP(testOwner, testLP)
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)

	// Without the whitelist capability anyone may join (cap permitting).
	assert.Equal(t, pool.MaxPoolSupply.String(), f.pool.Cap().String())
}

func TestNonOwnerRejected(t *testing.T) {
	f := newFixture(t, pool.AllRights())
	f.create(t)

	err := f.pool.SetSwapFee(testLP, fixmath.ONE.QuoRaw(100))
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
	err = f.pool.UpdateWeight(testLP, testPeg, ones(12))
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
}

func TestUpdateWeightHoldsPriceConstant(t *testing.T) {
	f := newFixture(t, pool.AllRights())
	f.create(t)

	priceBefore, err := f.pool.SpotPrice(testRef, testPeg)
	require.NoError(t, err)

	sharesBefore := f.pool.ShareBalance(testOwner)
	pegBefore := f.bank.BalanceOf(testPeg, testOwner)

	// Increase: pulls tokens in, mints shares.
	require.NoError(t, f.pool.UpdateWeight(testOwner, testPeg, ones(15)))

	priceAfter, err := f.pool.SpotPrice(testRef, testPeg)
	require.NoError(t, err)
	assert.Equal(t, priceBefore.String(), priceAfter.String())

	assert.Equal(t, ones(50).String(), pegBefore.Sub(f.bank.BalanceOf(testPeg, testOwner)).String())
	assert.Equal(t, ones(25).String(), f.pool.ShareBalance(testOwner).Sub(sharesBefore).String())

	balance, err := f.amm.GetBalance(testPeg)
	require.NoError(t, err)
	assert.Equal(t, ones(150).String(), balance.String())

	// Decrease back: burns the shares and returns the tokens.
	require.NoError(t, f.pool.UpdateWeight(testOwner, testPeg, ones(10)))

	priceFinal, err := f.pool.SpotPrice(testRef, testPeg)
	require.NoError(t, err)
	assert.Equal(t, priceBefore.String(), priceFinal.String())
	assert.Equal(t, sharesBefore.String(), f.pool.ShareBalance(testOwner).String())
	assert.Equal(t, pegBefore.String(), f.bank.BalanceOf(testPeg, testOwner).String())
}

func TestUpdateWeightRollsBackOnFailedTransfer(t *testing.T) {
	f := newFixture(t, pool.AllRights())
	f.create(t)

	// Drain the owner so the balance pull fails mid-update.
	ownerPeg := f.bank.BalanceOf(testPeg, testOwner)
	require.NoError(t, f.bank.Transfer(testPeg, testOwner, testLP, ownerPeg))

	sharesBefore := f.pool.ShareBalance(testOwner)
	err := f.pool.UpdateWeight(testOwner, testPeg, ones(15))
	require.ErrorIs(t, err, pool.ErrTransferFailed)

	weight, werr := f.amm.GetDenormalizedWeight(testPeg)
	require.NoError(t, werr)
	assert.Equal(t, ones(10).String(), weight.String())
	assert.Equal(t, sharesBefore.String(), f.pool.ShareBalance(testOwner).String())
}

func TestJoinExitRoundTrip(t *testing.T) {
	f := newFixture(t, pool.AllRights())
	f.create(t)

	// With the change-cap capability on, the cap starts at the initial
	// supply, so joining needs headroom first.
	require.NoError(t, f.pool.SetCap(testOwner, pool.MaxPoolSupply))
	require.NoError(t, f.pool.WhitelistLP(testOwner, testLP))

	pegBefore := f.bank.BalanceOf(testPeg, testLP)
	refBefore := f.bank.BalanceOf(testRef, testLP)

	shares := ones(10)
	noLimit := []sdkmath.Int{ones(1_000), ones(1_000)}
	require.NoError(t, f.pool.JoinPool(testLP, shares, noLimit))
	assert.Equal(t, shares.String(), f.pool.ShareBalance(testLP).String())

	noFloor := []sdkmath.Int{sdkmath.ZeroInt(), sdkmath.ZeroInt()}
	require.NoError(t, f.pool.ExitPool(testLP, shares, noFloor))
	assert.True(t, f.pool.ShareBalance(testLP).IsZero())

	// Rounding bias means the round trip never pays out more than went in.
	assert.True(t, f.bank.BalanceOf(testPeg, testLP).LTE(pegBefore))
	assert.True(t, f.bank.BalanceOf(testRef, testLP).LTE(refBefore))

	// Public swapping is live again after both scoped suspensions.
	assert.True(t, f.amm.IsPublicSwap())
}

func TestJoinRequiresWhitelist(t *testing.T) {
	f := newFixture(t, pool.AllRights())
	f.create(t)
	require.NoError(t, f.pool.SetCap(testOwner, pool.MaxPoolSupply))

	err := f.pool.JoinPool(testLP, ones(1), []sdkmath.Int{ones(100), ones(100)})
	assert.ErrorIs(t, err, pool.ErrPermissionDenied)
}

func TestJoinRespectsCap(t *testing.T) {
	f := newFixture(t, pool.AllRights())
	f.create(t)
	require.NoError(t, f.pool.WhitelistLP(testOwner, testLP))

	// Cap equals the initial supply, so any join overflows it.
	err := f.pool.JoinPool(testLP, ones(1), []sdkmath.Int{ones(100), ones(100)})
	assert.ErrorIs(t, err, pool.ErrBounds)
}

func TestJoinSlippageRestoresPublicSwap(t *testing.T) {
	f := newFixture(t, pool.AllRights())
	f.create(t)
	require.NoError(t, f.pool.SetCap(testOwner, pool.MaxPoolSupply))
	require.NoError(t, f.pool.WhitelistLP(testOwner, testLP))

	pegBefore := f.bank.BalanceOf(testPeg, testLP)

	tightLimits := []sdkmath.Int{sdkmath.OneInt(), sdkmath.OneInt()}
	err := f.pool.JoinPool(testLP, ones(10), tightLimits)
	require.ErrorIs(t, err, pool.ErrSlippage)

	// Failure leaves no partial transfers behind and swapping re-enabled.
	assert.Equal(t, pegBefore.String(), f.bank.BalanceOf(testPeg, testLP).String())
	assert.True(t, f.pool.ShareBalance(testLP).IsZero())
	assert.True(t, f.amm.IsPublicSwap())
}

func TestExitRoundingTooCoarse(t *testing.T) {
	f := newFixture(t, pool.AllRights())
	f.create(t)
	require.NoError(t, f.pool.SetCap(testOwner, pool.MaxPoolSupply))
	require.NoError(t, f.pool.WhitelistLP(testOwner, testLP))

	noLimit := []sdkmath.Int{ones(1_000), ones(1_000)}
	require.NoError(t, f.pool.JoinPool(testLP, ones(10), noLimit))

	noFloor := []sdkmath.Int{sdkmath.ZeroInt(), sdkmath.ZeroInt()}
	err := f.pool.ExitPool(testLP, sdkmath.OneInt(), noFloor)
	assert.ErrorIs(t, err, pool.ErrRoundingTooCoarse)
	assert.True(t, f.amm.IsPublicSwap())
}
