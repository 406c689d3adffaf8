/*
External reference market interface and an in-memory constant-product pair.

The controller only ever sees the Market interface; the Pair implementation
backs the sim mode and the tests with the standard x*y=k swap rule under the
997/1000 fee convention.
*/

package market

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/vbtc-network/arm/internal/ledger"
	"github.com/vbtc-network/arm/internal/logger"
)

var (
	ErrUnknownPair       = errors.New("unknown trading pair")
	ErrInsufficientInput = errors.New("insufficient input amount")
	ErrOutputBelowFloor  = errors.New("output below caller minimum")
	ErrExpired           = errors.New("deadline expired")
	ErrBadPath           = errors.New("unsupported swap path")
)

// Market is the interface presented by the external reference market.
type Market interface {
	// GetReserves returns the pair reserves ordered as (reserveA, reserveB)
	// for the requested asset ordering.
	GetReserves(assetA, assetB string) (sdkmath.Int, sdkmath.Int, error)

	// SwapExactTokensForTokens trades amountIn of path[0] for at least
	// amountOutMin of path[len-1], sending proceeds to recipient. Returns the
	// amounts at every hop.
	SwapExactTokensForTokens(amountIn, amountOutMin sdkmath.Int, path []string, recipient string, deadline time.Time) ([]sdkmath.Int, error)
}

// Pair is an in-memory constant-product market over two assets.
type Pair struct {
	logger zerolog.Logger

	bank   *ledger.Bank
	addr   string
	denomA string
	denomB string

	reserveA sdkmath.Int
	reserveB sdkmath.Int

	now func() time.Time
}

// NewPair creates a pair holding custody under addr. Reserves start at zero;
// seed with AddLiquidity.
func NewPair(addr, denomA, denomB string, bank *ledger.Bank) *Pair {
	return &Pair{
		logger:   logger.GetForComponent("reference_market"),
		bank:     bank,
		addr:     addr,
		denomA:   denomA,
		denomB:   denomB,
		reserveA: sdkmath.ZeroInt(),
		reserveB: sdkmath.ZeroInt(),
		now:      time.Now,
	}
}

// AddLiquidity deposits both assets from the provider into the reserves.
func (p *Pair) AddLiquidity(provider string, amountA, amountB sdkmath.Int) error {
	if err := p.bank.Transfer(p.denomA, provider, p.addr, amountA); err != nil {
		return err
	}
	if err := p.bank.Transfer(p.denomB, provider, p.addr, amountB); err != nil {
		return err
	}
	p.reserveA = p.reserveA.Add(amountA)
	p.reserveB = p.reserveB.Add(amountB)
	return nil
}

// GetReserves implements Market.
func (p *Pair) GetReserves(assetA, assetB string) (sdkmath.Int, sdkmath.Int, error) {
	switch {
	case assetA == p.denomA && assetB == p.denomB:
		return p.reserveA, p.reserveB, nil
	case assetA == p.denomB && assetB == p.denomA:
		return p.reserveB, p.reserveA, nil
	default:
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: %s/%s", ErrUnknownPair, assetA, assetB)
	}
}

// SwapExactTokensForTokens implements Market for single-hop paths.
func (p *Pair) SwapExactTokensForTokens(amountIn, amountOutMin sdkmath.Int, path []string, recipient string, deadline time.Time) ([]sdkmath.Int, error) {
	if p.now().After(deadline) {
		return nil, ErrExpired
	}
	if len(path) != 2 {
		return nil, fmt.Errorf("%w: path length %d", ErrBadPath, len(path))
	}
	reserveIn, reserveOut, err := p.GetReserves(path[0], path[1])
	if err != nil {
		return nil, err
	}
	if !amountIn.IsPositive() {
		return nil, ErrInsufficientInput
	}

	amountOut := getAmountOut(amountIn, reserveIn, reserveOut)
	if amountOut.LT(amountOutMin) {
		return nil, fmt.Errorf("%w: out %s, floor %s", ErrOutputBelowFloor, amountOut, amountOutMin)
	}

	if err := p.bank.Transfer(path[0], recipient, p.addr, amountIn); err != nil {
		return nil, err
	}
	if err := p.bank.Transfer(path[1], p.addr, recipient, amountOut); err != nil {
		return nil, err
	}
	if path[0] == p.denomA {
		p.reserveA = p.reserveA.Add(amountIn)
		p.reserveB = p.reserveB.Sub(amountOut)
	} else {
		p.reserveB = p.reserveB.Add(amountIn)
		p.reserveA = p.reserveA.Sub(amountOut)
	}

	p.logger.Debug().
		Str("token_in", path[0]).
		Str("amount_in", amountIn.String()).
		Str("token_out", path[1]).
		Str("amount_out", amountOut.String()).
		Msg("Reference market swap")
	return []sdkmath.Int{amountIn, amountOut}, nil
}

// getAmountOut applies the constant-product rule with a 0.3% fee:
//
//	out = in*997*reserveOut / (reserveIn*1000 + in*997)
func getAmountOut(amountIn, reserveIn, reserveOut sdkmath.Int) sdkmath.Int {
	inWithFee := amountIn.MulRaw(997)
	numerator := inWithFee.Mul(reserveOut)
	denominator := reserveIn.MulRaw(1000).Add(inWithFee)
	return numerator.Quo(denominator)
}

// Snapshot implements txn.Snapshotter. Custody is restored by the bank; this
// covers the reserve bookkeeping.
func (p *Pair) Snapshot() (restore func()) {
	savedA := p.reserveA
	savedB := p.reserveB
	return func() {
		p.reserveA = savedA
		p.reserveB = savedB
	}
}

// SetClock overrides the deadline clock, for tests.
func (p *Pair) SetClock(now func() time.Time) { p.now = now }
