/*
In-memory constant-weight market maker.

Implements the pool.AMM primitive the gated wrapper drives: two bound tokens,
denormalized weights, spot pricing and swaps under the standard
constant-weight formulas. Token custody goes through the shared bank ledger
under the pool's own account. Only its controller (the gated wrapper) may
bind, rebind, or toggle state.
*/

package amm

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/vbtc-network/arm/internal/fixmath"
	"github.com/vbtc-network/arm/internal/ledger"
	"github.com/vbtc-network/arm/internal/logger"
	"github.com/vbtc-network/arm/internal/pool"
)

// Trade size guards relative to pool balances. Beyond these the power
// approximation in fixmath loses its convergence domain.
var (
	MaxInRatio  = fixmath.ONE.QuoRaw(2)
	MaxOutRatio = fixmath.ONE.QuoRaw(3)
)

type record struct {
	balance sdkmath.Int
	denorm  sdkmath.Int
}

// WeightedPool is a two-asset constant-weight AMM.
type WeightedPool struct {
	logger zerolog.Logger

	bank       *ledger.Bank
	addr       string
	controller string

	records     map[string]*record
	totalWeight sdkmath.Int
	swapFee     sdkmath.Int
	publicSwap  bool
}

// NewWeightedPool creates an empty AMM holding custody under addr, mutable
// only by controller.
func NewWeightedPool(addr, controller string, bank *ledger.Bank) *WeightedPool {
	return &WeightedPool{
		logger:      logger.GetForComponent("weighted_amm"),
		bank:        bank,
		addr:        addr,
		controller:  controller,
		records:     make(map[string]*record),
		totalWeight: sdkmath.ZeroInt(),
		swapFee:     pool.MinFee,
	}
}

func (w *WeightedPool) requireController(caller string) error {
	if caller != w.controller {
		return fmt.Errorf("%w: %s is not the pool controller", pool.ErrPermissionDenied, caller)
	}
	return nil
}

func (w *WeightedPool) record(denom string) (*record, error) {
	rec, ok := w.records[denom]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pool.ErrNotBound, denom)
	}
	return rec, nil
}

// Bind registers denom at an initial balance and weight, pulling the balance
// from the caller.
func (w *WeightedPool) Bind(caller, denom string, balance, denorm sdkmath.Int) error {
	if err := w.requireController(caller); err != nil {
		return err
	}
	if _, ok := w.records[denom]; ok {
		return fmt.Errorf("%w: %s already bound", pool.ErrBounds, denom)
	}
	if denorm.LT(pool.MinWeight) || denorm.GT(pool.MaxWeight) {
		return fmt.Errorf("%w: weight %s", pool.ErrBounds, denorm)
	}
	if balance.LT(pool.MinBalance) {
		return fmt.Errorf("%w: balance %s", pool.ErrBounds, balance)
	}
	if w.totalWeight.Add(denorm).GT(pool.MaxTotalWeight) {
		return fmt.Errorf("%w: total weight", pool.ErrBounds)
	}

	if err := w.bank.Transfer(denom, caller, w.addr, balance); err != nil {
		return fmt.Errorf("%w: %s", pool.ErrTransferFailed, err)
	}
	w.records[denom] = &record{balance: balance, denorm: denorm}
	w.totalWeight = w.totalWeight.Add(denorm)
	return nil
}

// Rebind atomically updates a bound token's balance and weight, settling the
// balance difference with the caller.
func (w *WeightedPool) Rebind(caller, denom string, balance, denorm sdkmath.Int) error {
	if err := w.requireController(caller); err != nil {
		return err
	}
	rec, err := w.record(denom)
	if err != nil {
		return err
	}
	if denorm.LT(pool.MinWeight) || denorm.GT(pool.MaxWeight) {
		return fmt.Errorf("%w: weight %s", pool.ErrBounds, denorm)
	}
	if balance.LT(pool.MinBalance) {
		return fmt.Errorf("%w: balance %s", pool.ErrBounds, balance)
	}
	newTotal := w.totalWeight.Sub(rec.denorm).Add(denorm)
	if newTotal.GT(pool.MaxTotalWeight) {
		return fmt.Errorf("%w: total weight", pool.ErrBounds)
	}

	if balance.GT(rec.balance) {
		if err := w.bank.Transfer(denom, caller, w.addr, balance.Sub(rec.balance)); err != nil {
			return fmt.Errorf("%w: %s", pool.ErrTransferFailed, err)
		}
	} else if balance.LT(rec.balance) {
		if err := w.bank.Transfer(denom, w.addr, caller, rec.balance.Sub(balance)); err != nil {
			return fmt.Errorf("%w: %s", pool.ErrTransferFailed, err)
		}
	}

	rec.balance = balance
	rec.denorm = denorm
	w.totalWeight = newTotal
	return nil
}

// GetBalance returns the bound balance of denom.
func (w *WeightedPool) GetBalance(denom string) (sdkmath.Int, error) {
	rec, err := w.record(denom)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return rec.balance, nil
}

// GetDenormalizedWeight returns the denormalized weight of denom.
func (w *WeightedPool) GetDenormalizedWeight(denom string) (sdkmath.Int, error) {
	rec, err := w.record(denom)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return rec.denorm, nil
}

// GetTotalDenormalizedWeight returns the sum of all bound weights.
func (w *WeightedPool) GetTotalDenormalizedWeight() sdkmath.Int {
	return w.totalWeight
}

// SetSwapFee replaces the swap fee. Controller only.
func (w *WeightedPool) SetSwapFee(caller string, fee sdkmath.Int) error {
	if err := w.requireController(caller); err != nil {
		return err
	}
	w.swapFee = fee
	return nil
}

// SetPublicSwap toggles public swapping. Controller only.
func (w *WeightedPool) SetPublicSwap(caller string, enabled bool) error {
	if err := w.requireController(caller); err != nil {
		return err
	}
	w.publicSwap = enabled
	return nil
}

// IsPublicSwap reports whether public swapping is enabled.
func (w *WeightedPool) IsPublicSwap() bool { return w.publicSwap }

// SpotPrice returns the ONE-scaled amount of tokenIn per unit of tokenOut
// including the swap fee.
func (w *WeightedPool) SpotPrice(tokenIn, tokenOut string) (sdkmath.Int, error) {
	in, err := w.record(tokenIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	out, err := w.record(tokenOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return calcSpotPrice(in.balance, in.denorm, out.balance, out.denorm, w.swapFee)
}

// SwapExactAmountIn trades amountIn of tokenIn for tokenOut, honoring the
// caller's minimum-out and maximum-price limits.
func (w *WeightedPool) SwapExactAmountIn(caller, tokenIn string, amountIn sdkmath.Int, tokenOut string, minAmountOut, maxPrice sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	if !w.publicSwap {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: public swapping disabled", pool.ErrPermissionDenied)
	}
	in, err := w.record(tokenIn)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	out, err := w.record(tokenOut)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	maxIn, err := fixmath.Mul(in.balance, MaxInRatio)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if amountIn.GT(maxIn) {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: input exceeds max-in ratio", pool.ErrBounds)
	}

	amountOut, err := calcOutGivenIn(in.balance, in.denorm, out.balance, out.denorm, amountIn, w.swapFee)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if amountOut.LT(minAmountOut) {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: out %s below floor %s",
			pool.ErrSlippage, amountOut, minAmountOut)
	}

	if err := w.bank.Transfer(tokenIn, caller, w.addr, amountIn); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: %s", pool.ErrTransferFailed, err)
	}
	if err := w.bank.Transfer(tokenOut, w.addr, caller, amountOut); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: %s", pool.ErrTransferFailed, err)
	}
	in.balance = in.balance.Add(amountIn)
	out.balance = out.balance.Sub(amountOut)

	spotAfter, err := calcSpotPrice(in.balance, in.denorm, out.balance, out.denorm, w.swapFee)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if spotAfter.GT(maxPrice) {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: spot price %s above limit %s",
			pool.ErrSlippage, spotAfter, maxPrice)
	}

	w.logger.Debug().
		Str("caller", caller).
		Str("token_in", tokenIn).
		Str("amount_in", amountIn.String()).
		Str("token_out", tokenOut).
		Str("amount_out", amountOut.String()).
		Msg("Swap executed")
	return amountOut, spotAfter, nil
}

// CalcInGivenOut quotes the input required for a desired output, without
// executing.
func (w *WeightedPool) CalcInGivenOut(tokenIn, tokenOut string, amountOut sdkmath.Int) (sdkmath.Int, error) {
	in, err := w.record(tokenIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	out, err := w.record(tokenOut)
	if err != nil {
		return sdkmath.Int{}, err
	}

	maxOut, err := fixmath.Mul(out.balance, MaxOutRatio)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if amountOut.GT(maxOut) {
		return sdkmath.Int{}, fmt.Errorf("%w: output exceeds max-out ratio", pool.ErrBounds)
	}
	return calcInGivenOut(in.balance, in.denorm, out.balance, out.denorm, amountOut, w.swapFee)
}

// Snapshot implements txn.Snapshotter. Token custody is restored by the bank;
// this covers the AMM's own records.
func (w *WeightedPool) Snapshot() (restore func()) {
	saved := make(map[string]record, len(w.records))
	for denom, rec := range w.records {
		saved[denom] = *rec
	}
	savedTotal := w.totalWeight
	savedFee := w.swapFee
	savedPublic := w.publicSwap

	return func() {
		w.records = make(map[string]*record, len(saved))
		for denom, rec := range saved {
			copied := rec
			w.records[denom] = &copied
		}
		w.totalWeight = savedTotal
		w.swapFee = savedFee
		w.publicSwap = savedPublic
	}
}
