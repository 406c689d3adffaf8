/*
Rights-gated wrapper around the underlying constant-weight AMM.

The wrapper owns the AMM's lifecycle and is the single holder of its mutation
rights: weight changes, fee changes, and swap toggles all pass through the
capability checks here, and pool-share supply bookkeeping lives here. Share
math is delegated to the pure accounting in math.go; this file applies the
implied token and share movements as one atomic unit.
*/

package pool

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/vbtc-network/arm/internal/fixmath"
	"github.com/vbtc-network/arm/internal/ledger"
	"github.com/vbtc-network/arm/internal/logger"
	"github.com/vbtc-network/arm/internal/txn"
)

// BoundToken is one of the two assets configured for the pool.
type BoundToken struct {
	Denom   string
	Balance sdkmath.Int
	Denorm  sdkmath.Int
}

// Config holds everything needed to construct a GatedPool.
type Config struct {
	ShareDenom    string
	Address       string // ledger account of the wrapper itself
	Owner         string // sole caller allowed on gated entry points
	Rights        Rights
	Tokens        []BoundToken
	SwapFee       sdkmath.Int
	InitialSupply sdkmath.Int
	AMM           AMM
	Bank          *ledger.Bank
}

// GatedPool gates and accounts for every change to the underlying AMM.
type GatedPool struct {
	logger zerolog.Logger

	rights     Rights
	amm        AMM
	bank       *ledger.Bank
	addr       string
	owner      string
	shareDenom string

	tokens        []BoundToken
	swapFee       sdkmath.Int
	initialSupply sdkmath.Int

	created     bool
	cap         sdkmath.Int
	totalShares sdkmath.Int
	shares      map[string]sdkmath.Int
	whitelist   map[string]bool
}

// New validates the configuration and returns an uncreated pool.
func New(cfg Config) (*GatedPool, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("pool configuration validation failed: %w", err)
	}

	return &GatedPool{
		logger:        logger.GetForComponent("reserve_pool"),
		rights:        cfg.Rights,
		amm:           cfg.AMM,
		bank:          cfg.Bank,
		addr:          cfg.Address,
		owner:         cfg.Owner,
		shareDenom:    cfg.ShareDenom,
		tokens:        cfg.Tokens,
		swapFee:       cfg.SwapFee,
		initialSupply: cfg.InitialSupply,
		cap:           sdkmath.ZeroInt(),
		totalShares:   sdkmath.ZeroInt(),
		shares:        make(map[string]sdkmath.Int),
		whitelist:     make(map[string]bool),
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.AMM == nil {
		return fmt.Errorf("AMM cannot be nil")
	}
	if cfg.Bank == nil {
		return fmt.Errorf("bank cannot be nil")
	}
	if cfg.Address == "" || cfg.Owner == "" || cfg.ShareDenom == "" {
		return fmt.Errorf("address, owner and share denom are required")
	}
	if len(cfg.Tokens) != 2 {
		return fmt.Errorf("exactly two tokens required, got %d", len(cfg.Tokens))
	}
	if cfg.SwapFee.LT(MinFee) || cfg.SwapFee.GT(MaxFee) {
		return fmt.Errorf("%w: swap fee %s outside [%s, %s]", ErrBounds, cfg.SwapFee, MinFee, MaxFee)
	}
	if cfg.InitialSupply.LT(MinPoolSupply) || cfg.InitialSupply.GT(MaxPoolSupply) {
		return fmt.Errorf("%w: initial supply %s outside [%s, %s]",
			ErrBounds, cfg.InitialSupply, MinPoolSupply, MaxPoolSupply)
	}
	totalWeight := sdkmath.ZeroInt()
	for _, tok := range cfg.Tokens {
		if tok.Denorm.LT(MinWeight) || tok.Denorm.GT(MaxWeight) {
			return fmt.Errorf("%w: weight %s for %s outside [%s, %s]",
				ErrBounds, tok.Denorm, tok.Denom, MinWeight, MaxWeight)
		}
		if tok.Balance.LT(MinBalance) {
			return fmt.Errorf("%w: balance %s for %s below minimum %s",
				ErrBounds, tok.Balance, tok.Denom, MinBalance)
		}
		totalWeight = totalWeight.Add(tok.Denorm)
	}
	if totalWeight.GT(MaxTotalWeight) {
		return fmt.Errorf("%w: total weight %s exceeds %s", ErrBounds, totalWeight, MaxTotalWeight)
	}
	return nil
}

// Create performs the one-way Uninitialized -> Created transition: mints the
// initial share supply to the caller, binds both assets into the AMM, sets
// the configured fee, and enables public swapping.
func (p *GatedPool) Create(caller string) error {
	if p.created {
		return ErrAlreadyCreated
	}
	if caller != p.owner {
		return fmt.Errorf("%w: create by %s", ErrPermissionDenied, caller)
	}

	err := txn.Run(func() error {
		for _, tok := range p.tokens {
			if err := p.bank.Transfer(tok.Denom, caller, p.addr, tok.Balance); err != nil {
				return fmt.Errorf("%w: %s", ErrTransferFailed, err)
			}
			if err := p.amm.Bind(p.addr, tok.Denom, tok.Balance, tok.Denorm); err != nil {
				return err
			}
		}
		if err := p.amm.SetSwapFee(p.addr, p.swapFee); err != nil {
			return err
		}
		if err := p.amm.SetPublicSwap(p.addr, true); err != nil {
			return err
		}
		p.mintShares(caller, p.initialSupply)
		p.created = true
		if p.rights.ChangeCap {
			p.cap = p.initialSupply
		} else {
			p.cap = MaxPoolSupply
		}
		return nil
	}, p.bank, p)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("caller", caller).
		Str("supply", p.initialSupply.String()).
		Msg("Pool created")
	return nil
}

// IsCreated reports whether the pool has been initialized.
func (p *GatedPool) IsCreated() bool { return p.created }

// Underlying exposes the AMM primitive for read and swap access. Mutation of
// weights and balances still only happens through this wrapper.
func (p *GatedPool) Underlying() AMM { return p.amm }

// TotalShares returns the outstanding pool-share supply.
func (p *GatedPool) TotalShares() sdkmath.Int { return p.totalShares }

// ShareBalance returns addr's pool-share balance.
func (p *GatedPool) ShareBalance(addr string) sdkmath.Int {
	if bal, ok := p.shares[addr]; ok {
		return bal
	}
	return sdkmath.ZeroInt()
}

// Cap returns the current pool-share supply ceiling.
func (p *GatedPool) Cap() sdkmath.Int { return p.cap }

// SetSwapFee forwards a new swap fee to the AMM. Gated by the change-fee
// capability.
func (p *GatedPool) SetSwapFee(caller string, fee sdkmath.Int) error {
	if err := p.gate(p.rights.ChangeSwapFee, "setSwapFee", caller); err != nil {
		return err
	}
	if fee.LT(MinFee) || fee.GT(MaxFee) {
		return fmt.Errorf("%w: swap fee %s outside [%s, %s]", ErrBounds, fee, MinFee, MaxFee)
	}
	if err := p.amm.SetSwapFee(p.addr, fee); err != nil {
		return err
	}
	p.swapFee = fee
	p.logGatedCall("setSwapFee", caller, fee.String())
	return nil
}

// SetPublicSwap toggles public swapping on the AMM. Gated by the
// pause-swapping capability.
func (p *GatedPool) SetPublicSwap(caller string, enabled bool) error {
	if err := p.gate(p.rights.PauseSwapping, "setPublicSwap", caller); err != nil {
		return err
	}
	if err := p.amm.SetPublicSwap(p.addr, enabled); err != nil {
		return err
	}
	p.logGatedCall("setPublicSwap", caller, fmt.Sprintf("%t", enabled))
	return nil
}

// SetCap replaces the pool-share supply ceiling. Gated by the change-cap
// capability.
func (p *GatedPool) SetCap(caller string, cap sdkmath.Int) error {
	if err := p.gate(p.rights.ChangeCap, "setCap", caller); err != nil {
		return err
	}
	old := p.cap
	p.cap = cap
	p.logger.Info().
		Str("caller", caller).
		Str("old_cap", old.String()).
		Str("new_cap", cap.String()).
		Msg("Cap changed")
	return nil
}

// WhitelistLP admits an address to joinPool when the whitelist capability is
// enabled.
func (p *GatedPool) WhitelistLP(caller, lp string) error {
	if err := p.gate(p.rights.WhitelistLPs, "whitelistLiquidityProvider", caller); err != nil {
		return err
	}
	p.whitelist[lp] = true
	p.logGatedCall("whitelistLiquidityProvider", caller, lp)
	return nil
}

// RemoveWhitelistedLP removes an address from the LP whitelist.
func (p *GatedPool) RemoveWhitelistedLP(caller, lp string) error {
	if err := p.gate(p.rights.WhitelistLPs, "removeWhitelistedLiquidityProvider", caller); err != nil {
		return err
	}
	delete(p.whitelist, lp)
	p.logGatedCall("removeWhitelistedLiquidityProvider", caller, lp)
	return nil
}

// UpdateWeight moves one token to a new denormalized weight, applying the
// implied share mint/burn and token transfer and committing the new
// balance/weight to the AMM as one atomic unit.
func (p *GatedPool) UpdateWeight(caller, denom string, newWeight sdkmath.Int) error {
	if err := p.gate(p.rights.ChangeWeights, "updateWeight", caller); err != nil {
		return err
	}

	currentWeight, err := p.amm.GetDenormalizedWeight(denom)
	if err != nil {
		return err
	}
	balance, err := p.amm.GetBalance(denom)
	if err != nil {
		return err
	}
	totalWeight := p.amm.GetTotalDenormalizedWeight()

	change, err := ComputeWeightChange(currentWeight, newWeight, balance, p.totalShares, totalWeight)
	if err != nil {
		return err
	}
	if change.NoOp {
		return nil
	}

	err = txn.Run(func() error {
		if change.Increase {
			if err := p.bank.Transfer(denom, caller, p.addr, change.BalanceDelta); err != nil {
				return fmt.Errorf("%w: %s", ErrTransferFailed, err)
			}
			if err := p.amm.Rebind(p.addr, denom, balance.Add(change.BalanceDelta), newWeight); err != nil {
				return err
			}
			p.mintShares(caller, change.SharesDelta)
			return nil
		}

		if err := p.burnShares(caller, change.SharesDelta); err != nil {
			return err
		}
		if err := p.amm.Rebind(p.addr, denom, balance.Sub(change.BalanceDelta), newWeight); err != nil {
			return err
		}
		if err := p.bank.Transfer(denom, p.addr, caller, change.BalanceDelta); err != nil {
			return fmt.Errorf("%w: %s", ErrTransferFailed, err)
		}
		return nil
	}, p.bank, p)
	if err != nil {
		return err
	}

	p.logGatedCall("updateWeight", caller, denom, newWeight.String())
	return nil
}

// JoinPool mints poolAmountOut shares to the caller against proportional
// asset inputs bounded by maxAmountsIn. Public swapping is suspended for the
// duration of the call and restored on every exit path.
func (p *GatedPool) JoinPool(caller string, poolAmountOut sdkmath.Int, maxAmountsIn []sdkmath.Int) error {
	if !p.created {
		return ErrNotCreated
	}
	if p.rights.WhitelistLPs && !p.whitelist[caller] {
		return fmt.Errorf("%w: %s is not a whitelisted liquidity provider", ErrPermissionDenied, caller)
	}
	if p.totalShares.Add(poolAmountOut).GT(p.cap) {
		return fmt.Errorf("%w: supply cap %s exceeded", ErrBounds, p.cap)
	}

	restore, err := p.suspendPublicSwap()
	if err != nil {
		return err
	}
	defer restore()

	return txn.Run(func() error {
		balances, err := p.boundBalances()
		if err != nil {
			return err
		}
		amountsIn, err := JoinAmounts(poolAmountOut, p.totalShares, balances, maxAmountsIn)
		if err != nil {
			return err
		}

		for i, tok := range p.tokens {
			if err := p.bank.Transfer(tok.Denom, caller, p.addr, amountsIn[i]); err != nil {
				return fmt.Errorf("%w: %s", ErrTransferFailed, err)
			}
			weight, err := p.amm.GetDenormalizedWeight(tok.Denom)
			if err != nil {
				return err
			}
			if err := p.amm.Rebind(p.addr, tok.Denom, balances[i].Add(amountsIn[i]), weight); err != nil {
				return err
			}
			p.logger.Info().
				Str("caller", caller).
				Str("denom", tok.Denom).
				Str("amount_in", amountsIn[i].String()).
				Msg("Pool join")
		}
		p.mintShares(caller, poolAmountOut)
		return nil
	}, p.bank, p)
}

// ExitPool burns poolAmountIn shares from the caller against proportional
// asset outputs bounded below by minAmountsOut. Public swapping is suspended
// for the duration of the call and restored on every exit path.
func (p *GatedPool) ExitPool(caller string, poolAmountIn sdkmath.Int, minAmountsOut []sdkmath.Int) error {
	if !p.created {
		return ErrNotCreated
	}

	restore, err := p.suspendPublicSwap()
	if err != nil {
		return err
	}
	defer restore()

	return txn.Run(func() error {
		balances, err := p.boundBalances()
		if err != nil {
			return err
		}
		amountsOut, exitFee, err := ExitAmounts(poolAmountIn, p.totalShares, balances, minAmountsOut)
		if err != nil {
			return err
		}

		if err := p.burnShares(caller, poolAmountIn.Sub(exitFee)); err != nil {
			return err
		}
		if exitFee.IsPositive() {
			if err := p.transferShares(caller, p.owner, exitFee); err != nil {
				return err
			}
		}

		for i, tok := range p.tokens {
			weight, err := p.amm.GetDenormalizedWeight(tok.Denom)
			if err != nil {
				return err
			}
			if err := p.amm.Rebind(p.addr, tok.Denom, balances[i].Sub(amountsOut[i]), weight); err != nil {
				return err
			}
			if err := p.bank.Transfer(tok.Denom, p.addr, caller, amountsOut[i]); err != nil {
				return fmt.Errorf("%w: %s", ErrTransferFailed, err)
			}
			p.logger.Info().
				Str("caller", caller).
				Str("denom", tok.Denom).
				Str("amount_out", amountsOut[i].String()).
				Msg("Pool exit")
		}
		return nil
	}, p.bank, p)
}

// SpotPrice returns the current ONE-scaled price of denomOut in denomIn, the
// balance/weight ratio the no-arbitrage invariant is stated over.
func (p *GatedPool) SpotPrice(denomIn, denomOut string) (sdkmath.Int, error) {
	balIn, err := p.amm.GetBalance(denomIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	weightIn, err := p.amm.GetDenormalizedWeight(denomIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	balOut, err := p.amm.GetBalance(denomOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	weightOut, err := p.amm.GetDenormalizedWeight(denomOut)
	if err != nil {
		return sdkmath.Int{}, err
	}

	numer, err := fixmath.Div(balIn, weightIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	denomRatio, err := fixmath.Div(balOut, weightOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return fixmath.Div(numer, denomRatio)
}

// Snapshot implements txn.Snapshotter, delegating to the AMM when it
// participates in rollback too.
func (p *GatedPool) Snapshot() (restore func()) {
	savedShares := make(map[string]sdkmath.Int, len(p.shares))
	for addr, amt := range p.shares {
		savedShares[addr] = amt
	}
	savedWhitelist := make(map[string]bool, len(p.whitelist))
	for addr, ok := range p.whitelist {
		savedWhitelist[addr] = ok
	}
	savedCreated := p.created
	savedCap := p.cap
	savedTotal := p.totalShares
	savedFee := p.swapFee

	var ammRestore func()
	if s, ok := p.amm.(txn.Snapshotter); ok {
		ammRestore = s.Snapshot()
	}

	return func() {
		p.shares = savedShares
		p.whitelist = savedWhitelist
		p.created = savedCreated
		p.cap = savedCap
		p.totalShares = savedTotal
		p.swapFee = savedFee
		if ammRestore != nil {
			ammRestore()
		}
	}
}

// gate enforces the created-state and capability checks shared by every
// permissioned entry point.
func (p *GatedPool) gate(capability bool, selector, caller string) error {
	if !p.created {
		return ErrNotCreated
	}
	if caller != p.owner {
		return fmt.Errorf("%w: %s called by %s", ErrPermissionDenied, selector, caller)
	}
	if !capability {
		return fmt.Errorf("%w: capability for %s not granted", ErrPermissionDenied, selector)
	}
	return nil
}

// suspendPublicSwap disables public swapping and returns the closure that
// restores the prior state. Callers must defer the restore immediately.
func (p *GatedPool) suspendPublicSwap() (func(), error) {
	prev := p.amm.IsPublicSwap()
	if err := p.amm.SetPublicSwap(p.addr, false); err != nil {
		return nil, err
	}
	return func() {
		// Restoration must succeed on every exit path; the AMM only rejects
		// the toggle for callers other than its controller, which we are.
		_ = p.amm.SetPublicSwap(p.addr, prev)
	}, nil
}

func (p *GatedPool) boundBalances() ([]sdkmath.Int, error) {
	balances := make([]sdkmath.Int, len(p.tokens))
	for i, tok := range p.tokens {
		bal, err := p.amm.GetBalance(tok.Denom)
		if err != nil {
			return nil, err
		}
		balances[i] = bal
	}
	return balances, nil
}

func (p *GatedPool) mintShares(to string, amount sdkmath.Int) {
	p.totalShares = p.totalShares.Add(amount)
	p.shares[to] = p.ShareBalance(to).Add(amount)
}

func (p *GatedPool) burnShares(from string, amount sdkmath.Int) error {
	bal := p.ShareBalance(from)
	if bal.LT(amount) {
		return fmt.Errorf("%w: burn %s pool shares from %s (balance %s)",
			ErrTransferFailed, amount, from, bal)
	}
	p.shares[from] = bal.Sub(amount)
	p.totalShares = p.totalShares.Sub(amount)
	return nil
}

func (p *GatedPool) transferShares(from, to string, amount sdkmath.Int) error {
	bal := p.ShareBalance(from)
	if bal.LT(amount) {
		return fmt.Errorf("%w: transfer %s pool shares from %s (balance %s)",
			ErrTransferFailed, amount, from, bal)
	}
	p.shares[from] = bal.Sub(amount)
	p.shares[to] = p.ShareBalance(to).Add(amount)
	return nil
}

func (p *GatedPool) logGatedCall(selector, caller string, args ...string) {
	p.logger.Info().
		Str("selector", selector).
		Str("caller", caller).
		Strs("args", args).
		Msg("Gated call")
}
