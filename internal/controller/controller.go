package controller

import (
	"fmt"
	"math/big"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/vbtc-network/arm/internal/fixmath"
	"github.com/vbtc-network/arm/internal/ledger"
	"github.com/vbtc-network/arm/internal/loan"
	"github.com/vbtc-network/arm/internal/logger"
	"github.com/vbtc-network/arm/internal/market"
	"github.com/vbtc-network/arm/internal/oracle"
	"github.com/vbtc-network/arm/internal/pool"
	"github.com/vbtc-network/arm/internal/txn"
	"github.com/vbtc-network/arm/internal/types"
)

// Ceiling bounds relative to the default weight: governance may move the peg
// weight ceiling anywhere in [default/5, default*9].
var (
	ceilingFloorDivisor   = sdkmath.NewInt(5)
	ceilingCapMultiplier  = sdkmath.NewInt(9)
	defaultResyncCooldown = 24 * time.Hour
)

// noPriceLimit disables the spot-price guard on reserve pool swaps executed
// by the controller itself; the loan scope already bounds the outcome.
var noPriceLimit = sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))

// swapDeadline is how long a reference market leg stays valid once submitted.
const swapDeadline = time.Minute

// Config carries the dependencies and parameters for a Controller.
type Config struct {
	Pool   *pool.GatedPool
	AMM    pool.AMM
	Oracle oracle.Oracle
	Market market.Market
	Lender loan.Lender
	Bank   *ledger.Bank

	// Address is the controller's own ledger account; it must be the owner
	// of the gated pool so weight updates and parameter changes go through.
	Address string
	// Owner is the governance account allowed to call SetParams.
	Owner string

	PegDenom string
	RefDenom string

	// DefaultWeight is the denormalized weight both reserve assets carry
	// when the market sits on the oracle price.
	DefaultWeight sdkmath.Int
	// MaxPegWeight is the exclusive ceiling for the peg asset's weight.
	MaxPegWeight sdkmath.Int

	// Cooldown between successive rebalances that raise the peg weight
	// above the default. Zero selects the 24h standard window.
	Cooldown time.Duration

	// Clock overrides time.Now, used by simulations and tests.
	Clock func() time.Time
}

func validateConfig(cfg Config) error {
	if cfg.Pool == nil {
		return fmt.Errorf("pool is required")
	}
	if cfg.AMM == nil {
		return fmt.Errorf("amm is required")
	}
	if cfg.Oracle == nil {
		return fmt.Errorf("oracle is required")
	}
	if cfg.Market == nil {
		return fmt.Errorf("market is required")
	}
	if cfg.Lender == nil {
		return fmt.Errorf("lender is required")
	}
	if cfg.Bank == nil {
		return fmt.Errorf("bank is required")
	}
	if cfg.Address == "" || cfg.Owner == "" {
		return fmt.Errorf("address and owner are required")
	}
	if cfg.PegDenom == "" || cfg.RefDenom == "" || cfg.PegDenom == cfg.RefDenom {
		return fmt.Errorf("two distinct denoms are required")
	}
	if cfg.DefaultWeight.IsNil() || !cfg.DefaultWeight.IsPositive() {
		return fmt.Errorf("default weight must be positive")
	}
	if cfg.MaxPegWeight.IsNil() || !cfg.MaxPegWeight.GT(cfg.DefaultWeight) {
		return fmt.Errorf("max peg weight must exceed the default weight")
	}
	return nil
}

// ResyncResult summarizes one completed rebalance pass.
type ResyncResult struct {
	Direction   string
	TradeAmount sdkmath.Int
	Borrowed    sdkmath.Int
	PriorWeight sdkmath.Int
	NewWeight   sdkmath.Int
}

// Controller keeps the gated reserve pool's weights in sync with the oracle
// price by arbitraging the reference market with flash-borrowed peg asset.
type Controller struct {
	logger zerolog.Logger

	pool   *pool.GatedPool
	amm    pool.AMM
	oracle oracle.Oracle
	market market.Market
	lender loan.Lender
	bank   *ledger.Bank

	addr  string
	owner string

	pegDenom string
	refDenom string

	defaultWeight sdkmath.Int
	maxPegWeight  sdkmath.Int

	cooldown      time.Duration
	lastRebalance time.Time

	now func() time.Time

	// resyncActive guards against a lender callback arriving outside of a
	// resync this controller initiated.
	resyncActive bool
	pendingLoan  sdkmath.Int
	lastOutcome  ResyncResult
}

// New builds a Controller after validating its configuration.
func New(cfg Config) (*Controller, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid controller config: %w", err)
	}
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = defaultResyncCooldown
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Controller{
		logger:        logger.GetForComponent("controller"),
		pool:          cfg.Pool,
		amm:           cfg.AMM,
		oracle:        cfg.Oracle,
		market:        cfg.Market,
		lender:        cfg.Lender,
		bank:          cfg.Bank,
		addr:          cfg.Address,
		owner:         cfg.Owner,
		pegDenom:      cfg.PegDenom,
		refDenom:      cfg.RefDenom,
		defaultWeight: cfg.DefaultWeight,
		maxPegWeight:  cfg.MaxPegWeight,
		cooldown:      cooldown,
		now:           now,
		pendingLoan:   sdkmath.ZeroInt(),
	}, nil
}

// Address returns the controller's ledger account.
func (c *Controller) Address() string {
	return c.addr
}

// ResyncWeights runs one full rebalance: quote the oracle, size the
// price-restoring trade against the reference market, execute it under a
// flash loan, and re-anchor the pool weights to the market's post-trade
// reserves. On any failure every touched component is restored to its state
// before the call.
func (c *Controller) ResyncWeights() (ResyncResult, error) {
	if c.resyncActive {
		return ResyncResult{}, ErrReentrant
	}
	c.resyncActive = true
	defer func() { c.resyncActive = false }()

	quote, err := c.oracle.Consult(fixmath.ONE)
	if err != nil {
		return ResyncResult{}, fmt.Errorf("oracle quote failed: %w", err)
	}
	if !quote.IsPositive() {
		return ResyncResult{}, fmt.Errorf("oracle quote failed: non-positive price %s", quote)
	}

	reservePeg, reserveRef, err := c.market.GetReserves(c.pegDenom, c.refDenom)
	if err != nil {
		return ResyncResult{}, fmt.Errorf("reading market reserves: %w", err)
	}

	sellPeg, amountIn, err := ComputeProfitMaximizingTrade(fixmath.ONE, quote, reservePeg, reserveRef)
	if err != nil {
		return ResyncResult{}, fmt.Errorf("sizing trade: %w", err)
	}

	priorWeight, err := c.amm.GetDenormalizedWeight(c.pegDenom)
	if err != nil {
		return ResyncResult{}, fmt.Errorf("reading peg weight: %w", err)
	}

	if amountIn.IsZero() {
		c.logger.Debug().
			Str("quote", quote.String()).
			Msg("Market already on the oracle price, nothing to do")
		return ResyncResult{
			Direction:   types.DirectionNone,
			TradeAmount: sdkmath.ZeroInt(),
			Borrowed:    sdkmath.ZeroInt(),
			PriorWeight: priorWeight,
			NewWeight:   priorWeight,
		}, nil
	}

	// The borrowed asset is always the peg asset. Selling peg into the
	// market borrows the trade amount directly; buying peg borrows however
	// much peg the reserve pool charges for the ref-side trade amount.
	borrowed := amountIn
	if !sellPeg {
		borrowed, err = c.amm.CalcInGivenOut(c.pegDenom, c.refDenom, amountIn)
		if err != nil {
			return ResyncResult{}, fmt.Errorf("sizing borrow: %w", err)
		}
	}

	payload := encodePayload(sellPeg, priorWeight)

	c.logger.Info().
		Str("direction", directionLabel(sellPeg)).
		Str("trade_amount", amountIn.String()).
		Str("borrowed", borrowed.String()).
		Str("quote", quote.String()).
		Msg("Executing rebalance")

	err = txn.Run(func() error {
		c.pendingLoan = borrowed
		defer func() { c.pendingLoan = sdkmath.ZeroInt() }()
		return c.lender.FlashLoan(c, borrowed, payload)
	}, c.snapshotParticipants()...)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rebalance rolled back")
		return ResyncResult{}, err
	}

	out := c.lastOutcome
	out.Direction = directionLabel(sellPeg)
	out.TradeAmount = amountIn
	out.Borrowed = borrowed
	out.PriorWeight = priorWeight
	c.lastOutcome = out

	c.logger.Info().
		Str("prior_weight", out.PriorWeight.String()).
		Str("new_weight", out.NewWeight.String()).
		Msg("Rebalance committed")
	return out, nil
}

// ExecuteOnLoan is the flash loan callback. It runs the two trade legs,
// derives the new peg weight from the market's post-trade reserves, enforces
// the cooldown and ceiling, and commits the weight update. The lender
// verifies repayment after this returns.
func (c *Controller) ExecuteOnLoan(sender string, amount sdkmath.Int, payload []byte) error {
	if sender != c.lender.Address() {
		return ErrBadLender
	}
	if !c.resyncActive || !amount.Equal(c.pendingLoan) {
		return ErrNoPendingLoan
	}
	if c.bank.BalanceOf(c.pegDenom, c.addr).LT(amount) {
		return ErrShortBalance
	}

	sellPeg, priorWeight, err := decodePayload(payload)
	if err != nil {
		return err
	}

	if err := c.runLegs(sellPeg, amount); err != nil {
		return err
	}

	reservePeg, reserveRef, err := c.market.GetReserves(c.pegDenom, c.refDenom)
	if err != nil {
		return fmt.Errorf("reading post-trade reserves: %w", err)
	}
	ratio, err := fixmath.Div(reserveRef, reservePeg)
	if err != nil {
		return fmt.Errorf("deriving weight ratio: %w", err)
	}
	newWeight, err := fixmath.Mul(c.defaultWeight, ratio)
	if err != nil {
		return fmt.Errorf("deriving peg weight: %w", err)
	}

	now := c.now()
	if newWeight.GT(priorWeight) && newWeight.GT(c.defaultWeight) {
		if now.Sub(c.lastRebalance) < c.cooldown {
			return ErrCooldownActive
		}
	}
	c.lastRebalance = now

	if !newWeight.LT(c.maxPegWeight) {
		return fmt.Errorf("%w: %s >= %s", ErrCeiling, newWeight, c.maxPegWeight)
	}

	if err := c.pool.UpdateWeight(c.addr, c.pegDenom, newWeight); err != nil {
		return fmt.Errorf("updating peg weight: %w", err)
	}
	refWeight, err := c.amm.GetDenormalizedWeight(c.refDenom)
	if err != nil {
		return fmt.Errorf("reading reference weight: %w", err)
	}
	if !refWeight.Equal(c.defaultWeight) {
		if err := c.pool.UpdateWeight(c.addr, c.refDenom, c.defaultWeight); err != nil {
			return fmt.Errorf("restoring reference weight: %w", err)
		}
	}

	c.lastOutcome = ResyncResult{NewWeight: newWeight}
	return nil
}

// runLegs executes the market and reserve pool swaps in the order that leaves
// the repayment asset in the controller's account last.
func (c *Controller) runLegs(sellPeg bool, borrowed sdkmath.Int) error {
	deadline := c.now().Add(swapDeadline)

	if sellPeg {
		// Sell borrowed peg into the overpriced market, then feed the
		// reference proceeds back through the reserve pool for peg.
		amounts, err := c.market.SwapExactTokensForTokens(
			borrowed, sdkmath.ZeroInt(),
			[]string{c.pegDenom, c.refDenom}, c.addr, deadline,
		)
		if err != nil {
			return fmt.Errorf("market leg: %w", err)
		}
		refOut := amounts[len(amounts)-1]
		_, _, err = c.amm.SwapExactAmountIn(c.addr, c.refDenom, refOut, c.pegDenom, sdkmath.ZeroInt(), noPriceLimit)
		if err != nil {
			return fmt.Errorf("reserve pool leg: %w", err)
		}
		return nil
	}

	// Sell borrowed peg through the reserve pool for reference asset, then
	// buy cheap peg back on the market.
	refOut, _, err := c.amm.SwapExactAmountIn(c.addr, c.pegDenom, borrowed, c.refDenom, sdkmath.ZeroInt(), noPriceLimit)
	if err != nil {
		return fmt.Errorf("reserve pool leg: %w", err)
	}
	_, err = c.market.SwapExactTokensForTokens(
		refOut, sdkmath.ZeroInt(),
		[]string{c.refDenom, c.pegDenom}, c.addr, deadline,
	)
	if err != nil {
		return fmt.Errorf("market leg: %w", err)
	}
	return nil
}

// Params is the governance-adjustable parameter set. OracleEndpoint and
// MarketID are descriptive labels carried into the journal record.
type Params struct {
	Oracle       oracle.Oracle
	Market       market.Market
	MaxPegWeight sdkmath.Int
	SwapFee      sdkmath.Int
	PublicSwap   bool

	OracleEndpoint string
	MarketID       string
}

func validateParams(p Params) error {
	if p.Oracle == nil {
		return fmt.Errorf("%w: oracle is required", ErrParamBounds)
	}
	if p.Market == nil {
		return fmt.Errorf("%w: market is required", ErrParamBounds)
	}
	if p.MaxPegWeight.IsNil() {
		return fmt.Errorf("%w: max peg weight is required", ErrParamBounds)
	}
	if p.SwapFee.IsNil() {
		return fmt.Errorf("%w: swap fee is required", ErrParamBounds)
	}
	return nil
}

// SetParams swaps the oracle and market endpoints, moves the weight ceiling
// within its bounds, and forwards fee and public-swap settings to the pool.
// Only the governance owner may call it. Every committed change is journaled
// as a new active parameter version.
func (c *Controller) SetParams(caller string, p Params) error {
	if caller != c.owner {
		return ErrNotOwner
	}
	if err := validateParams(p); err != nil {
		return err
	}

	floor := c.defaultWeight.Quo(ceilingFloorDivisor)
	cap := c.defaultWeight.Mul(ceilingCapMultiplier)
	if p.MaxPegWeight.LT(floor) || p.MaxPegWeight.GT(cap) {
		return fmt.Errorf("%w: max peg weight %s outside [%s, %s]", ErrParamBounds, p.MaxPegWeight, floor, cap)
	}

	if err := c.pool.SetSwapFee(c.addr, p.SwapFee); err != nil {
		return fmt.Errorf("setting swap fee: %w", err)
	}
	if err := c.pool.SetPublicSwap(c.addr, p.PublicSwap); err != nil {
		return fmt.Errorf("setting public swap: %w", err)
	}

	c.oracle = p.Oracle
	c.market = p.Market
	c.maxPegWeight = p.MaxPegWeight

	c.journalParams(p)

	c.logger.Info().
		Str("max_peg_weight", p.MaxPegWeight.String()).
		Str("swap_fee", p.SwapFee.String()).
		Bool("public_swap", p.PublicSwap).
		Msg("Governance parameters updated")
	return nil
}

// Snapshot captures the controller's own rebalance bookkeeping so a failed
// resync restores the cooldown marker along with everything else.
func (c *Controller) Snapshot() func() {
	lastRebalance := c.lastRebalance
	lastOutcome := c.lastOutcome
	return func() {
		c.lastRebalance = lastRebalance
		c.lastOutcome = lastOutcome
	}
}

func (c *Controller) snapshotParticipants() []txn.Snapshotter {
	participants := []txn.Snapshotter{c.bank, c.pool}
	if snap, ok := c.market.(txn.Snapshotter); ok {
		participants = append(participants, snap)
	}
	participants = append(participants, c)
	return participants
}

func directionLabel(sellPeg bool) string {
	if sellPeg {
		return types.DirectionPegToRef
	}
	return types.DirectionRefToPeg
}
