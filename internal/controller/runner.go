package controller

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/vbtc-network/arm/internal/state"
	"github.com/vbtc-network/arm/internal/types"
	"github.com/vbtc-network/arm/internal/utils"
)

// weightPrecision is the decimal precision used when journaling fixed-point
// amounts as floats.
const weightPrecision = 18

// RunLoop drives resync cycles at the given interval until the context is
// cancelled. The first cycle runs immediately.
func (c *Controller) RunLoop(ctx context.Context, interval time.Duration) {
	c.logger.Info().
		Dur("interval", interval).
		Msg("Starting resync loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cycle := 0

	cycle++
	c.logger.Info().Int("cycle", cycle).Msg("Initiating resync cycle")
	c.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Resync loop stopped due to context cancellation")
			return
		case <-ticker.C:
			cycle++
			c.logger.Info().Int("cycle", cycle).Msg("Initiating resync cycle")
			c.RunCycle(ctx)
		}
	}
}

// RunCycle executes one resync pass and journals its receipt.
func (c *Controller) RunCycle(ctx context.Context) types.RebalanceReceipt {
	cycleID := uuid.New().String()
	cycleLogger := c.logger.With().Str("cycle_id", cycleID).Logger()

	cycleLogger.Info().Msg("--- Starting resync cycle ---")

	receipt := types.RebalanceReceipt{
		CycleID:   cycleID,
		Timestamp: c.now(),
	}

	if err := ctx.Err(); err != nil {
		receipt.Direction = types.DirectionNone
		receipt.Message = err.Error()
		return receipt
	}

	result, err := c.ResyncWeights()
	if err != nil {
		receipt.Direction = types.DirectionNone
		receipt.Message = err.Error()
		cycleLogger.Error().Err(err).Msg("Resync cycle failed")
	} else {
		receipt.Direction = result.Direction
		receipt.Success = true
		receipt.TradeAmount = mustFloat(result.TradeAmount)
		receipt.BorrowedAmount = mustFloat(result.Borrowed)
		receipt.PriorWeight = mustFloat(result.PriorWeight)
		receipt.NewWeight = mustFloat(result.NewWeight)
		cycleLogger.Info().
			Str("direction", receipt.Direction).
			Float64("trade_amount", receipt.TradeAmount).
			Float64("new_weight", receipt.NewWeight).
			Msg("Resync cycle completed")
	}

	id, err := state.SaveRebalanceReceipt(receipt)
	if err != nil {
		cycleLogger.Warn().Err(err).Msg("Failed to journal rebalance receipt")
	} else {
		receipt.ReceiptID = id
	}

	return receipt
}

// journalParams records a committed governance change as the next active
// parameter version.
func (c *Controller) journalParams(p Params) {
	version, err := state.NextGovernanceVersion()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to journal governance parameters")
		return
	}

	record := types.GovernanceParams{
		OracleEndpoint: p.OracleEndpoint,
		MarketID:       p.MarketID,
		MaxPegWeight:   mustFloat(p.MaxPegWeight),
		SwapFee:        mustFloat(p.SwapFee),
		PublicSwap:     p.PublicSwap,
	}
	if _, err := state.SaveGovernanceParams(record, version, true); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to journal governance parameters")
	}
}

func mustFloat(amount sdkmath.Int) float64 {
	f, err := utils.SDKIntToFloat64(amount, weightPrecision)
	if err != nil {
		return 0
	}
	return f
}
