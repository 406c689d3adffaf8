package state

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vbtc-network/arm/internal/types"
)

// SaveRebalanceReceipt journals the outcome of one resync cycle and returns
// the assigned receipt ID.
func SaveRebalanceReceipt(receipt types.RebalanceReceipt) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO rebalance_receipts (
			cycle_id, receipt_timestamp, direction,
			trade_amount, borrowed_amount, prior_weight, new_weight,
			success, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING receipt_id
	`

	var id int64
	err := DB.QueryRow(query,
		receipt.CycleID, receipt.Timestamp, receipt.Direction,
		receipt.TradeAmount, receipt.BorrowedAmount, receipt.PriorWeight, receipt.NewWeight,
		receipt.Success, receipt.Message,
	).Scan(&id)
	if err != nil {
		log.Error().Err(err).Str("cycle_id", receipt.CycleID).Msg("Failed to save rebalance receipt")
		return 0, fmt.Errorf("failed to save rebalance receipt: %w", err)
	}

	log.Debug().Int64("receipt_id", id).Str("cycle_id", receipt.CycleID).Msg("Rebalance receipt saved")
	return id, nil
}

// GetRecentReceipts retrieves recent rebalance receipts, newest first.
func GetRecentReceipts(limit int) ([]types.RebalanceReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `
		SELECT receipt_id, cycle_id, receipt_timestamp, direction,
			COALESCE(trade_amount, 0), COALESCE(borrowed_amount, 0),
			COALESCE(prior_weight, 0), COALESCE(new_weight, 0),
			success, COALESCE(message, '')
		FROM rebalance_receipts
		ORDER BY receipt_timestamp DESC
		LIMIT $1
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query recent receipts")
		return nil, fmt.Errorf("failed to query recent receipts: %w", err)
	}
	defer rows.Close()

	var receipts []types.RebalanceReceipt
	for rows.Next() {
		var r types.RebalanceReceipt
		err := rows.Scan(
			&r.ReceiptID, &r.CycleID, &r.Timestamp, &r.Direction,
			&r.TradeAmount, &r.BorrowedAmount, &r.PriorWeight, &r.NewWeight,
			&r.Success, &r.Message,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan receipt row")
			continue
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return receipts, nil
}

// GetReceiptByID retrieves a single rebalance receipt.
func GetReceiptByID(id int64) (types.RebalanceReceipt, error) {
	var r types.RebalanceReceipt
	if DB == nil {
		return r, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT receipt_id, cycle_id, receipt_timestamp, direction,
			COALESCE(trade_amount, 0), COALESCE(borrowed_amount, 0),
			COALESCE(prior_weight, 0), COALESCE(new_weight, 0),
			success, COALESCE(message, '')
		FROM rebalance_receipts
		WHERE receipt_id = $1
	`
	err := DB.QueryRow(query, id).Scan(
		&r.ReceiptID, &r.CycleID, &r.Timestamp, &r.Direction,
		&r.TradeAmount, &r.BorrowedAmount, &r.PriorWeight, &r.NewWeight,
		&r.Success, &r.Message,
	)
	if err != nil {
		return r, fmt.Errorf("failed to load receipt %d: %w", id, err)
	}
	return r, nil
}

// ReceiptSummary represents aggregated rebalance statistics.
type ReceiptSummary struct {
	TotalCycles      int     `json:"total_cycles"`
	SuccessfulCycles int     `json:"successful_cycles"`
	TotalTraded      float64 `json:"total_traded"`
	TotalBorrowed    float64 `json:"total_borrowed"`
	LastNewWeight    float64 `json:"last_new_weight"`
}

// GetReceiptSummary aggregates rebalance receipts into high-level statistics.
func GetReceiptSummary() (ReceiptSummary, error) {
	var summary ReceiptSummary
	if DB == nil {
		return summary, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COALESCE(SUM(trade_amount) FILTER (WHERE success), 0),
			COALESCE(SUM(borrowed_amount) FILTER (WHERE success), 0)
		FROM rebalance_receipts
	`
	err := DB.QueryRow(query).Scan(
		&summary.TotalCycles, &summary.SuccessfulCycles,
		&summary.TotalTraded, &summary.TotalBorrowed,
	)
	if err != nil {
		return summary, fmt.Errorf("failed to aggregate receipts: %w", err)
	}

	lastQuery := `
		SELECT new_weight FROM rebalance_receipts
		WHERE success ORDER BY receipt_timestamp DESC LIMIT 1
	`
	if err := DB.QueryRow(lastQuery).Scan(&summary.LastNewWeight); err != nil {
		// No successful cycle yet is not an error for the summary.
		summary.LastNewWeight = 0
	}

	return summary, nil
}
