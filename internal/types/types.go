/*
Shared domain records for the reserve manager.
*/

package types

import "time"

// Trade direction relative to the external reference market.
const (
	DirectionNone     = "none"
	DirectionPegToRef = "peg_to_ref" // sell the peg asset into the reference market
	DirectionRefToPeg = "ref_to_peg" // buy the peg asset on the reference market
)

// RebalanceReceipt records the outcome of one resync cycle, successful or not.
type RebalanceReceipt struct {
	ReceiptID      int64     `json:"receipt_id"`
	CycleID        string    `json:"cycle_id"`
	Timestamp      time.Time `json:"timestamp"`
	Direction      string    `json:"direction"`
	TradeAmount    float64   `json:"trade_amount"`
	BorrowedAmount float64   `json:"borrowed_amount"`
	PriorWeight    float64   `json:"prior_weight"`
	NewWeight      float64   `json:"new_weight"`
	Success        bool      `json:"success"`
	Message        string    `json:"message,omitempty"`
}

// GovernanceParams is the owner-controlled parameter set of the controller,
// versioned and journaled whenever it changes.
type GovernanceParams struct {
	OracleEndpoint string  `json:"oracle_endpoint"`
	MarketID       string  `json:"market_id"`
	MaxPegWeight   float64 `json:"max_peg_weight"`
	SwapFee        float64 `json:"swap_fee"`
	PublicSwap     bool    `json:"public_swap"`
}
