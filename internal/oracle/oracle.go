/*
Price oracle consumed by the rebalancing controller.

Consult quotes the counter-value of an amount of the peg asset in the
reference asset, both at 10^18 scale.
*/

package oracle

import (
	sdkmath "cosmossdk.io/math"

	"github.com/vbtc-network/arm/internal/fixmath"
)

// Oracle quotes reference-asset counter-value for peg-asset amounts.
type Oracle interface {
	Consult(amount sdkmath.Int) (sdkmath.Int, error)
}

// Fixed is an Oracle returning a constant unit price. Used by the sim mode
// and tests.
type Fixed struct {
	// UnitPrice is the reference-asset value of fixmath.ONE of the peg asset.
	UnitPrice sdkmath.Int
}

// NewFixed returns a fixed-quote oracle.
func NewFixed(unitPrice sdkmath.Int) *Fixed {
	return &Fixed{UnitPrice: unitPrice}
}

// Consult implements Oracle by linear scaling of the unit price.
func (f *Fixed) Consult(amount sdkmath.Int) (sdkmath.Int, error) {
	return fixmath.MulDiv(amount, f.UnitPrice, fixmath.ONE)
}
