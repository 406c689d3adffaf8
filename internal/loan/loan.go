/*
Atomic-loan primitive.

FlashLoan credits the borrower, synchronously invokes its callback, then
verifies repayment out of the borrower's post-callback balance. Any shortfall
fails the loan, and the enclosing atomic scope is responsible for unwinding
everything the callback did.
*/

package loan

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/vbtc-network/arm/internal/ledger"
	"github.com/vbtc-network/arm/internal/logger"
)

var (
	ErrUnpaid        = errors.New("loan not repaid")
	ErrInvalidAmount = errors.New("loan amount must be positive")
)

// Borrower is the synchronous callback target of a flash loan. sender is the
// lender's identity, for caller verification.
type Borrower interface {
	ExecuteOnLoan(sender string, amount sdkmath.Int, payload []byte) error
	Address() string
}

// Lender issues atomic loans of a single denom.
type Lender interface {
	FlashLoan(borrower Borrower, amount sdkmath.Int, payload []byte) error
	Address() string
}

// MintLender lends by minting the denom and burning the repayment, the way
// the synthetic asset's issuer can. Used by the sim mode and tests.
type MintLender struct {
	logger zerolog.Logger
	bank   *ledger.Bank
	addr   string
	denom  string
}

// NewMintLender returns a lender minting denom under the addr identity.
func NewMintLender(addr, denom string, bank *ledger.Bank) *MintLender {
	return &MintLender{
		logger: logger.GetForComponent("flash_lender"),
		bank:   bank,
		addr:   addr,
		denom:  denom,
	}
}

// Address implements Lender.
func (l *MintLender) Address() string { return l.addr }

// FlashLoan implements Lender: mint to the borrower, invoke the callback,
// verify and burn the repayment.
func (l *MintLender) FlashLoan(borrower Borrower, amount sdkmath.Int, payload []byte) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if err := l.bank.Mint(l.denom, borrower.Address(), amount); err != nil {
		return err
	}
	l.logger.Debug().
		Str("borrower", borrower.Address()).
		Str("amount", amount.String()).
		Msg("Loan issued")

	if err := borrower.ExecuteOnLoan(l.addr, amount, payload); err != nil {
		return err
	}

	if l.bank.BalanceOf(l.denom, borrower.Address()).LT(amount) {
		return fmt.Errorf("%w: borrower %s holds %s of %s owed",
			ErrUnpaid, borrower.Address(), l.bank.BalanceOf(l.denom, borrower.Address()), amount)
	}
	if err := l.bank.Burn(l.denom, borrower.Address(), amount); err != nil {
		return err
	}
	l.logger.Debug().
		Str("borrower", borrower.Address()).
		Str("amount", amount.String()).
		Msg("Loan repaid")
	return nil
}
