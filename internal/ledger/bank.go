/*
In-memory token balance book.

Plays the role of the asset ledger the on-chain environment would provide:
every component (pool, controller, reference market, lender) is an address
holding denominated balances. A transfer that cannot be honored is the
hard transfer fault the rest of the system treats as fatal.
*/

package ledger

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/vbtc-network/arm/internal/logger"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must not be negative")
)

// Bank tracks per-denom, per-address balances.
type Bank struct {
	balances map[string]map[string]sdkmath.Int // denom -> address -> amount
	logger   zerolog.Logger
}

// NewBank creates an empty balance book.
func NewBank() *Bank {
	return &Bank{
		balances: make(map[string]map[string]sdkmath.Int),
		logger:   logger.GetForComponent("bank"),
	}
}

func (b *Bank) denomBook(denom string) map[string]sdkmath.Int {
	book, ok := b.balances[denom]
	if !ok {
		book = make(map[string]sdkmath.Int)
		b.balances[denom] = book
	}
	return book
}

// BalanceOf returns the balance of addr in denom. Unknown accounts hold zero.
func (b *Bank) BalanceOf(denom, addr string) sdkmath.Int {
	if book, ok := b.balances[denom]; ok {
		if amt, ok := book[addr]; ok {
			return amt
		}
	}
	return sdkmath.ZeroInt()
}

// Mint credits amount of denom to addr.
func (b *Bank) Mint(denom, addr string, amount sdkmath.Int) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	book := b.denomBook(denom)
	book[addr] = b.BalanceOf(denom, addr).Add(amount)
	return nil
}

// Burn debits amount of denom from addr.
func (b *Bank) Burn(denom, addr string, amount sdkmath.Int) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	bal := b.BalanceOf(denom, addr)
	if bal.LT(amount) {
		return fmt.Errorf("%w: burn %s %s from %s (balance %s)",
			ErrInsufficientFunds, amount, denom, addr, bal)
	}
	b.denomBook(denom)[addr] = bal.Sub(amount)
	return nil
}

// Transfer moves amount of denom between accounts.
func (b *Bank) Transfer(denom, from, to string, amount sdkmath.Int) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	bal := b.BalanceOf(denom, from)
	if bal.LT(amount) {
		return fmt.Errorf("%w: transfer %s %s from %s to %s (balance %s)",
			ErrInsufficientFunds, amount, denom, from, to, bal)
	}
	book := b.denomBook(denom)
	book[from] = bal.Sub(amount)
	book[to] = b.BalanceOf(denom, to).Add(amount)
	return nil
}

// Snapshot implements txn.Snapshotter.
func (b *Bank) Snapshot() (restore func()) {
	saved := make(map[string]map[string]sdkmath.Int, len(b.balances))
	for denom, book := range b.balances {
		copied := make(map[string]sdkmath.Int, len(book))
		for addr, amt := range book {
			copied[addr] = amt
		}
		saved[denom] = copied
	}
	return func() {
		b.balances = saved
	}
}
