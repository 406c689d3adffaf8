package ledger_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbtc-network/arm/internal/ledger"
)

func TestMintBurnTransfer(t *testing.T) {
	bank := ledger.NewBank()

	require.NoError(t, bank.Mint("vbtc", "alice", sdkmath.NewInt(100)))
	assert.Equal(t, "100", bank.BalanceOf("vbtc", "alice").String())

	require.NoError(t, bank.Transfer("vbtc", "alice", "bob", sdkmath.NewInt(40)))
	assert.Equal(t, "60", bank.BalanceOf("vbtc", "alice").String())
	assert.Equal(t, "40", bank.BalanceOf("vbtc", "bob").String())

	require.NoError(t, bank.Burn("vbtc", "bob", sdkmath.NewInt(40)))
	assert.True(t, bank.BalanceOf("vbtc", "bob").IsZero())
}

func TestInsufficientFunds(t *testing.T) {
	bank := ledger.NewBank()
	require.NoError(t, bank.Mint("vbtc", "alice", sdkmath.NewInt(10)))

	err := bank.Transfer("vbtc", "alice", "bob", sdkmath.NewInt(11))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	err = bank.Burn("vbtc", "alice", sdkmath.NewInt(11))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Unknown denoms hold nothing.
	err = bank.Transfer("weth", "alice", "bob", sdkmath.NewInt(1))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestInvalidAmounts(t *testing.T) {
	bank := ledger.NewBank()

	err := bank.Mint("vbtc", "alice", sdkmath.NewInt(-1))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	err = bank.Transfer("vbtc", "alice", "bob", sdkmath.NewInt(-1))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestSnapshotRestoresBalances(t *testing.T) {
	bank := ledger.NewBank()
	require.NoError(t, bank.Mint("vbtc", "alice", sdkmath.NewInt(100)))

	restore := bank.Snapshot()
	require.NoError(t, bank.Transfer("vbtc", "alice", "bob", sdkmath.NewInt(70)))
	require.NoError(t, bank.Mint("weth", "carol", sdkmath.NewInt(5)))
	restore()

	assert.Equal(t, "100", bank.BalanceOf("vbtc", "alice").String())
	assert.True(t, bank.BalanceOf("vbtc", "bob").IsZero())
	assert.True(t, bank.BalanceOf("weth", "carol").IsZero())
}
