package pool

import (
	sdkmath "cosmossdk.io/math"

	"github.com/vbtc-network/arm/internal/fixmath"
)

// Bounds on pool configuration, denominated at fixmath.ONE scale.
var (
	MinWeight      = fixmath.ONE
	MaxWeight      = fixmath.ONE.MulRaw(50)
	MaxTotalWeight = fixmath.ONE.MulRaw(50)
	MinBalance     = fixmath.ONE.QuoRaw(1_000_000_000_000)

	MinFee = fixmath.ONE.QuoRaw(1_000_000)
	MaxFee = fixmath.ONE.QuoRaw(10)

	MinPoolSupply = fixmath.ONE.MulRaw(100)
	MaxPoolSupply = fixmath.ONE.MulRaw(1_000_000_000)

	// ExitFee is charged on pool-share exits. Currently zero, but kept in the
	// exit math path so a nonzero fee needs no structural change.
	ExitFee = sdkmath.ZeroInt()
)
