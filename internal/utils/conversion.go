/*
Conversions between fixed-point SDK integers and floats, used when journaling
amounts to the database and when parsing human-entered decimal values.
*/

package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// SDKIntToFloat64 converts a fixed-point integer with the given decimal
// precision to a float64. Precision must be between 0 and 18.
func SDKIntToFloat64(amount sdkmath.Int, precision int) (float64, error) {
	if precision < 0 || precision > 18 {
		return 0, fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, precision)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	scale := sdkmath.LegacyNewDec(10).Power(uint64(precision))
	result, err := sdkmath.LegacyNewDecFromInt(amount).Quo(scale).Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, result)
	}
	return result, nil
}

// Float64ToSDKInt converts a non-negative float64 to a fixed-point integer
// with the given decimal precision. The value goes through its decimal string
// form to avoid binary floating point drift.
func Float64ToSDKInt(amount float64, precision int) (sdkmath.Int, error) {
	if precision < 0 || precision > 18 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, precision)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: amount is %f", ErrNotFinite, amount)
	}
	if amount < 0 {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if amount == 0 {
		return sdkmath.ZeroInt(), nil
	}

	// Shortest round-trip form, so 10.03 parses as 10.03 rather than the
	// expanded binary representation 10.029999999999999361.
	dec, err := sdkmath.LegacyNewDecFromStr(strconv.FormatFloat(amount, 'f', -1, 64))
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	scale := sdkmath.LegacyNewDec(10).Power(uint64(precision))
	return dec.Mul(scale).TruncateInt(), nil
}
