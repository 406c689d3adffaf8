package utils_test

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbtc-network/arm/internal/utils"
)

func TestSDKIntToFloat64(t *testing.T) {
	f, err := utils.SDKIntToFloat64(sdkmath.NewInt(1_500_000_000_000_000_000), 18)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 1e-12)

	f, err = utils.SDKIntToFloat64(sdkmath.NewInt(123_456), 0)
	require.NoError(t, err)
	assert.Equal(t, 123456.0, f)

	_, err = utils.SDKIntToFloat64(sdkmath.NewInt(1), 19)
	assert.ErrorIs(t, err, utils.ErrInvalidPrecision)

	_, err = utils.SDKIntToFloat64(sdkmath.Int{}, 18)
	assert.ErrorIs(t, err, utils.ErrAmountNil)

	_, err = utils.SDKIntToFloat64(sdkmath.NewInt(-1), 18)
	assert.ErrorIs(t, err, utils.ErrAmountNegative)
}

func TestFloat64ToSDKInt(t *testing.T) {
	v, err := utils.Float64ToSDKInt(1.5, 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = utils.Float64ToSDKInt(0, 18)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = utils.Float64ToSDKInt(10.03, 18)
	require.NoError(t, err)
	assert.Equal(t, "10030000000000000000", v.String())

	// Digits beyond the requested precision truncate.
	v, err = utils.Float64ToSDKInt(1.239, 2)
	require.NoError(t, err)
	assert.Equal(t, "123", v.String())

	_, err = utils.Float64ToSDKInt(-1, 18)
	assert.ErrorIs(t, err, utils.ErrAmountNegative)

	_, err = utils.Float64ToSDKInt(math.NaN(), 18)
	assert.ErrorIs(t, err, utils.ErrNotFinite)

	_, err = utils.Float64ToSDKInt(1, -1)
	assert.ErrorIs(t, err, utils.ErrInvalidPrecision)
}

func TestFloatRoundTripPreservesScale(t *testing.T) {
	start := sdkmath.NewInt(3_539_745_405_810_513_525)

	f, err := utils.SDKIntToFloat64(start, 18)
	require.NoError(t, err)

	back, err := utils.Float64ToSDKInt(f, 18)
	require.NoError(t, err)

	// Float64 keeps ~15 significant digits; the round trip must stay within
	// that precision of the original.
	diff := start.Sub(back).Abs()
	assert.True(t, diff.LT(sdkmath.NewInt(10_000)), "diff %s", diff)
}
