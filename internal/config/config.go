package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/vbtc-network/arm/internal/utils"
)

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// PegDenom is the synthetic asset the reserve manager defends.
	PegDenom string
	// RefDenom is the reference asset it is priced against.
	RefDenom string

	// DefaultWeight is the denormalized weight both reserve assets carry at
	// the fair price, in whole weight units.
	DefaultWeight sdkmath.Int
	// MaxPegWeight is the exclusive ceiling for the peg asset's weight.
	MaxPegWeight sdkmath.Int
	// SwapFee is the reserve pool's swap fee as an 18-decimal fraction.
	SwapFee sdkmath.Int

	// ResyncInterval is the pause between resync cycles.
	ResyncInterval time.Duration
	// WeightCooldown is the minimum gap between rebalances that raise the
	// peg weight above the default.
	WeightCooldown time.Duration

	// PoolPegBalance and PoolRefBalance seed the reserve pool.
	PoolPegBalance sdkmath.Int
	PoolRefBalance sdkmath.Int
	// MarketPegReserve and MarketRefReserve seed the simulated reference
	// market pair.
	MarketPegReserve sdkmath.Int
	MarketRefReserve sdkmath.Int
)

// weightDecimals is the fixed-point precision of all on-ledger amounts.
const weightDecimals = 18

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	PegDenom, err = getEnv("ARM_PEG_DENOM")
	if err != nil {
		return err
	}

	RefDenom, err = getEnv("ARM_REF_DENOM")
	if err != nil {
		return err
	}
	if PegDenom == RefDenom {
		return errors.New("ARM_PEG_DENOM and ARM_REF_DENOM must differ")
	}

	DefaultWeight, err = getEnvAsFixedPoint("ARM_DEFAULT_WEIGHT")
	if err != nil {
		return err
	}

	MaxPegWeight, err = getEnvAsFixedPoint("ARM_MAX_PEG_WEIGHT")
	if err != nil {
		return err
	}

	SwapFee, err = getEnvAsFixedPoint("ARM_SWAP_FEE")
	if err != nil {
		return err
	}

	resyncMinutes, err := getEnvAsUint64("ARM_RESYNC_INTERVAL_MINUTES")
	if err != nil {
		return err
	}
	ResyncInterval = time.Duration(resyncMinutes) * time.Minute

	cooldownHours, err := getEnvAsUint64("ARM_WEIGHT_COOLDOWN_HOURS")
	if err != nil {
		return err
	}
	WeightCooldown = time.Duration(cooldownHours) * time.Hour

	PoolPegBalance, err = getEnvAsFixedPoint("ARM_POOL_PEG_BALANCE")
	if err != nil {
		return err
	}

	PoolRefBalance, err = getEnvAsFixedPoint("ARM_POOL_REF_BALANCE")
	if err != nil {
		return err
	}

	MarketPegReserve, err = getEnvAsFixedPoint("ARM_MARKET_PEG_RESERVE")
	if err != nil {
		return err
	}

	MarketRefReserve, err = getEnvAsFixedPoint("ARM_MARKET_REF_RESERVE")
	if err != nil {
		return err
	}

	// Load oracle configuration
	if err := loadOracleConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("PegDenom", PegDenom).
		Str("RefDenom", RefDenom).
		Str("DefaultWeight", DefaultWeight.String()).
		Dur("ResyncInterval", ResyncInterval).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFloat64 retrieves an environment variable as a float64. Returns error if not set or invalid.
func getEnvAsFloat64(key string) (float64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFixedPoint retrieves a decimal environment variable scaled to the
// ledger's 18-decimal fixed point.
func getEnvAsFixedPoint(key string) (sdkmath.Int, error) {
	value, err := getEnvAsFloat64(key)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	scaled, err := utils.Float64ToSDKInt(value, weightDecimals)
	if err != nil {
		return sdkmath.ZeroInt(), errors.New("environment variable " + key + ": " + err.Error())
	}
	return scaled, nil
}
