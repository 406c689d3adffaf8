package config

import (
	"errors"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
)

// Oracle configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// OracleMode selects the price source: "fixed" or "http".
	OracleMode string
	// OracleURL is the price endpoint used in http mode.
	OracleURL string
	// OracleFixedPrice is the reference price used in fixed mode, as an
	// 18-decimal amount of the reference asset per unit of the peg asset.
	OracleFixedPrice sdkmath.Int
)

// loadOracleConfig loads oracle configuration from environment variables.
// This function is called by LoadConfig() in config.go.
func loadOracleConfig() error {
	log.Info().Msg("Loading oracle configuration from environment variables...")

	var err error

	OracleMode, err = getEnv("ARM_ORACLE_MODE")
	if err != nil {
		return err
	}

	switch OracleMode {
	case "http":
		OracleURL, err = getEnv("ARM_ORACLE_URL")
		if err != nil {
			return err
		}
	case "fixed":
		OracleFixedPrice, err = getEnvAsFixedPoint("ARM_ORACLE_FIXED_PRICE")
		if err != nil {
			return err
		}
	default:
		return errors.New("environment variable ARM_ORACLE_MODE must be 'fixed' or 'http', got: " + OracleMode)
	}

	log.Debug().
		Str("OracleMode", OracleMode).
		Str("OracleURL", OracleURL).
		Msg("Oracle configuration loaded successfully.")

	return nil
}
