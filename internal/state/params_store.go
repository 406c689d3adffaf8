package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vbtc-network/arm/internal/types"
)

// SaveGovernanceParams saves a new version of governance parameters.
func SaveGovernanceParams(params types.GovernanceParams, version int, makeActive bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE governance_params SET is_active = FALSE WHERE is_active = TRUE;`
		_, err = tx.Exec(stmtDeactivate)
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters: %w", err)
		}
	}

	stmt := `
		INSERT INTO governance_params (
			version, is_active, oracle_endpoint, market_id,
			max_peg_weight, swap_fee, public_swap
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING params_id;`

	var paramsID int64
	err = tx.QueryRow(
		stmt,
		version, makeActive, params.OracleEndpoint, params.MarketID,
		params.MaxPegWeight, params.SwapFee, params.PublicSwap,
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert governance parameters: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int("version", version).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved governance parameters")
	return paramsID, nil
}

// NextGovernanceVersion returns one past the highest stored parameter version.
func NextGovernanceVersion() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	var latest int
	err := DB.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM governance_params`).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest governance version: %w", err)
	}
	return latest + 1, nil
}

// LoadActiveGovernanceParams loads the currently active governance parameters.
// Returns nil without error when no parameters have been stored yet.
func LoadActiveGovernanceParams() (*types.GovernanceParams, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT oracle_endpoint, market_id, max_peg_weight, swap_fee, public_swap
		FROM governance_params
		WHERE is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`
	var params types.GovernanceParams
	err := DB.QueryRow(query).Scan(
		&params.OracleEndpoint, &params.MarketID,
		&params.MaxPegWeight, &params.SwapFee, &params.PublicSwap,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active governance parameters: %w", err)
	}
	return &params, nil
}
