package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS rebalance_receipts (
			receipt_id SERIAL PRIMARY KEY,
			cycle_id VARCHAR(64) NOT NULL,
			receipt_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			direction VARCHAR(16) NOT NULL,
			trade_amount DECIMAL(40, 18),
			borrowed_amount DECIMAL(40, 18),
			prior_weight DECIMAL(40, 18),
			new_weight DECIMAL(40, 18),
			success BOOLEAN NOT NULL,
			message TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_rebalance_receipts_timestamp ON rebalance_receipts(receipt_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_rebalance_receipts_cycle ON rebalance_receipts(cycle_id);
		CREATE INDEX IF NOT EXISTS idx_rebalance_receipts_direction ON rebalance_receipts(direction);

		CREATE TABLE IF NOT EXISTS governance_params (
			params_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			oracle_endpoint TEXT NOT NULL,
			market_id VARCHAR(64) NOT NULL,
			max_peg_weight DECIMAL(40, 18) NOT NULL,
			swap_fee DECIMAL(40, 18) NOT NULL,
			public_swap BOOLEAN NOT NULL,
			CONSTRAINT uq_governance_params_version UNIQUE (version)
		);
		CREATE INDEX IF NOT EXISTS idx_governance_params_active ON governance_params(is_active, created_at DESC);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
