package main

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/vbtc-network/arm/internal/amm"
	"github.com/vbtc-network/arm/internal/config"
	"github.com/vbtc-network/arm/internal/controller"
	"github.com/vbtc-network/arm/internal/ledger"
	"github.com/vbtc-network/arm/internal/loan"
	"github.com/vbtc-network/arm/internal/logger"
	"github.com/vbtc-network/arm/internal/market"
	"github.com/vbtc-network/arm/internal/oracle"
	"github.com/vbtc-network/arm/internal/pool"
	"github.com/vbtc-network/arm/internal/state"
	"github.com/vbtc-network/arm/internal/types"
	"github.com/vbtc-network/arm/internal/utils"
	"github.com/vbtc-network/arm/internal/web"
)

// Ledger accounts of the simulated deployment.
const (
	controllerAccount = "arm_controller"
	governanceAccount = "arm_governance"
	poolAccount       = "arm_reserve_pool"
	ammAccount        = "arm_weighted_amm"
	marketAccount     = "arm_ref_market"
	lenderAccount     = "arm_mint_authority"
	seedAccount       = "arm_market_seed"

	shareDenom = "armlp"
)

// main is the entry point for the ARM system.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("ARM Core Logic Starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Journal the configured governance parameters if none are active yet.
	if err := ensureGovernanceParams(); err != nil {
		log.Fatal().Err(err).Msg("Failed to record governance parameters")
	}

	// --- Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting ARM web dashboard")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 2. Simulated Deployment Construction ---
	bank := ledger.NewBank()

	priceSource := buildOracle()

	pair := market.NewPair(marketAccount, config.PegDenom, config.RefDenom, bank)
	if err := seedMarket(bank, pair); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed the reference market")
	}

	weighted := amm.NewWeightedPool(ammAccount, poolAccount, bank)

	gated, err := buildReservePool(bank, weighted)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize the reserve pool")
	}

	lender := loan.NewMintLender(lenderAccount, config.PegDenom, bank)

	// --- 3. Create Controller Instance with Dependency Injection ---
	log.Info().Msg("Creating controller instance with dependency injection...")

	ctrl, err := controller.New(controller.Config{
		Pool:          gated,
		AMM:           weighted,
		Oracle:        priceSource,
		Market:        pair,
		Lender:        lender,
		Bank:          bank,
		Address:       controllerAccount,
		Owner:         governanceAccount,
		PegDenom:      config.PegDenom,
		RefDenom:      config.RefDenom,
		DefaultWeight: config.DefaultWeight,
		MaxPegWeight:  config.MaxPegWeight,
		Cooldown:      config.WeightCooldown,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create controller instance")
	}

	log.Info().Msg("Controller instance created successfully")

	// --- 4. Start Resync Loop ---
	log.Info().Str("interval", config.ResyncInterval.String()).Msg("Starting resync loop")

	ctx := context.Background()
	ctrl.RunLoop(ctx, config.ResyncInterval)
}

// buildOracle selects the configured price source.
func buildOracle() oracle.Oracle {
	if config.OracleMode == "http" {
		return oracle.NewHTTPClient(config.OracleURL)
	}
	return oracle.NewFixed(config.OracleFixedPrice)
}

// seedMarket funds and seeds the simulated reference market pair.
func seedMarket(bank *ledger.Bank, pair *market.Pair) error {
	if err := bank.Mint(config.PegDenom, seedAccount, config.MarketPegReserve); err != nil {
		return err
	}
	if err := bank.Mint(config.RefDenom, seedAccount, config.MarketRefReserve); err != nil {
		return err
	}
	return pair.AddLiquidity(seedAccount, config.MarketPegReserve, config.MarketRefReserve)
}

// buildReservePool funds the controller account with the initial reserves and
// walks the pool through its create transition.
func buildReservePool(bank *ledger.Bank, weighted *amm.WeightedPool) (*pool.GatedPool, error) {
	if err := bank.Mint(config.PegDenom, controllerAccount, config.PoolPegBalance); err != nil {
		return nil, err
	}
	if err := bank.Mint(config.RefDenom, controllerAccount, config.PoolRefBalance); err != nil {
		return nil, err
	}

	// A working treasury on top of the bound reserves: weight increases pull
	// the proportional balance from the controller's own account.
	if err := bank.Mint(config.PegDenom, controllerAccount, config.PoolPegBalance); err != nil {
		return nil, err
	}
	if err := bank.Mint(config.RefDenom, controllerAccount, config.PoolRefBalance); err != nil {
		return nil, err
	}

	gated, err := pool.New(pool.Config{
		ShareDenom: shareDenom,
		Address:    poolAccount,
		Owner:      controllerAccount,
		Rights:     pool.AllRights(),
		Tokens: []pool.BoundToken{
			{Denom: config.PegDenom, Balance: config.PoolPegBalance, Denorm: config.DefaultWeight},
			{Denom: config.RefDenom, Balance: config.PoolRefBalance, Denorm: config.DefaultWeight},
		},
		SwapFee:       config.SwapFee,
		InitialSupply: pool.MinPoolSupply,
		AMM:           weighted,
		Bank:          bank,
	})
	if err != nil {
		return nil, err
	}
	if err := gated.Create(controllerAccount); err != nil {
		return nil, err
	}
	return gated, nil
}

// ensureGovernanceParams records the configured parameter set as version 1
// when the table is still empty.
func ensureGovernanceParams() error {
	active, err := state.LoadActiveGovernanceParams()
	if err != nil {
		return err
	}
	if active != nil {
		return nil
	}

	maxPegWeight, err := utils.SDKIntToFloat64(config.MaxPegWeight, 18)
	if err != nil {
		return err
	}
	swapFee, err := utils.SDKIntToFloat64(config.SwapFee, 18)
	if err != nil {
		return err
	}

	params := types.GovernanceParams{
		OracleEndpoint: config.OracleURL,
		MarketID:       config.PegDenom + "/" + config.RefDenom,
		MaxPegWeight:   maxPegWeight,
		SwapFee:        swapFee,
		PublicSwap:     true,
	}
	_, err = state.SaveGovernanceParams(params, 1, true)
	return err
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
