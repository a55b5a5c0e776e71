package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/tradesim-api/internal/auth"
	"github.com/ksred/tradesim-api/internal/backtest"
	"github.com/ksred/tradesim-api/internal/database"
	"github.com/ksred/tradesim-api/internal/execution"
	"github.com/ksred/tradesim-api/internal/marketdata"
	"github.com/ksred/tradesim-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the paper trading API server with graceful
// shutdown support. It wires the execution engine, its background order
// processor, the backtest service and all API routes.
func main() {
	db, err := database.NewDatabase(os.Getenv("DB_PATH"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	router := gin.Default()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "tradesim-secret-key"
	}

	authService := auth.NewService(jwtSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	executionDB := execution.NewDatabase(db)
	engine := execution.NewEngine(engineConfigFromEnv()).WithDatabase(executionDB)
	executionHandlers := execution.NewGinHandlers(engine, executionDB)

	provider := marketdata.NewSyntheticProvider(time.Now().UnixNano(), 500)

	backtestService := backtest.NewService(provider, backtest.NewDatabase(db))
	backtestHandlers := backtest.NewGinHandlers(backtestService)

	// Resolve pending paper orders against fresh quotes in the background
	processor := execution.NewProcessor(engine, provider, 30*time.Second)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go processor.Start(processorCtx)

	router.Use(middleware.RateLimit())

	setupRoutes(router, jwtSecret, authHandlers, executionHandlers, backtestHandlers)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// engineConfigFromEnv reads the paper account's risk configuration.
// Defaults: 100k starting cash, trading enabled, 5 open positions.
func engineConfigFromEnv() execution.Config {
	config := execution.Config{
		InitialCash:      100000.0,
		TradingEnabled:   true,
		MaxOpenPositions: 5,
	}

	if v := os.Getenv("INITIAL_CASH"); v != "" {
		if cash, err := strconv.ParseFloat(v, 64); err == nil && cash > 0 {
			config.InitialCash = cash
		}
	}
	if v := os.Getenv("MAX_OPEN_POSITIONS"); v != "" {
		if max, err := strconv.Atoi(v); err == nil && max >= 0 {
			config.MaxOpenPositions = max
		}
	}
	if os.Getenv("TRADING_ENABLED") == "false" {
		config.TradingEnabled = false
	}

	return config
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Order/portfolio routes: Protected by JWT authentication
// - Internal routes: Operator endpoints (kill switch, backtests)
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	executionHandlers *execution.GinHandlers,
	backtestHandlers *backtest.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.JWTAuth(jwtSecret))
		{
			orders.POST("", executionHandlers.PlaceOrderHandler())
			orders.GET("/:order_id", executionHandlers.GetOrderHandler())
			orders.DELETE("/:order_id", executionHandlers.CancelOrderHandler())
		}

		// Read-only portfolio projections
		portfolio := v1.Group("/")
		portfolio.Use(middleware.JWTAuth(jwtSecret))
		{
			portfolio.GET("portfolio", executionHandlers.GetPortfolioHandler())
			portfolio.GET("account", executionHandlers.GetAccountHandler())
			portfolio.GET("trades", executionHandlers.GetTradesHandler())
		}

		// Internal routes (should be protected by internal network)
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(jwtSecret))
		{
			internal.POST("/trading/enable", executionHandlers.SetTradingEnabledHandler(true))
			internal.POST("/trading/disable", executionHandlers.SetTradingEnabledHandler(false))
			internal.POST("/backtest", backtestHandlers.RunHandler())
			internal.GET("/backtest", backtestHandlers.ListResultsHandler())
			internal.GET("/backtest/:run_id", backtestHandlers.GetResultHandler())
		}
	}
}
