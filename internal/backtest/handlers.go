package backtest

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ksred/tradesim-api/internal/marketdata"
	"github.com/ksred/tradesim-api/internal/strategy"
	"github.com/ksred/tradesim-api/pkg/response"
)

// Service runs backtests against a market data provider and records
// their results.
type Service struct {
	provider marketdata.Provider
	db       *Database
}

func NewService(provider marketdata.Provider, db *Database) *Service {
	return &Service{
		provider: provider,
		db:       db,
	}
}

// Run fetches the symbol's history, runs the named strategy over it and
// persists the result.
func (s *Service) Run(symbol, strategyName string, config Config) (*Result, error) {
	strat, err := strategyByName(strategyName)
	if err != nil {
		return nil, err
	}

	stock, err := s.provider.GetStock(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", symbol, err)
	}

	result, err := NewBacktester(strat, config).Run(stock)
	if err != nil {
		return nil, err
	}

	if s.db != nil {
		if err := s.db.CreateResult(result); err != nil {
			return nil, fmt.Errorf("failed to persist backtest result: %w", err)
		}
	}
	return result, nil
}

func strategyByName(name string) (strategy.Strategy, error) {
	switch name {
	case "sma_crossover":
		return strategy.NewSMACrossover(), nil
	case "rsi_reversion":
		return strategy.NewRSIMeanReversion(), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
}

// GinHandlers contains HTTP handlers for backtest endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// RunRequest is the body for triggering a backtest
type RunRequest struct {
	Symbol      string  `json:"symbol" binding:"required"`
	Strategy    string  `json:"strategy" binding:"required"`
	InitialCash float64 `json:"initial_cash"`
	WarmupBars  int     `json:"warmup_bars"`
	BuyQuantity int     `json:"buy_quantity"`
}

// RunHandler handles POST requests to run a backtest synchronously.
// Internal route: operators only.
func (h *GinHandlers) RunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		config := DefaultConfig()
		if req.InitialCash > 0 {
			config.InitialCash = req.InitialCash
		}
		if req.WarmupBars > 0 {
			config.WarmupBars = req.WarmupBars
		}
		if req.BuyQuantity > 0 {
			config.BuyQuantity = req.BuyQuantity
		}

		result, err := h.service.Run(req.Symbol, req.Strategy, config)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		response.Success(c, result)
	}
}

// GetResultHandler handles GET requests for a stored backtest result.
// URL parameter: run_id
func (h *GinHandlers) GetResultHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		runID := c.Param("run_id")

		// A service without a result store has nothing to look up
		if h.service.db == nil {
			response.NotFound(c, "Backtest run not found")
			return
		}

		result, err := h.service.db.GetResult(runID)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if result == nil {
			response.NotFound(c, "Backtest run not found")
			return
		}

		response.Success(c, result)
	}
}

// ListResultsHandler handles GET requests for all stored backtest
// results, newest first.
func (h *GinHandlers) ListResultsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.service.db == nil {
			response.Success(c, []Result{})
			return
		}

		results, err := h.service.db.ListResults()
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, results)
	}
}
