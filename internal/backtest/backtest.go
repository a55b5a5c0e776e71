// Package backtest replays a bounded price history through a strategy
// and a dedicated execution engine, one bar at a time. Correctness
// depends on strict bar order on a single goroutine: the strategy and
// indicator computation only ever see the prefix of history up to the
// current bar, which is the sole mechanism preventing lookahead bias.
// Independent runs (different symbols or strategies) may execute in
// parallel, each with its own engine and no shared state.
package backtest

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ksred/tradesim-api/internal/analysis"
	"github.com/ksred/tradesim-api/internal/execution"
	"github.com/ksred/tradesim-api/internal/strategy"
	"github.com/ksred/tradesim-api/internal/types"
	"github.com/rs/zerolog/log"
)

// Config controls a backtest run. Sizing is deliberately configurable:
// the defaults (fixed-quantity buys, full-position exits) are a policy
// choice, not the only sensible one.
type Config struct {
	InitialCash float64

	// WarmupBars is the number of bars used only to seed indicators
	// before any trading decision is made. Defaults to the longest
	// indicator lookback, 200.
	WarmupBars int

	// BuyQuantity is the fixed number of shares bought per BUY signal.
	BuyQuantity int

	// MaxOpenPositions is passed through to the engine's risk gate.
	// Zero means no cap, which single-symbol backtests want so that
	// averaging into an existing position is never blocked.
	MaxOpenPositions int
}

// DefaultConfig mirrors the historical sizing policy: 100k starting
// cash, 200 warm-up bars, 10 shares per buy, no position cap.
func DefaultConfig() Config {
	return Config{
		InitialCash: 100000.0,
		WarmupBars:  200,
		BuyQuantity: 10,
	}
}

// Backtester drives one strategy over one stock's history.
type Backtester struct {
	strategy strategy.Strategy
	config   Config
}

func NewBacktester(strat strategy.Strategy, config Config) *Backtester {
	if config.WarmupBars <= 0 {
		config.WarmupBars = 200
	}
	if config.BuyQuantity <= 0 {
		config.BuyQuantity = 10
	}
	return &Backtester{
		strategy: strat,
		config:   config,
	}
}

// Run replays the stock's history bar by bar. A history shorter than
// the warm-up window produces a zero-trade result, not an error.
func (b *Backtester) Run(stock *types.Stock) (*Result, error) {
	logger := log.With().
		Str("component", "backtester").
		Str("strategy", b.strategy.Name()).
		Str("symbol", stock.Symbol).
		Logger()

	engine := execution.NewEngine(execution.Config{
		InitialCash:      b.config.InitialCash,
		TradingEnabled:   true,
		MaxOpenPositions: b.config.MaxOpenPositions,
	})

	history := make([]types.Bar, len(stock.History))
	copy(history, stock.History)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})

	logger.Info().
		Int("bars", len(history)).
		Int("warmup", b.config.WarmupBars).
		Msg("starting backtest")

	barsTraded := 0
	for i := b.config.WarmupBars; i < len(history); i++ {
		// The as-of view: bars up to and including i, nothing beyond.
		asOf := history[:i+1]
		currentBar := asOf[len(asOf)-1]

		view := &types.Stock{
			Symbol:       stock.Symbol,
			CurrentPrice: currentBar.Close,
			History:      asOf,
		}
		view.Indicators = analysis.Calculate(asOf)

		signal := b.strategy.Analyze(view)

		switch signal.Type {
		case types.SignalBuy:
			if _, err := engine.PlaceOrder(stock.Symbol, types.SideBuy, b.config.BuyQuantity, types.TypeMarket, 0); err != nil {
				logger.Debug().Err(err).Msg("buy order not admitted")
			}
		case types.SignalSell:
			// Flat-or-nothing exit: sell the entire held quantity.
			if position, ok := engine.Portfolio().Positions[stock.Symbol]; ok {
				if _, err := engine.PlaceOrder(stock.Symbol, types.SideSell, position.Quantity, types.TypeMarket, 0); err != nil {
					logger.Debug().Err(err).Msg("sell order not admitted")
				}
			}
		}

		// Resolve orders with this bar's close as the only quote, so
		// every decision at bar i settles on information known at i.
		engine.ProcessOrders(map[string]float64{stock.Symbol: currentBar.Close})
		barsTraded++
	}

	portfolio := engine.Portfolio()
	finalValue := portfolio.TotalValue()
	returnPct := 0.0
	if b.config.InitialCash > 0 {
		returnPct = (finalValue - b.config.InitialCash) / b.config.InitialCash * 100
	}

	trades := engine.Trades()
	result := &Result{
		RunID:         uuid.New().String(),
		Symbol:        stock.Symbol,
		StrategyName:  b.strategy.Name(),
		InitialCash:   b.config.InitialCash,
		FinalValue:    finalValue,
		ReturnPct:     returnPct,
		TotalTrades:   len(trades),
		BarsProcessed: barsTraded,
		CompletedAt:   time.Now(),
		Trades:        trades,
	}

	logger.Info().
		Float64("final_value", result.FinalValue).
		Float64("return_pct", result.ReturnPct).
		Int("trades", result.TotalTrades).
		Msg("backtest complete")

	return result, nil
}
