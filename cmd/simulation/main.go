package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ksred/tradesim-api/internal/backtest"
	"github.com/ksred/tradesim-api/internal/execution"
	"github.com/ksred/tradesim-api/internal/marketdata"
	"github.com/ksred/tradesim-api/internal/strategy"
	"github.com/ksred/tradesim-api/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	historyBars = 500
	seed        = 42
)

var symbols = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "META"}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// main runs the whole system end to end without a server: a batch of
// concurrent backtests over synthetic histories, then a live
// place-and-process session against the paper account, including the
// rejection and kill switch paths.
func main() {
	provider := marketdata.NewSyntheticProvider(seed, historyBars)

	runBacktests(provider)
	runPaperSession(provider)
}

// runBacktests runs every strategy over every symbol. Each run owns an
// independent engine, so runs are safe to execute in parallel.
func runBacktests(provider *marketdata.SyntheticProvider) {
	log.Info().Int("symbols", len(symbols)).Msg("starting backtest batch")

	strategies := []strategy.Strategy{
		strategy.NewSMACrossover(),
		strategy.NewRSIMeanReversion(),
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*backtest.Result
	)

	for _, symbol := range symbols {
		stock, err := provider.GetStock(symbol)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to load history")
			continue
		}

		for _, strat := range strategies {
			wg.Add(1)
			go func(stock *types.Stock, strat strategy.Strategy) {
				defer wg.Done()

				bt := backtest.NewBacktester(strat, backtest.DefaultConfig())
				result, err := bt.Run(stock)
				if err != nil {
					log.Error().Err(err).Str("symbol", stock.Symbol).Msg("backtest failed")
					return
				}

				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}(stock, strat)
		}
	}

	wg.Wait()

	for _, result := range results {
		fmt.Println(result.Report())
	}

	log.Info().Int("runs", len(results)).Msg("backtest batch complete")
}

// runPaperSession drives the live engine directly through a few
// place/process cycles.
func runPaperSession(provider *marketdata.SyntheticProvider) {
	log.Info().Msg("starting paper trading session")

	engine := execution.NewEngine(execution.Config{
		InitialCash:      100000.0,
		TradingEnabled:   true,
		MaxOpenPositions: 2,
	})

	// Market buys on the first two symbols
	for _, symbol := range symbols[:2] {
		if _, err := engine.PlaceOrder(symbol, types.SideBuy, 10, types.TypeMarket, 0); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to place order")
		}
	}

	resolve(engine, provider)

	// The position cap is 2, so a third buy must be refused at admission
	if _, err := engine.PlaceOrder(symbols[2], types.SideBuy, 10, types.TypeMarket, 0); err != nil {
		log.Info().Err(err).Str("symbol", symbols[2]).Msg("buy refused as expected")
	}

	// A limit buy far below the market stays pending until cancelled
	resting, err := engine.PlaceOrder(symbols[0], types.SideBuy, 5, types.TypeLimit, 1.0)
	if err != nil {
		log.Error().Err(err).Msg("failed to place limit order")
	} else {
		resolve(engine, provider)
		if _, err := engine.CancelOrder(resting.OrderID); err != nil {
			log.Error().Err(err).Msg("failed to cancel resting order")
		} else {
			log.Info().Str("order_id", resting.OrderID).Msg("resting limit order cancelled")
		}
	}

	// Exit both positions
	for symbol, position := range engine.Portfolio().Positions {
		if _, err := engine.PlaceOrder(symbol, types.SideSell, position.Quantity, types.TypeMarket, 0); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to place sell")
		}
	}
	resolve(engine, provider)

	// Kill switch: every subsequent placement must be refused
	engine.SetTradingEnabled(false)
	if _, err := engine.PlaceOrder(symbols[0], types.SideBuy, 1, types.TypeMarket, 0); err != nil {
		log.Info().Err(err).Msg("order refused after kill switch")
	}

	account := engine.GetAccount()
	log.Info().
		Float64("equity", account.Equity).
		Float64("buying_power", account.BuyingPower).
		Int("trades", len(engine.Trades())).
		Msg("paper trading session complete")
}

// resolve fetches quotes for all pending symbols and processes orders,
// the same cycle the background processor runs on a timer.
func resolve(engine *execution.Engine, provider *marketdata.SyntheticProvider) {
	pending := engine.PendingSymbols()
	if len(pending) == 0 {
		return
	}

	prices, err := provider.GetCurrentPrices(pending)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch quotes")
		return
	}
	engine.ProcessOrders(prices)
}
