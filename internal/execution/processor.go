package execution

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// QuoteSource supplies current prices for a set of symbols. The live
// paper account resolves its pending orders against these quotes; in a
// backtest the driver supplies prices directly and no QuoteSource is
// involved.
type QuoteSource interface {
	GetCurrentPrices(symbols []string) (map[string]float64, error)
}

// Processor periodically resolves the engine's pending orders against
// quotes from a QuoteSource. It is the live-account counterpart of the
// backtest driver's per-bar ProcessOrders call.
type Processor struct {
	engine       *Engine
	quotes       QuoteSource
	processDelay time.Duration
}

func NewProcessor(engine *Engine, quotes QuoteSource, processDelay time.Duration) *Processor {
	if processDelay <= 0 {
		processDelay = 30 * time.Second
	}
	return &Processor{
		engine:       engine,
		quotes:       quotes,
		processDelay: processDelay,
	}
}

// Start begins the order processing loop
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "order_processor").Logger()
	logger.Info().Dur("interval", p.processDelay).Msg("starting order processor")

	ticker := time.NewTicker(p.processDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down order processor")
			return
		case <-ticker.C:
			if err := p.processPendingOrders(); err != nil {
				logger.Error().Err(err).Msg("failed to process pending orders")
			}
		}
	}
}

func (p *Processor) processPendingOrders() error {
	logger := log.With().Str("component", "order_processor").Logger()

	symbols := p.engine.PendingSymbols()
	if len(symbols) == 0 {
		return nil
	}

	prices, err := p.quotes.GetCurrentPrices(symbols)
	if err != nil {
		return err
	}

	logger.Debug().
		Int("pending_symbols", len(symbols)).
		Int("quotes", len(prices)).
		Msg("processing pending orders")

	p.engine.ProcessOrders(prices)
	return nil
}
