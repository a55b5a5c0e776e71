package marketdata

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ksred/tradesim-api/internal/types"
)

// SyntheticProvider generates deterministic random-walk price histories
// so the system can run end to end without network access. Histories
// are generated once per symbol and cached; quotes walk forward from
// the last generated close.
type SyntheticProvider struct {
	mu      sync.Mutex
	rng     *rand.Rand
	bars    int
	stocks  map[string]*types.Stock
	basePxs map[string]float64
}

// NewSyntheticProvider creates a provider seeded for reproducibility.
// bars is the history length generated per symbol.
func NewSyntheticProvider(seed int64, bars int) *SyntheticProvider {
	if bars <= 0 {
		bars = 500
	}
	return &SyntheticProvider{
		rng:     rand.New(rand.NewSource(seed)),
		bars:    bars,
		stocks:  make(map[string]*types.Stock),
		basePxs: make(map[string]float64),
	}
}

func (p *SyntheticProvider) GetStock(symbol string) (*types.Stock, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stock, ok := p.stocks[symbol]; ok {
		return stock, nil
	}

	stock := p.generate(symbol)
	p.stocks[symbol] = stock
	return stock, nil
}

func (p *SyntheticProvider) GetCurrentPrices(symbols []string) (map[string]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		stock, ok := p.stocks[symbol]
		if !ok {
			stock = p.generate(symbol)
			p.stocks[symbol] = stock
		}
		// Quote drifts off the last close with small variance, the
		// same shape as a real feed ticking between bars.
		last := p.basePxs[symbol]
		quote := last * (1 + (p.rng.Float64()*0.02 - 0.01))
		p.basePxs[symbol] = quote
		prices[symbol] = quote
	}
	return prices, nil
}

// generate builds a daily random-walk OHLCV history ending today.
// Caller must hold p.mu.
func (p *SyntheticProvider) generate(symbol string) *types.Stock {
	base := 50.0 + p.rng.Float64()*200.0
	start := time.Now().AddDate(0, 0, -p.bars)

	history := make([]types.Bar, 0, p.bars)
	price := base
	for i := 0; i < p.bars; i++ {
		drift := price * (p.rng.Float64()*0.04 - 0.02)
		open := price
		close := price + drift
		high := open
		if close > high {
			high = close
		}
		high *= 1 + p.rng.Float64()*0.01
		low := open
		if close < low {
			low = close
		}
		low *= 1 - p.rng.Float64()*0.01

		history = append(history, types.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    int64(1_000_000 + p.rng.Intn(9_000_000)),
		})
		price = close
	}

	p.basePxs[symbol] = price

	return &types.Stock{
		Symbol:       symbol,
		CompanyName:  fmt.Sprintf("%s Inc.", symbol),
		CurrentPrice: price,
		History:      history,
	}
}
