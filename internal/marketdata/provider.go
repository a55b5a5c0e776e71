// Package marketdata defines the price source the engine and backtests
// consume. The core treats histories as already-fetched input: where
// the data comes from (a vendor API, a cache, a generator) is not its
// concern.
package marketdata

import "github.com/ksred/tradesim-api/internal/types"

// Provider supplies price histories and current quotes.
type Provider interface {
	// GetStock returns the symbol with its full ordered price history.
	GetStock(symbol string) (*types.Stock, error)

	// GetCurrentPrices returns the latest quote for each symbol that
	// has one. Symbols without a quote are simply absent from the map.
	GetCurrentPrices(symbols []string) (map[string]float64, error)
}
