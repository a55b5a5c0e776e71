package strategy

import (
	"fmt"

	"github.com/ksred/tradesim-api/internal/types"
)

// SMACrossover signals on the relationship between the 50 and 200 bar
// simple moving averages: long while the short average is above the
// long one (golden cross), out while below (death cross). The check is
// stateless, so it reports the current regime rather than the crossing
// bar itself.
type SMACrossover struct{}

func NewSMACrossover() *SMACrossover {
	return &SMACrossover{}
}

func (s *SMACrossover) Name() string {
	return "SMA Crossover"
}

func (s *SMACrossover) Analyze(stock *types.Stock) types.Signal {
	ind := stock.Indicators
	if ind == nil || ind.SMA50 == nil || ind.SMA200 == nil {
		return hold(stock.Symbol, "Insufficient data for SMA")
	}

	sma50 := *ind.SMA50
	sma200 := *ind.SMA200

	if sma50 > sma200 {
		return types.Signal{
			Symbol:   stock.Symbol,
			Type:     types.SignalBuy,
			Strength: 0.8,
			Reason:   fmt.Sprintf("Golden Cross: SMA50 (%.2f) > SMA200 (%.2f)", sma50, sma200),
		}
	}
	if sma50 < sma200 {
		return types.Signal{
			Symbol:   stock.Symbol,
			Type:     types.SignalSell,
			Strength: 0.8,
			Reason:   fmt.Sprintf("Death Cross: SMA50 (%.2f) < SMA200 (%.2f)", sma50, sma200),
		}
	}

	return hold(stock.Symbol, "SMA averages equal")
}
