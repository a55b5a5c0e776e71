package strategy

import (
	"fmt"

	"github.com/ksred/tradesim-api/internal/types"
)

// RSIMeanReversion buys oversold and sells overbought conditions on the
// 14 bar RSI. Signal strength scales with how far past the threshold
// the reading is.
type RSIMeanReversion struct {
	Oversold   float64
	Overbought float64
}

func NewRSIMeanReversion() *RSIMeanReversion {
	return &RSIMeanReversion{
		Oversold:   30.0,
		Overbought: 70.0,
	}
}

func (s *RSIMeanReversion) Name() string {
	return "RSI Mean Reversion"
}

func (s *RSIMeanReversion) Analyze(stock *types.Stock) types.Signal {
	ind := stock.Indicators
	if ind == nil || ind.RSI == nil {
		return hold(stock.Symbol, "Insufficient data for RSI")
	}

	rsi := *ind.RSI

	if rsi < s.Oversold {
		return types.Signal{
			Symbol:   stock.Symbol,
			Type:     types.SignalBuy,
			Strength: (s.Oversold - rsi) / s.Oversold,
			Reason:   fmt.Sprintf("RSI Oversold: %.2f < %.2f", rsi, s.Oversold),
		}
	}
	if rsi > s.Overbought {
		return types.Signal{
			Symbol:   stock.Symbol,
			Type:     types.SignalSell,
			Strength: (rsi - s.Overbought) / (100 - s.Overbought),
			Reason:   fmt.Sprintf("RSI Overbought: %.2f > %.2f", rsi, s.Overbought),
		}
	}

	return hold(stock.Symbol, fmt.Sprintf("RSI Neutral: %.2f", rsi))
}
