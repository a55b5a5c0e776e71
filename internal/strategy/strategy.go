// Package strategy defines the trading signal interface and the two
// built-in rule-based strategies. Strategies are stateless: each call
// sees one as-of view of a stock and must not carry memory across bars.
package strategy

import "github.com/ksred/tradesim-api/internal/types"

// Strategy turns an as-of view of a stock into a trading signal.
type Strategy interface {
	Name() string
	Analyze(stock *types.Stock) types.Signal
}

func hold(symbol, reason string) types.Signal {
	return types.Signal{
		Symbol: symbol,
		Type:   types.SignalHold,
		Reason: reason,
	}
}
