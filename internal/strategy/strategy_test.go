package strategy

import (
	"testing"

	"github.com/ksred/tradesim-api/internal/types"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func stockWithIndicators(ind *types.Indicators) *types.Stock {
	return &types.Stock{
		Symbol:     "AAPL",
		Indicators: ind,
	}
}

func TestSMACrossover(t *testing.T) {
	strat := NewSMACrossover()

	tests := []struct {
		name string
		ind  *types.Indicators
		want types.SignalType
	}{
		{"golden cross buys", &types.Indicators{SMA50: f(110), SMA200: f(100)}, types.SignalBuy},
		{"death cross sells", &types.Indicators{SMA50: f(90), SMA200: f(100)}, types.SignalSell},
		{"equal averages hold", &types.Indicators{SMA50: f(100), SMA200: f(100)}, types.SignalHold},
		{"missing long average holds", &types.Indicators{SMA50: f(100)}, types.SignalHold},
		{"no indicators hold", nil, types.SignalHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := strat.Analyze(stockWithIndicators(tt.ind))
			assert.Equal(t, tt.want, signal.Type)
			assert.Equal(t, "AAPL", signal.Symbol)
			assert.NotEmpty(t, signal.Reason)
		})
	}
}

func TestRSIMeanReversion(t *testing.T) {
	strat := NewRSIMeanReversion()

	tests := []struct {
		name string
		rsi  *float64
		want types.SignalType
	}{
		{"oversold buys", f(25), types.SignalBuy},
		{"overbought sells", f(80), types.SignalSell},
		{"neutral holds", f(50), types.SignalHold},
		{"at oversold threshold holds", f(30), types.SignalHold},
		{"at overbought threshold holds", f(70), types.SignalHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := strat.Analyze(stockWithIndicators(&types.Indicators{RSI: tt.rsi}))
			assert.Equal(t, tt.want, signal.Type)
		})
	}

	t.Run("missing rsi holds", func(t *testing.T) {
		signal := strat.Analyze(stockWithIndicators(nil))
		assert.Equal(t, types.SignalHold, signal.Type)
	})
}

func TestRSIMeanReversion_StrengthScaling(t *testing.T) {
	strat := NewRSIMeanReversion()

	deep := strat.Analyze(stockWithIndicators(&types.Indicators{RSI: f(10)}))
	shallow := strat.Analyze(stockWithIndicators(&types.Indicators{RSI: f(28)}))
	assert.Greater(t, deep.Strength, shallow.Strength)

	hot := strat.Analyze(stockWithIndicators(&types.Indicators{RSI: f(95)}))
	warm := strat.Analyze(stockWithIndicators(&types.Indicators{RSI: f(72)}))
	assert.Greater(t, hot.Strength, warm.Strength)
}
