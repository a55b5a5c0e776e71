package backtest

import (
	"testing"
	"time"

	"github.com/ksred/tradesim-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// thresholdStrategy is a deterministic test strategy: BUY below the
// buy level, SELL above the sell level, HOLD in between. Being a pure
// function of the current close, its decisions are trivially free of
// cross-bar state.
type thresholdStrategy struct {
	buyBelow  float64
	sellAbove float64
}

func (s *thresholdStrategy) Name() string { return "Threshold" }

func (s *thresholdStrategy) Analyze(stock *types.Stock) types.Signal {
	price := stock.CurrentPrice
	switch {
	case price < s.buyBelow:
		return types.Signal{Symbol: stock.Symbol, Type: types.SignalBuy}
	case price > s.sellAbove:
		return types.Signal{Symbol: stock.Symbol, Type: types.SignalSell}
	default:
		return types.Signal{Symbol: stock.Symbol, Type: types.SignalHold}
	}
}

// alwaysBuy exercises the averaging-in policy.
type alwaysBuy struct{}

func (alwaysBuy) Name() string { return "Always Buy" }
func (alwaysBuy) Analyze(stock *types.Stock) types.Signal {
	return types.Signal{Symbol: stock.Symbol, Type: types.SignalBuy}
}

// historyRecorder asserts on the as-of views the driver exposes.
type historyRecorder struct {
	lengths []int
}

func (r *historyRecorder) Name() string { return "Recorder" }
func (r *historyRecorder) Analyze(stock *types.Stock) types.Signal {
	r.lengths = append(r.lengths, len(stock.History))
	return types.Signal{Symbol: stock.Symbol, Type: types.SignalHold}
}

func stockWithCloses(symbol string, closes []float64) *types.Stock {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := make([]types.Bar, len(closes))
	for i, c := range closes {
		history[i] = types.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return &types.Stock{
		Symbol:       symbol,
		CurrentPrice: closes[len(closes)-1],
		History:      history,
	}
}

func testConfig(warmup int) Config {
	return Config{
		InitialCash: 100000,
		WarmupBars:  warmup,
		BuyQuantity: 10,
	}
}

func TestRun_TooShortHistoryProducesZeroTradeReport(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}
	stock := stockWithCloses("AAPL", closes)

	bt := NewBacktester(&thresholdStrategy{buyBelow: 1000}, testConfig(200))
	result, err := bt.Run(stock)
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalTrades)
	assert.Equal(t, 0, result.BarsProcessed)
	assert.Equal(t, 100000.0, result.FinalValue)
	assert.Equal(t, 0.0, result.ReturnPct)
}

func TestRun_WarmupBarsNeverTraded(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	stock := stockWithCloses("AAPL", closes)

	recorder := &historyRecorder{}
	bt := NewBacktester(recorder, testConfig(20))
	result, err := bt.Run(stock)
	require.NoError(t, err)

	// Decisions start at the warm-up index and see only the prefix
	assert.Equal(t, 10, result.BarsProcessed)
	require.Len(t, recorder.lengths, 10)
	for i, length := range recorder.lengths {
		assert.Equal(t, 21+i, length)
	}
}

func TestRun_BuyAndFlatExit(t *testing.T) {
	// Warm up flat at 100, dip to 90 (buy), then spike to 200 (exit)
	closes := make([]float64, 24)
	for i := 0; i < 20; i++ {
		closes[i] = 100
	}
	closes[20] = 90
	closes[21] = 90
	closes[22] = 200
	closes[23] = 100

	stock := stockWithCloses("AAPL", closes)
	bt := NewBacktester(&thresholdStrategy{buyBelow: 95, sellAbove: 150}, testConfig(19))
	result, err := bt.Run(stock)
	require.NoError(t, err)

	require.Len(t, result.Trades, 3)
	assert.Equal(t, types.SideBuy, result.Trades[0].Side)
	assert.Equal(t, 90.0, result.Trades[0].Price)
	assert.Equal(t, 10, result.Trades[0].Quantity)
	assert.Equal(t, types.SideBuy, result.Trades[1].Side)

	// Flat-or-nothing: the sell exits the full 20 share position
	sell := result.Trades[2]
	assert.Equal(t, types.SideSell, sell.Side)
	assert.Equal(t, 20, sell.Quantity)
	assert.Equal(t, 200.0, sell.Price)

	// 100000 - 900 - 900 + 4000
	assert.InDelta(t, 102200.0, result.FinalValue, 1e-9)
	assert.InDelta(t, 2.2, result.ReturnPct, 1e-9)
}

func TestRun_AveragingInIsAllowed(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	stock := stockWithCloses("AAPL", closes)

	bt := NewBacktester(alwaysBuy{}, testConfig(20))
	result, err := bt.Run(stock)
	require.NoError(t, err)

	// A BUY while already long places another buy: one per bar
	assert.Equal(t, 5, result.TotalTrades)
	for _, trade := range result.Trades {
		assert.Equal(t, types.SideBuy, trade.Side)
		assert.Equal(t, 10, trade.Quantity)
	}
}

func TestRun_BuyQuantityConfigurable(t *testing.T) {
	closes := make([]float64, 22)
	for i := range closes {
		closes[i] = 100
	}
	stock := stockWithCloses("AAPL", closes)

	config := testConfig(20)
	config.BuyQuantity = 7
	bt := NewBacktester(alwaysBuy{}, config)
	result, err := bt.Run(stock)
	require.NoError(t, err)

	require.NotEmpty(t, result.Trades)
	assert.Equal(t, 7, result.Trades[0].Quantity)
}

func TestRun_NoLookahead(t *testing.T) {
	// The decisions over the first n bars must be identical whether or
	// not later bars exist in the dataset.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 20*float64(i%5) - 15*float64(i%3)
	}

	short := stockWithCloses("AAPL", closes[:40])

	// Extend with bars wild enough to change any decision that peeked
	extended := append(append([]float64{}, closes[:40]...), 1, 1000, 1, 1000, 1, 1000)
	long := stockWithCloses("AAPL", extended)

	strat := &thresholdStrategy{buyBelow: 95, sellAbove: 135}
	shortResult, err := NewBacktester(strat, testConfig(20)).Run(short)
	require.NoError(t, err)
	longResult, err := NewBacktester(strat, testConfig(20)).Run(long)
	require.NoError(t, err)

	// The longer run's trade log starts with exactly the shorter one's
	require.GreaterOrEqual(t, len(longResult.Trades), len(shortResult.Trades))
	for i, trade := range shortResult.Trades {
		assert.Equal(t, trade.Side, longResult.Trades[i].Side, "trade %d side", i)
		assert.Equal(t, trade.Quantity, longResult.Trades[i].Quantity, "trade %d quantity", i)
		assert.Equal(t, trade.Price, longResult.Trades[i].Price, "trade %d price", i)
	}
}

func TestRun_SortsHistoryByTimestamp(t *testing.T) {
	stock := stockWithCloses("AAPL", []float64{100, 100, 100, 100, 100, 90, 200})

	// Shuffle the bars; the driver must restore timestamp order
	h := stock.History
	h[0], h[5] = h[5], h[0]
	h[2], h[6] = h[6], h[2]

	bt := NewBacktester(&thresholdStrategy{buyBelow: 95, sellAbove: 150}, testConfig(4))
	result, err := bt.Run(stock)
	require.NoError(t, err)

	// Sorted closes are 100,100,100,100,100,90,200: buy at 90, exit at 200
	require.Len(t, result.Trades, 2)
	assert.Equal(t, 90.0, result.Trades[0].Price)
	assert.Equal(t, 200.0, result.Trades[1].Price)
}
