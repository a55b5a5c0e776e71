// Package analysis computes technical indicators from a price history.
// All functions are pure: they read only the bars they are given, so an
// as-of slice of history yields an as-of snapshot with no lookahead.
package analysis

import "github.com/ksred/tradesim-api/internal/types"

const (
	rsiPeriod     = 14
	smaShort      = 50
	smaLong       = 200
	emaFast       = 12
	emaSlow       = 26
	signalSmooth  = 9
)

// Calculate returns the indicator snapshot for the given history. Bars
// must be sorted ascending by timestamp. Indicators whose lookback
// window exceeds the history length are left nil.
func Calculate(history []types.Bar) *types.Indicators {
	ind := &types.Indicators{}
	if len(history) == 0 {
		return ind
	}

	closes := make([]float64, len(history))
	for i, bar := range history {
		closes[i] = bar.Close
	}

	ind.RSI = rsi(closes, rsiPeriod)
	ind.SMA50 = sma(closes, smaShort)
	ind.SMA200 = sma(closes, smaLong)

	emaFastSeries := emaSeries(closes, emaFast)
	emaSlowSeries := emaSeries(closes, emaSlow)
	ind.EMA12 = last(emaFastSeries)
	ind.EMA26 = last(emaSlowSeries)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = emaFastSeries[i] - emaSlowSeries[i]
	}
	signalLine := emaSeries(macdLine, signalSmooth)

	macd := macdLine[len(macdLine)-1]
	signal := signalLine[len(signalLine)-1]
	hist := macd - signal
	ind.MACD = &macd
	ind.MACDSignal = &signal
	ind.MACDHist = &hist

	return ind
}

// sma returns the simple moving average of the last window closes, or
// nil when the history is shorter than the window.
func sma(closes []float64, window int) *float64 {
	if len(closes) < window {
		return nil
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	avg := sum / float64(window)
	return &avg
}

// emaSeries returns the full exponential moving average series with
// smoothing 2/(span+1), seeded from the first close.
func emaSeries(values []float64, span int) []float64 {
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rsi returns the relative strength index over simple rolling means of
// gains and losses. Needs period+1 closes for period deltas. A window
// with losses and no gains reads 0; gains and no losses reads 100; a
// flat window has no defined RSI and returns nil.
func rsi(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	gain /= float64(period)
	loss /= float64(period)

	if loss == 0 {
		if gain == 0 {
			return nil
		}
		v := 100.0
		return &v
	}

	rs := gain / loss
	v := 100.0 - 100.0/(1.0+rs)
	return &v
}

func last(series []float64) *float64 {
	v := series[len(series)-1]
	return &v
}
