package types

import "time"

// Bar is a single historical price observation for a fixed interval.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Indicators is a fixed snapshot of technical indicator values computed
// from a price history. Fields are nil when the history is too short for
// the indicator's lookback window.
type Indicators struct {
	RSI        *float64 `json:"rsi,omitempty"`
	MACD       *float64 `json:"macd,omitempty"`
	MACDSignal *float64 `json:"macd_signal,omitempty"`
	MACDHist   *float64 `json:"macd_hist,omitempty"`
	SMA50      *float64 `json:"sma_50,omitempty"`
	SMA200     *float64 `json:"sma_200,omitempty"`
	EMA12      *float64 `json:"ema_12,omitempty"`
	EMA26      *float64 `json:"ema_26,omitempty"`
}

// Stock bundles a symbol with its price history and derived analysis.
type Stock struct {
	Symbol       string      `json:"symbol"`
	CompanyName  string      `json:"company_name,omitempty"`
	CurrentPrice float64     `json:"current_price"`
	History      []Bar       `json:"history,omitempty"`
	Indicators   *Indicators `json:"indicators,omitempty"`
}

// SignalType is a strategy's trading decision for one bar.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// Signal is the output of a strategy for a single as-of view of a stock.
type Signal struct {
	Symbol   string     `json:"symbol"`
	Type     SignalType `json:"signal_type"`
	Strength float64    `json:"strength,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}
