package backtest

import (
	"fmt"
	"time"

	"github.com/ksred/tradesim-api/internal/types"
	"gorm.io/gorm"
)

// Result is the aggregate outcome of one backtest run.
type Result struct {
	gorm.Model    `json:"-"`
	RunID         string    `gorm:"uniqueIndex" json:"run_id"`
	Symbol        string    `json:"symbol"`
	StrategyName  string    `json:"strategy_name"`
	InitialCash   float64   `json:"initial_cash"`
	FinalValue    float64   `json:"final_value"`
	ReturnPct     float64   `json:"return_pct"`
	TotalTrades   int       `json:"total_trades"`
	BarsProcessed int       `json:"bars_processed"`
	CompletedAt   time.Time `json:"completed_at"`

	// Trades carries the run's full trade log for callers that want
	// more than the aggregates. Not persisted.
	Trades []types.Trade `gorm:"-" json:"trades,omitempty"`
}

// Report renders the result as a human-readable block.
func (r *Result) Report() string {
	return fmt.Sprintf(
		"------------------------------\n"+
			"Backtest Results: %s on %s\n"+
			"Initial Value: $%.2f\n"+
			"Final Value:   $%.2f\n"+
			"Total Return:  %.2f%%\n"+
			"Total Trades:  %d\n"+
			"------------------------------",
		r.StrategyName, r.Symbol, r.InitialCash, r.FinalValue, r.ReturnPct, r.TotalTrades,
	)
}
