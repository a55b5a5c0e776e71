package types

// Position is a current holding in a single symbol. The engine is
// long-only, so Quantity is always positive; a position whose quantity
// reaches zero is removed from the portfolio rather than kept around.
type Position struct {
	Symbol       string  `json:"symbol"`
	Quantity     int     `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	CurrentPrice float64 `json:"current_price"`
}

// MarketValue returns the position's value at the last observed price.
func (p *Position) MarketValue() float64 {
	return float64(p.Quantity) * p.CurrentPrice
}

// UnrealizedPnL returns the open profit or loss against the
// volume-weighted average cost basis.
func (p *Position) UnrealizedPnL() float64 {
	return (p.CurrentPrice - p.AveragePrice) * float64(p.Quantity)
}

// Portfolio holds the cash balance and open positions. A Portfolio is
// owned by exactly one execution engine instance and must only be
// mutated through it.
type Portfolio struct {
	Cash      float64              `json:"cash"`
	Positions map[string]*Position `json:"positions"`
}

func NewPortfolio(cash float64) *Portfolio {
	return &Portfolio{
		Cash:      cash,
		Positions: make(map[string]*Position),
	}
}

// TotalValue returns cash plus the market value of all open positions.
func (p *Portfolio) TotalValue() float64 {
	total := p.Cash
	for _, pos := range p.Positions {
		total += pos.MarketValue()
	}
	return total
}
