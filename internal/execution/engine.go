package execution

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ksred/tradesim-api/internal/types"
	"github.com/rs/zerolog/log"
)

var (
	// ErrTradingDisabled is returned from PlaceOrder while the kill
	// switch is off. No order is created.
	ErrTradingDisabled = errors.New("trading is disabled")

	// ErrRiskLimitExceeded is returned from PlaceOrder for a BUY when
	// the open-position cap is already reached. No order is created.
	ErrRiskLimitExceeded = errors.New("maximum open positions reached")

	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidLimitPrice = errors.New("limit price must be positive for limit orders")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotPending   = errors.New("order is not pending")
)

// Config holds the risk and safety settings read at order admission.
type Config struct {
	InitialCash float64

	// TradingEnabled is the kill switch: when false every PlaceOrder
	// call fails with ErrTradingDisabled.
	TradingEnabled bool

	// MaxOpenPositions caps the number of distinct symbols held at
	// once. New BUY orders are rejected at the cap; SELL orders are
	// never blocked since reducing exposure is always permitted.
	// Zero means no cap.
	MaxOpenPositions int
}

// Engine is the sole authority that turns an order intent into a ledger
// mutation. All state is guarded by a single mutex: placement and fill
// logic read-then-write cash and position quantities, so the two paths
// must never interleave for the same instance. Separate engines (one
// backtest, one paper account) are fully independent.
type Engine struct {
	mu        sync.Mutex
	config    Config
	portfolio *types.Portfolio
	orders    []*types.Order
	trades    []*types.Trade
	db        *Database // optional write-through audit record
}

// NewEngine creates an execution engine owning a fresh portfolio.
func NewEngine(config Config) *Engine {
	return &Engine{
		config:    config,
		portfolio: types.NewPortfolio(config.InitialCash),
	}
}

// WithDatabase attaches a write-through store for orders and trades.
// In-memory state stays authoritative; rows are the audit record.
func (e *Engine) WithDatabase(db *Database) *Engine {
	e.db = db
	return e
}

// PlaceOrder admits a new order in PENDING state. The portfolio is not
// touched: fills are decoupled from placement and happen when a price
// for the symbol is supplied to ProcessOrders.
//
// Admission gates run before the order exists, so a rejected request
// leaves no trace: the kill switch fails with ErrTradingDisabled, and a
// BUY at the open-position cap fails with ErrRiskLimitExceeded.
func (e *Engine) PlaceOrder(symbol string, side types.OrderSide, quantity int, orderType types.OrderType, limitPrice float64) (*types.Order, error) {
	return e.PlaceOrderForClient("", symbol, side, quantity, orderType, limitPrice)
}

// PlaceOrderForClient is PlaceOrder with the admitted order tagged with
// the authenticated client's ID, for the API path.
func (e *Engine) PlaceOrderForClient(clientID, symbol string, side types.OrderSide, quantity int, orderType types.OrderType, limitPrice float64) (*types.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.config.TradingEnabled {
		return nil, ErrTradingDisabled
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if orderType == types.TypeLimit && limitPrice <= 0 {
		return nil, ErrInvalidLimitPrice
	}
	if side == types.SideBuy && e.config.MaxOpenPositions > 0 &&
		len(e.portfolio.Positions) >= e.config.MaxOpenPositions {
		return nil, ErrRiskLimitExceeded
	}

	order := &types.Order{
		OrderID:   uuid.New().String(),
		ClientID:  clientID,
		Symbol:    symbol,
		Side:      side,
		OrderType: orderType,
		Quantity:  quantity,
		Status:    types.StatusPending,
		CreatedAt: time.Now(),
	}
	if orderType == types.TypeLimit {
		order.LimitPrice = limitPrice
	}
	e.orders = append(e.orders, order)

	if e.db != nil {
		if err := e.db.CreateOrder(order); err != nil {
			log.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to persist order")
		}
	}

	log.Debug().
		Str("order_id", order.OrderID).
		Str("symbol", symbol).
		Str("side", string(side)).
		Str("order_type", string(orderType)).
		Int("quantity", quantity).
		Msg("order placed")

	copied := *order
	return &copied, nil
}

// ProcessOrders resolves every PENDING order whose symbol has an entry
// in the supplied price map. Orders without a quote stay PENDING; the
// caller decides whether and when to cancel them. The method is
// idempotent per order: once an order leaves PENDING it is never
// reconsidered.
//
// Fill rules:
//   - MARKET orders always fill at the quoted price.
//   - LIMIT BUY fills only if the quote is at or below the limit,
//     filling at the limit price.
//   - LIMIT SELL fills only if the quote is at or above the limit,
//     filling at the limit price.
//
// Fill failures (insufficient funds or shares) mark the order REJECTED
// rather than returning an error; callers poll order status.
func (e *Engine) ProcessOrders(prices map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, order := range e.orders {
		if order.Status != types.StatusPending {
			continue
		}
		// A non-positive entry is treated as no quote at all: filling
		// at zero would move shares without moving cash.
		price, ok := prices[order.Symbol]
		if !ok || price <= 0 {
			continue
		}

		shouldFill := false
		fillPrice := price

		switch order.OrderType {
		case types.TypeMarket:
			shouldFill = true
		case types.TypeLimit:
			if order.Side == types.SideBuy && price <= order.LimitPrice {
				shouldFill = true
				fillPrice = order.LimitPrice
			} else if order.Side == types.SideSell && price >= order.LimitPrice {
				shouldFill = true
				fillPrice = order.LimitPrice
			}
		}

		if shouldFill {
			e.fill(order, fillPrice)
		}
	}

	// Mark held positions to the latest observed quote so market value
	// and unrealized P&L reflect the prices the caller just supplied.
	for symbol, price := range prices {
		if price <= 0 {
			continue
		}
		if position, ok := e.portfolio.Positions[symbol]; ok {
			position.CurrentPrice = price
		}
	}
}

// fill applies the cash and position movement for one order at the
// given price. Either the entire cash/position/trade update happens or
// none of it does. Caller must hold e.mu.
func (e *Engine) fill(order *types.Order, price float64) {
	cost := price * float64(order.Quantity)

	switch order.Side {
	case types.SideBuy:
		if e.portfolio.Cash < cost {
			e.reject(order, "insufficient funds")
			return
		}
		e.portfolio.Cash -= cost
		e.applyBuy(order.Symbol, order.Quantity, price)

	case types.SideSell:
		position, ok := e.portfolio.Positions[order.Symbol]
		if !ok || position.Quantity < order.Quantity {
			e.reject(order, "insufficient shares")
			return
		}
		e.portfolio.Cash += cost
		e.applySell(position, order.Quantity, price)
	}

	now := time.Now()
	order.Status = types.StatusFilled
	order.FilledAt = &now
	order.FilledPrice = price
	e.recordTrade(order, price, now)

	if e.db != nil {
		if err := e.db.UpdateOrder(order); err != nil {
			log.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to persist fill")
		}
	}

	log.Debug().
		Str("order_id", order.OrderID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Int("quantity", order.Quantity).
		Float64("fill_price", price).
		Float64("cash", e.portfolio.Cash).
		Msg("order filled")
}

func (e *Engine) reject(order *types.Order, reason string) {
	order.Status = types.StatusRejected

	if e.db != nil {
		if err := e.db.UpdateOrder(order); err != nil {
			log.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to persist rejection")
		}
	}

	log.Warn().
		Str("order_id", order.OrderID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Int("quantity", order.Quantity).
		Str("reason", reason).
		Msg("order rejected")
}

// applyBuy updates or creates the position, recomputing the
// volume-weighted average cost on every additional buy.
func (e *Engine) applyBuy(symbol string, quantity int, price float64) {
	position, ok := e.portfolio.Positions[symbol]
	if !ok {
		e.portfolio.Positions[symbol] = &types.Position{
			Symbol:       symbol,
			Quantity:     quantity,
			AveragePrice: price,
			CurrentPrice: price,
		}
		return
	}

	totalCost := float64(position.Quantity)*position.AveragePrice + float64(quantity)*price
	totalQty := position.Quantity + quantity
	position.AveragePrice = totalCost / float64(totalQty)
	position.Quantity = totalQty
	position.CurrentPrice = price
}

// applySell decrements the position, deleting it when flat.
func (e *Engine) applySell(position *types.Position, quantity int, price float64) {
	position.Quantity -= quantity
	position.CurrentPrice = price
	if position.Quantity == 0 {
		delete(e.portfolio.Positions, position.Symbol)
	}
}

func (e *Engine) recordTrade(order *types.Order, price float64, ts time.Time) {
	trade := &types.Trade{
		TradeID:   uuid.New().String(),
		OrderID:   order.OrderID,
		Symbol:    order.Symbol,
		Side:      order.Side,
		Quantity:  order.Quantity,
		Price:     price,
		Timestamp: ts,
	}
	e.trades = append(e.trades, trade)

	if e.db != nil {
		if err := e.db.CreateTrade(trade); err != nil {
			log.Error().Err(err).Str("trade_id", trade.TradeID).Msg("failed to persist trade")
		}
	}
}

// CancelOrder moves a PENDING order to CANCELLED. There is no expiry
// for pending orders, so this is the only way out for an order whose
// symbol never receives a quote.
func (e *Engine) CancelOrder(orderID string) (*types.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, order := range e.orders {
		if order.OrderID != orderID {
			continue
		}
		if order.Status != types.StatusPending {
			return nil, fmt.Errorf("%w: status is %s", ErrOrderNotPending, order.Status)
		}
		order.Status = types.StatusCancelled
		if e.db != nil {
			if err := e.db.UpdateOrder(order); err != nil {
				log.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to persist cancellation")
			}
		}
		copied := *order
		return &copied, nil
	}
	return nil, ErrOrderNotFound
}

// SetTradingEnabled toggles the kill switch. Operator action, out of
// band from order flow.
func (e *Engine) SetTradingEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config.TradingEnabled = enabled
	log.Info().Bool("trading_enabled", enabled).Msg("kill switch toggled")
}

// TradingEnabled reports the current kill switch state.
func (e *Engine) TradingEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config.TradingEnabled
}

// GetOrder returns the order with the given ID, or ErrOrderNotFound.
func (e *Engine) GetOrder(orderID string) (*types.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, order := range e.orders {
		if order.OrderID == orderID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, ErrOrderNotFound
}

// Orders returns a snapshot of all orders, oldest first.
func (e *Engine) Orders() []types.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.Order, len(e.orders))
	for i, order := range e.orders {
		out[i] = *order
	}
	return out
}

// Trades returns a snapshot of the trade log, oldest first.
func (e *Engine) Trades() []types.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.Trade, len(e.trades))
	for i, trade := range e.trades {
		out[i] = *trade
	}
	return out
}

// PendingSymbols returns the distinct symbols of all PENDING orders.
// The background processor uses this to know which quotes to fetch.
func (e *Engine) PendingSymbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]bool)
	var symbols []string
	for _, order := range e.orders {
		if order.Status == types.StatusPending && !seen[order.Symbol] {
			seen[order.Symbol] = true
			symbols = append(symbols, order.Symbol)
		}
	}
	return symbols
}

// Portfolio returns a deep copy of the current portfolio state.
func (e *Engine) Portfolio() *types.Portfolio {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotPortfolio()
}

func (e *Engine) snapshotPortfolio() *types.Portfolio {
	snapshot := types.NewPortfolio(e.portfolio.Cash)
	for symbol, position := range e.portfolio.Positions {
		copied := *position
		snapshot.Positions[symbol] = &copied
	}
	return snapshot
}

// Account summarizes the paper account the way a brokerage would
// report it.
type Account struct {
	Equity      float64 `json:"equity"`
	BuyingPower float64 `json:"buying_power"`
	Status      string  `json:"status"`
}

// GetAccount returns the account summary derived from portfolio state.
func (e *Engine) GetAccount() Account {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Account{
		Equity:      e.portfolio.TotalValue(),
		BuyingPower: e.portfolio.Cash,
		Status:      "ACTIVE (PAPER)",
	}
}
