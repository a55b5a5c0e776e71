package types

import (
	"time"

	"gorm.io/gorm"
)

// OrderSide indicates whether an order buys or sells the symbol
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType indicates how an order is priced
type OrderType string

const (
	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"
)

// OrderStatus tracks the lifecycle of an order.
// PENDING is the only non-terminal state: once an order is FILLED,
// REJECTED or CANCELLED it is never reconsidered.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusFilled    OrderStatus = "FILLED"
	StatusRejected  OrderStatus = "REJECTED"
	StatusCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	gorm.Model  `json:"-"`
	OrderID     string      `gorm:"uniqueIndex" json:"order_id"`
	ClientID    string      `json:"client_id"`
	Symbol      string      `json:"symbol"`
	Side        OrderSide   `json:"side"`
	OrderType   OrderType   `json:"order_type"`
	Quantity    int         `json:"quantity"`
	LimitPrice  float64     `json:"limit_price,omitempty"` // required for LIMIT orders
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	FilledAt    *time.Time  `json:"filled_at,omitempty"`
	FilledPrice float64     `json:"filled_price,omitempty"`
}

// Trade is the append-only record of a fill. Exactly one Trade is
// created per successful fill; trades are never mutated or deleted.
type Trade struct {
	gorm.Model `json:"-"`
	TradeID    string    `gorm:"uniqueIndex" json:"trade_id"`
	OrderID    string    `json:"order_id"`
	Symbol     string    `json:"symbol"`
	Side       OrderSide `json:"side"`
	Quantity   int       `json:"quantity"`
	Price      float64   `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
}
