package execution

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ksred/tradesim-api/internal/auth"
	"github.com/ksred/tradesim-api/internal/types"
	"github.com/ksred/tradesim-api/pkg/response"
)

// GinHandlers contains HTTP handlers for order and portfolio endpoints
type GinHandlers struct {
	engine *Engine
	db     *Database
}

// NewGinHandlers creates a new set of HTTP handlers around an engine.
// The database is optional and only used for idempotency records.
func NewGinHandlers(engine *Engine, db *Database) *GinHandlers {
	return &GinHandlers{
		engine: engine,
		db:     db,
	}
}

// OrderRequest is the body for order placement
type OrderRequest struct {
	Symbol     string          `json:"symbol" binding:"required"`
	Side       types.OrderSide `json:"side" binding:"required"`
	OrderType  types.OrderType `json:"order_type" binding:"required"`
	Quantity   int             `json:"quantity" binding:"required"`
	LimitPrice float64         `json:"limit_price"`
}

// PlaceOrderHandler handles POST requests to place new orders.
// Requires a valid JWT token and idempotency key in headers.
// Admission errors (kill switch, risk cap) map to 403; validation
// errors to 400. Fill outcomes are not reported here: the order is
// returned PENDING and resolved by the order processor.
func (h *GinHandlers) PlaceOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		var req OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		// Replay of a known key returns the previously admitted order
		if h.db != nil {
			if record, err := h.db.GetIdempotencyRecord(idempotencyKey); err == nil && record != nil {
				if order, err := h.engine.GetOrder(record.ResourceID); err == nil {
					response.Success(c, order)
					return
				}
			}
		}

		clientID := clientIDFromContext(c)

		order, err := h.engine.PlaceOrderForClient(clientID, req.Symbol, req.Side, req.Quantity, req.OrderType, req.LimitPrice)
		switch {
		case errors.Is(err, ErrTradingDisabled), errors.Is(err, ErrRiskLimitExceeded):
			response.Forbidden(c, err.Error())
			return
		case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidLimitPrice):
			response.BadRequest(c, err.Error())
			return
		case err != nil:
			response.InternalError(c, err.Error())
			return
		}

		if h.db != nil {
			if err := h.db.CreateIdempotencyRecord(idempotencyKey, order.OrderID, "order"); err != nil {
				response.InternalError(c, err.Error())
				return
			}
		}

		response.Success(c, order)
	}
}

// GetOrderHandler handles GET requests to retrieve order status.
// Requires a valid JWT token.
// URL parameter: order_id
func (h *GinHandlers) GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		if orderID == "" {
			response.BadRequest(c, "Order ID is required")
			return
		}

		order, err := h.engine.GetOrder(orderID)
		if err != nil {
			// Orders placed before the last restart only exist in the
			// audit store
			if h.db != nil {
				if stored, dbErr := h.db.GetOrder(orderID); dbErr == nil && stored != nil {
					response.Success(c, stored)
					return
				}
			}
			response.NotFound(c, "Order not found")
			return
		}

		response.Success(c, order)
	}
}

// CancelOrderHandler handles DELETE requests to cancel pending orders.
// URL parameter: order_id
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")

		order, err := h.engine.CancelOrder(orderID)
		switch {
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(c, "Order not found")
			return
		case errors.Is(err, ErrOrderNotPending):
			response.Conflict(c, err.Error())
			return
		case err != nil:
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, order)
	}
}

// GetPortfolioHandler handles GET requests for the portfolio snapshot
func (h *GinHandlers) GetPortfolioHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.engine.Portfolio())
	}
}

// GetAccountHandler handles GET requests for the account summary
func (h *GinHandlers) GetAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.engine.GetAccount())
	}
}

// GetTradesHandler handles GET requests for the trade log
func (h *GinHandlers) GetTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.engine.Trades())
	}
}

// SetTradingEnabledHandler handles POST requests toggling the kill
// switch. Internal route: operators only.
func (h *GinHandlers) SetTradingEnabledHandler(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.engine.SetTradingEnabled(enabled)
		response.Success(c, gin.H{"trading_enabled": enabled})
	}
}

func clientIDFromContext(c *gin.Context) string {
	claims, exists := c.Get("claims")
	if !exists {
		return ""
	}
	return auth.GetClientID(claims)
}
