// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wawashop/storefront/internal/domain/cart"
	"github.com/wawashop/storefront/internal/domain/order"
	"github.com/wawashop/storefront/internal/domain/session"
	"github.com/wawashop/storefront/internal/interfaces/http/middleware"
)

// OrderHandler handles order journal endpoints
type OrderHandler struct {
	orderService *order.Service
	carts        *cartResolver
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, registry *cart.Registry, sessions *session.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		carts:        &cartResolver{registry: registry, sessions: sessions},
	}
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}

	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}
	req.CustomerCode = user.CustomerCode

	response, err := h.orderService.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetOrder handles GET /orders/:number
func (h *OrderHandler) GetOrder(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), user.CustomerCode, c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// CancelOrder handles POST /orders/:number/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}

	var req order.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	o, err := h.orderService.Cancel(c.Request.Context(), user.Identity(), c.Param("number"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    o,
	})
}

// Reorder handles POST /orders/:number/reorder
func (h *OrderHandler) Reorder(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}

	store, ok := h.carts.resolve(c)
	if !ok {
		return
	}

	result, err := h.orderService.Reorder(c.Request.Context(), store, user.CustomerCode, c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Order items added to cart"
	if len(result.Failed) > 0 {
		message = "Some order items could not be added to cart"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data": gin.H{
			"reorder": result,
			"cart":    cartView(store),
		},
	})
}

// currentCustomer returns the signed-in user when the session acts for a customer
func currentCustomer(c *gin.Context) (*session.User, bool) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return nil, false
	}
	if user.CustomerCode == "" {
		respondError(c, cart.ErrUserDataMissing)
		return nil, false
	}
	return user, true
}
