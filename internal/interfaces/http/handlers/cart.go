// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wawashop/storefront/internal/domain/cart"
	"github.com/wawashop/storefront/internal/domain/session"
	"github.com/wawashop/storefront/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	carts *cartResolver
}

// NewCartHandler creates a new cart handler
func NewCartHandler(registry *cart.Registry, sessions *session.Service) *CartHandler {
	return &CartHandler{carts: &cartResolver{registry: registry, sessions: sessions}}
}

// CartResponse is the cart as shown to the caller
type CartResponse struct {
	CustomerCode   string              `json:"customer_code"`
	Items          []cart.Line         `json:"items"`
	TotalQuantity  int                 `json:"total_quantity"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	CheckoutStatus cart.CheckoutStatus `json:"checkout_status"`
	Error          string              `json:"error,omitempty"`
}

// AddItemRequest puts a product in the cart
type AddItemRequest struct {
	Product  cart.Product `json:"product"`
	Quantity int          `json:"quantity" binding:"gte=0"`
}

// UpdateItemRequest sets the quantity of a line. ItemCode and UnitCode
// are used when the line id is unknown; Product is added when nothing matches.
type UpdateItemRequest struct {
	Quantity int           `json:"quantity" binding:"gte=0"`
	ItemCode string        `json:"item_code"`
	UnitCode string        `json:"unit_code"`
	Product  *cart.Product `json:"product"`
}

// GetCart handles GET /cart. Pass refresh=true to reload from the backend.
func (h *CartHandler) GetCart(c *gin.Context) {
	store, ok := h.carts.resolve(c)
	if !ok {
		return
	}

	if c.Query("refresh") == "true" {
		store.Load(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartView(store),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	store, ok := h.carts.resolve(c)
	if !ok {
		return
	}

	if err := store.AddOrUpdate(c.Request.Context(), req.Product, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    cartView(store),
	})
}

// UpdateCartItem handles PUT /cart/items/:ref
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	store, ok := h.carts.resolve(c)
	if !ok {
		return
	}

	ref := cart.LineRef{ID: c.Param("ref"), ItemCode: req.ItemCode, UnitCode: req.UnitCode}
	if err := store.UpdateQuantity(c.Request.Context(), ref, req.Quantity, req.Product); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    cartView(store),
	})
}

// RemoveFromCart handles DELETE /cart/items/:ref
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	store, ok := h.carts.resolve(c)
	if !ok {
		return
	}

	if err := store.Remove(c.Request.Context(), cart.RefByID(c.Param("ref"))); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    cartView(store),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	store, ok := h.carts.resolve(c)
	if !ok {
		return
	}

	if err := store.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    cartView(store),
	})
}

// GetPricedCart handles GET /cart/priced
func (h *CartHandler) GetPricedCart(c *gin.Context) {
	store, ok := h.carts.resolve(c)
	if !ok {
		return
	}

	lines, err := store.PricedLines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	snapshot := cart.Snapshot{Lines: lines}
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart prices retrieved successfully",
		"data": gin.H{
			"items":          lines,
			"total_quantity": snapshot.TotalQuantity(),
			"total_amount":   snapshot.TotalAmount(),
		},
	})
}

// IsInCart handles GET /cart/contains/:item_code
func (h *CartHandler) IsInCart(c *gin.Context) {
	store, ok := h.carts.resolve(c)
	if !ok {
		return
	}

	itemCode := c.Param("item_code")
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"item_code": itemCode,
			"in_cart":   store.IsInCart(itemCode),
		},
	})
}

// Checkout handles POST /cart/checkout
func (h *CartHandler) Checkout(c *gin.Context) {
	var req cart.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	// The order is always placed for the signed-in identity
	req.CustomerCode = ""
	req.EmployeeCode = ""

	store, ok := h.carts.resolve(c)
	if !ok {
		return
	}

	result, err := store.Checkout(c.Request.Context(), req)
	if result != nil {
		body := gin.H{
			"message": "Order placed successfully",
			"data":    result,
		}
		if err != nil {
			_ = c.Error(err)
			body["warning"] = err.Error()
		}
		c.JSON(http.StatusCreated, body)
		return
	}
	respondError(c, err)
}

// cartResolver finds the cart store of the signed-in session
type cartResolver struct {
	registry *cart.Registry
	sessions *session.Service
}

func (r *cartResolver) resolve(c *gin.Context) (*cart.Store, bool) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return nil, false
	}

	// Cart writes and orders are stamped with whoever holds this session
	c.Request = c.Request.WithContext(cart.WithEmployee(c.Request.Context(), user.EmployeeCode))

	store, err := r.registry.For(c.Request.Context(), r.sessions.Provider(user.SessionID))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return store, true
}

func cartView(store *cart.Store) CartResponse {
	snapshot := store.Snapshot()
	view := CartResponse{
		CustomerCode:   store.CustomerCode(),
		Items:          snapshot.Lines,
		TotalQuantity:  snapshot.TotalQuantity(),
		TotalAmount:    snapshot.TotalAmount(),
		CheckoutStatus: store.CheckoutStatus(),
	}
	if err := store.Err(); err != nil {
		view.Error = err.Error()
	}
	return view
}
