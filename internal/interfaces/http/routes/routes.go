// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/wawashop/storefront/internal/domain/cart"
	"github.com/wawashop/storefront/internal/domain/history"
	"github.com/wawashop/storefront/internal/domain/order"
	"github.com/wawashop/storefront/internal/domain/session"
	"github.com/wawashop/storefront/internal/interfaces/http/handlers"
	"github.com/wawashop/storefront/internal/interfaces/http/middleware"
	"github.com/wawashop/storefront/internal/pkg/pdf"
)

// Dependencies are the services the routes are served by
type Dependencies struct {
	Sessions *session.Service
	Carts    *cart.Registry
	Orders   *order.Service
	Receipts *pdf.Service
	History  *history.Service
}

// SetupSessionRoutes sets up sign-in and customer selection routes
func SetupSessionRoutes(rg *gin.RouterGroup, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Sessions)

	sessions := rg.Group("/session")
	{
		// Public session endpoints
		sessions.POST("/customer-login", authHandler.CustomerLogin)
		sessions.POST("/employee-login", authHandler.EmployeeLogin)

		// Protected session endpoints
		protected := sessions.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Sessions))
		{
			protected.GET("", authHandler.GetCurrentUser)
			protected.DELETE("", authHandler.Logout)
			protected.POST("/customer", middleware.EmployeeOnly(), authHandler.SelectCustomer)
		}
	}

	customers := rg.Group("/customers")
	customers.Use(middleware.AuthMiddleware(deps.Sessions), middleware.EmployeeOnly())
	{
		customers.GET("", authHandler.SearchCustomers)
	}
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, deps Dependencies) {
	cartHandler := handlers.NewCartHandler(deps.Carts, deps.Sessions)

	carts := rg.Group("/cart")
	carts.Use(middleware.AuthMiddleware(deps.Sessions))
	{
		carts.GET("", cartHandler.GetCart)
		carts.DELETE("", cartHandler.ClearCart)
		carts.GET("/priced", cartHandler.GetPricedCart)
		carts.GET("/contains/:item_code", cartHandler.IsInCart)
		carts.POST("/items", cartHandler.AddToCart)
		carts.PUT("/items/:ref", cartHandler.UpdateCartItem)
		carts.DELETE("/items/:ref", cartHandler.RemoveFromCart)
		carts.POST("/checkout", cartHandler.Checkout)
	}
}

// SetupOrderRoutes sets up order journal routes
func SetupOrderRoutes(rg *gin.RouterGroup, deps Dependencies) {
	orderHandler := handlers.NewOrderHandler(deps.Orders, deps.Carts, deps.Sessions)
	receiptHandler := handlers.NewReceiptHandler(deps.Orders, deps.Receipts)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(deps.Sessions))
	{
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:number", orderHandler.GetOrder)
		orders.POST("/:number/cancel", orderHandler.CancelOrder)
		orders.POST("/:number/reorder", orderHandler.Reorder)
		orders.GET("/:number/receipt", receiptHandler.GetReceipt)
	}
}

// SetupHistoryRoutes sets up backend order and document history routes
func SetupHistoryRoutes(rg *gin.RouterGroup, deps Dependencies) {
	historyHandler := handlers.NewHistoryHandler(deps.History)

	records := rg.Group("/history")
	records.Use(middleware.AuthMiddleware(deps.Sessions))
	{
		records.GET("/orders", historyHandler.GetOrderHistory)
		records.GET("/orders/:doc_no", historyHandler.GetOrderDetail)
		records.GET("/documents", historyHandler.GetDocuments)
		records.GET("/documents/:doc_no", historyHandler.GetDocumentDetail)
	}
}

// SetupRoutes sets up all API routes
func SetupRoutes(rg *gin.RouterGroup, deps Dependencies) {
	SetupSessionRoutes(rg, deps)
	SetupCartRoutes(rg, deps)
	SetupOrderRoutes(rg, deps)
	SetupHistoryRoutes(rg, deps)
}
