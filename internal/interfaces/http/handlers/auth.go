// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wawashop/storefront/internal/domain/session"
	"github.com/wawashop/storefront/internal/interfaces/http/middleware"
)

// AuthHandler handles sign-in, customer selection and sign-out
type AuthHandler struct {
	sessions *session.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *session.Service) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// CustomerLogin handles POST /session/customer-login
func (h *AuthHandler) CustomerLogin(c *gin.Context) {
	var req session.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	response, err := h.sessions.LoginCustomer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    response,
	})
}

// EmployeeLogin handles POST /session/employee-login
func (h *AuthHandler) EmployeeLogin(c *gin.Context) {
	var req session.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	response, err := h.sessions.LoginEmployee(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    response,
	})
}

// GetCurrentUser handles GET /session
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User retrieved successfully",
		"data":    user,
	})
}

// SelectCustomer handles POST /session/customer
func (h *AuthHandler) SelectCustomer(c *gin.Context) {
	user, _ := middleware.GetUserFromContext(c)

	var req struct {
		CustomerCode string `json:"customer_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	updated, err := h.sessions.SelectCustomer(c.Request.Context(), user.SessionID, req.CustomerCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Customer selected",
		"data":    updated,
	})
}

// SearchCustomers handles GET /customers
func (h *AuthHandler) SearchCustomers(c *gin.Context) {
	user, _ := middleware.GetUserFromContext(c)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	customers, err := h.sessions.SearchCustomers(c.Request.Context(), user, c.Query("search"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Customers retrieved successfully",
		"data":    customers,
	})
}

// Logout handles DELETE /session
func (h *AuthHandler) Logout(c *gin.Context) {
	user, _ := middleware.GetUserFromContext(c)

	if err := h.sessions.Logout(c.Request.Context(), user.SessionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful",
	})
}
