package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wawashop/storefront/internal/domain/cart"
	"github.com/wawashop/storefront/internal/domain/history"
	"github.com/wawashop/storefront/internal/domain/order"
	"github.com/wawashop/storefront/internal/domain/session"
	"github.com/wawashop/storefront/internal/infrastructure/gateway"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var (
		validation *cart.ValidationError
		rejected   *cart.GatewayError
		transport  *cart.TransportError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrUserDataMissing),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, gateway.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrNotEmployee):
		return http.StatusForbidden
	case errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, history.ErrRecordNotFound),
		errors.Is(err, session.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, order.ErrOrderNotCancellable):
		return http.StatusConflict
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the matching status. Messages of
// unrecognized errors are not shown to the caller.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	body := gin.H{"error": message}
	var validation *cart.ValidationError
	if errors.As(err, &validation) && validation.Field != "" {
		body["field"] = validation.Field
	}
	c.JSON(status, body)
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}
