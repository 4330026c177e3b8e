// internal/domain/session/entity.go
package session

import (
	"context"
	"errors"
	"time"

	"github.com/wawashop/storefront/internal/domain/cart"
)

// UserType distinguishes customer and employee sign-ins
type UserType string

const (
	UserCustomer UserType = "customer"
	UserEmployee UserType = "employee"
)

var (
	ErrInvalidCredentials = errors.New("invalid user code or password")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrNotEmployee        = errors.New("only employees can act for a customer")
	ErrCustomerNotFound   = errors.New("customer not found")
)

// User is the signed-in identity kept for the lifetime of a session
type User struct {
	SessionID    string    `json:"session_id"`
	Type         UserType  `json:"user_type"`
	UserCode     string    `json:"user_code"`
	UserName     string    `json:"user_name"`
	Address      string    `json:"address"`
	Telephone    string    `json:"telephone"`
	CustomerCode string    `json:"customer_code"`
	CustomerName string    `json:"customer_name"`
	EmployeeCode string    `json:"employee_code"`
	LoggedInAt   time.Time `json:"logged_in_at"`
}

// Identity is who the cart belongs to. Employees have none until they
// select a customer.
func (u *User) Identity() cart.Identity {
	return cart.Identity{
		CustomerCode: u.CustomerCode,
		EmployeeCode: u.EmployeeCode,
	}
}

// Account is a user record returned by the login endpoints
type Account struct {
	UserCode  string `json:"user_code"`
	UserName  string `json:"user_name"`
	Address   string `json:"address"`
	Telephone string `json:"telephone"`
}

// LoginResult is the backend reply to a login
type LoginResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    []Account `json:"data"`
}

// Customer is a customer directory entry
type Customer struct {
	Code      string `json:"code"`
	Name      string `json:"name_1"`
	Address   string `json:"address"`
	Telephone string `json:"telephone"`
}

// CustomerQuery filters the customer directory. Code matches exactly,
// Search matches name or code.
type CustomerQuery struct {
	Code   string
	Search string
	Limit  int
}

// UserGateway verifies credentials and looks up customers at the backend
type UserGateway interface {
	LoginCustomer(ctx context.Context, userCode, password string) (*LoginResult, error)
	LoginEmployee(ctx context.Context, userCode, password string) (*LoginResult, error)
	FindCustomers(ctx context.Context, query CustomerQuery) ([]Customer, error)
}
