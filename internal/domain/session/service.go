// internal/domain/session/service.go
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wawashop/storefront/internal/domain/cart"
	"github.com/wawashop/storefront/internal/pkg/auth"
)

// Service handles sign-in, customer selection and sign-out
type Service struct {
	users  UserGateway
	store  *Store
	tokens *auth.JWTManager
	logger logrus.FieldLogger
	now    func() time.Time

	released []func(customerCode string)
}

// NewService creates a new session service
func NewService(users UserGateway, store *Store, tokens *auth.JWTManager, logger logrus.FieldLogger) *Service {
	return &Service{
		users:  users,
		store:  store,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// OnRelease registers fn to be called with the customer code a session
// stops acting for, on logout or when an employee switches customer
func (s *Service) OnRelease(fn func(customerCode string)) {
	s.released = append(s.released, fn)
}

// LoginRequest represents login data
type LoginRequest struct {
	UserCode string `json:"user_code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned after a successful sign-in
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	User      *User  `json:"user"`
}

// LoginCustomer signs a customer in
func (s *Service) LoginCustomer(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	return s.login(ctx, UserCustomer, req, s.users.LoginCustomer)
}

// LoginEmployee signs an employee in. The session has no customer until
// SelectCustomer is called.
func (s *Service) LoginEmployee(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	return s.login(ctx, UserEmployee, req, s.users.LoginEmployee)
}

type loginFunc func(ctx context.Context, userCode, password string) (*LoginResult, error)

func (s *Service) login(ctx context.Context, userType UserType, req *LoginRequest, call loginFunc) (*LoginResponse, error) {
	code := strings.TrimSpace(req.UserCode)
	log := s.logger.WithFields(logrus.Fields{"user_type": userType, "user_code": code})

	result, err := call(ctx, code, req.Password)
	if err != nil {
		log.WithError(err).Error("Login request failed")
		return nil, err
	}
	if result == nil || !result.Success || len(result.Data) == 0 {
		log.Warn("Login rejected")
		return nil, ErrInvalidCredentials
	}

	account := result.Data[0]
	user := &User{
		SessionID:  uuid.NewString(),
		Type:       userType,
		UserCode:   account.UserCode,
		UserName:   account.UserName,
		Address:    account.Address,
		Telephone:  account.Telephone,
		LoggedInAt: s.now().UTC(),
	}
	if user.UserCode == "" {
		user.UserCode = code
	}
	switch userType {
	case UserCustomer:
		user.CustomerCode = user.UserCode
		user.CustomerName = user.UserName
	case UserEmployee:
		user.EmployeeCode = user.UserCode
	}

	if err := s.store.Save(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateSessionToken(user.SessionID, string(user.Type), user.UserCode)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	log.WithField("session_id", user.SessionID).Info("User logged in")

	return &LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.Expiry().Seconds()),
		User:      user,
	}, nil
}

// Authenticate resolves a session token to its signed-in user
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, claims.SessionID)
}

// Get returns the user of a session
func (s *Service) Get(ctx context.Context, sessionID string) (*User, error) {
	return s.store.Get(ctx, sessionID)
}

// SelectCustomer lets an employee session act for a customer
func (s *Service) SelectCustomer(ctx context.Context, sessionID, customerCode string) (*User, error) {
	user, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if user.Type != UserEmployee {
		return nil, ErrNotEmployee
	}

	customerCode = strings.TrimSpace(customerCode)
	customers, err := s.users.FindCustomers(ctx, CustomerQuery{Code: customerCode})
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, ErrCustomerNotFound
	}

	previous := user.CustomerCode
	user.CustomerCode = customers[0].Code
	if user.CustomerCode == "" {
		user.CustomerCode = customerCode
	}
	user.CustomerName = customers[0].Name

	if err := s.store.Save(ctx, user); err != nil {
		return nil, err
	}
	if previous != "" && previous != user.CustomerCode {
		s.release(previous)
	}

	s.logger.WithFields(logrus.Fields{
		"emp_code":  user.EmployeeCode,
		"cust_code": user.CustomerCode,
	}).Info("Employee selected customer")
	return user, nil
}

// SearchCustomers searches the customer directory on behalf of an employee
func (s *Service) SearchCustomers(ctx context.Context, user *User, search string, limit int) ([]Customer, error) {
	if user.Type != UserEmployee {
		return nil, ErrNotEmployee
	}
	customers, err := s.users.FindCustomers(ctx, CustomerQuery{Search: strings.TrimSpace(search), Limit: limit})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(customers) > limit {
		customers = customers[:limit]
	}
	return customers, nil
}

// Logout ends a session
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	user, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if user.CustomerCode != "" {
		s.release(user.CustomerCode)
	}

	s.logger.WithFields(logrus.Fields{"user_type": user.Type, "user_code": user.UserCode}).Info("User logged out")
	return nil
}

func (s *Service) release(customerCode string) {
	for _, fn := range s.released {
		fn(customerCode)
	}
}

// Provider adapts a session to the cart's session interface
func (s *Service) Provider(sessionID string) cart.SessionProvider {
	return &provider{store: s.store, sessionID: sessionID}
}

type provider struct {
	store     *Store
	sessionID string
}

func (p *provider) Identity(ctx context.Context) (cart.Identity, error) {
	user, err := p.store.Get(ctx, p.sessionID)
	if err != nil {
		return cart.Identity{}, err
	}
	return user.Identity(), nil
}
