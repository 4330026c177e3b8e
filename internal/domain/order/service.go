// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wawashop/storefront/internal/domain/cart"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order cannot be cancelled in its current status")
)

// CartWriter is the part of a cart store that reorder needs
type CartWriter interface {
	AddOrUpdate(ctx context.Context, product cart.Product, quantity int) error
}

// Service keeps the order journal and cancels or repeats recorded orders
type Service struct {
	db      *gorm.DB
	gateway cart.Gateway
	logger  logrus.FieldLogger
	now     func() time.Time
}

var _ cart.OrderRecorder = (*Service)(nil)

// NewService creates a new order service
func NewService(db *gorm.DB, gateway cart.Gateway, logger logrus.FieldLogger) *Service {
	return &Service{
		db:      db,
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page         int         `form:"page,default=1"`
	Limit        int         `form:"limit,default=20"`
	Status       OrderStatus `form:"status"`
	CustomerCode string      `form:"-"`
	SortBy       string      `form:"sort_by,default=created_at"`
	SortOrder    string      `form:"sort_order,default=desc"`
	DateFrom     string      `form:"date_from"`
	DateTo       string      `form:"date_to"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// CancelRequest represents order cancellation data
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ReorderResult reports which lines made it back into the cart
type ReorderResult struct {
	OrderNumber string         `json:"order_number"`
	Added       int            `json:"added"`
	Failed      []ReorderIssue `json:"failed,omitempty"`
}

// ReorderIssue is a line that could not be put back in the cart
type ReorderIssue struct {
	ItemCode string `json:"item_code"`
	Reason   string `json:"reason"`
}

// RecordSubmission journals a checkout attempt. Journal failures are
// logged and never fail the checkout.
func (s *Service) RecordSubmission(ctx context.Context, req *cart.OrderRequest, submitErr error) {
	status := OrderStatusSubmitted
	if submitErr != nil {
		status = OrderStatusFailed
	}

	order := fromRequest(req, status)
	if submitErr != nil {
		order.FailureReason = submitErr.Error()
	}
	order.StatusHistory = []OrderStatusHistory{{
		Status:    status,
		Comment:   order.FailureReason,
		CreatedBy: createdBy(req.EmployeeCode, req.CustomerCode),
		CreatedAt: s.now().UTC(),
	}}

	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"order_number": req.OrderNumber,
			"cust_code":    req.CustomerCode,
			"status":       status,
		}).Error("Failed to journal order submission")
	}
}

// List retrieves a customer's journaled orders with filtering and pagination
func (s *Service) List(ctx context.Context, req *OrderListRequest) (*OrderResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	var orders []Order
	var total int64

	query := s.db.WithContext(ctx).Model(&Order{}).
		Where("customer_code = ?", req.CustomerCode)

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.DateFrom != "" {
		query = query.Where("doc_date >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("doc_date <= ?", req.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	err := query.Preload("Items").
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// Get retrieves the customer's latest journal entry with this order number
func (s *Service) Get(ctx context.Context, customerCode, orderNumber string) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("customer_code = ? AND order_number = ?", customerCode, orderNumber).
		Order("id DESC").
		First(&order).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// Cancel asks the backend to cancel a submitted order and journals the outcome
func (s *Service) Cancel(ctx context.Context, identity cart.Identity, orderNumber, reason string) (*Order, error) {
	order, err := s.Get(ctx, identity.CustomerCode, orderNumber)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCancelled() {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotCancellable, order.Status)
	}

	log := s.logger.WithFields(logrus.Fields{"order_number": orderNumber, "cust_code": identity.CustomerCode})

	ack, err := s.gateway.CancelOrder(ctx, &cart.CancelRequest{
		CustomerCode: identity.CustomerCode,
		EmployeeCode: identity.EmployeeCode,
		OrderNumber:  orderNumber,
		Remark:       strings.TrimSpace(reason),
	})
	if err != nil {
		log.WithError(err).Error("Cancel order request failed")
		var transport *cart.TransportError
		if errors.As(err, &transport) {
			return nil, transport
		}
		return nil, &cart.TransportError{Op: "cancel order", Message: "unable to cancel the order", Err: err}
	}
	if ack == nil || !ack.Success {
		msg := ack.Reason()
		if msg == "" {
			msg = "unable to cancel the order"
		}
		log.WithField("reason", msg).Warn("Backend refused to cancel order")
		return nil, &cart.GatewayError{Op: "cancel order", Message: msg}
	}

	now := s.now().UTC()
	comment := "Order cancelled"
	if reason = strings.TrimSpace(reason); reason != "" {
		comment = fmt.Sprintf("Order cancelled: %s", reason)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Updates(map[string]interface{}{
			"status":       OrderStatusCancelled,
			"cancelled_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return tx.Create(&OrderStatusHistory{
			OrderID:   order.ID,
			Status:    OrderStatusCancelled,
			Comment:   comment,
			CreatedBy: createdBy(identity.EmployeeCode, identity.CustomerCode),
			CreatedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info("Order cancelled")
	return s.Get(ctx, identity.CustomerCode, orderNumber)
}

// Reorder puts every line of a recorded order back in the cart with its
// original quantity. Lines that fail are reported and the rest still go in.
func (s *Service) Reorder(ctx context.Context, store CartWriter, customerCode, orderNumber string) (*ReorderResult, error) {
	order, err := s.Get(ctx, customerCode, orderNumber)
	if err != nil {
		return nil, err
	}

	result := &ReorderResult{OrderNumber: order.OrderNumber}
	for _, line := range order.Lines() {
		if err := store.AddOrUpdate(ctx, line.Product, line.Quantity); err != nil {
			result.Failed = append(result.Failed, ReorderIssue{ItemCode: line.Product.ItemCode, Reason: err.Error()})
			continue
		}
		result.Added++
	}

	s.logger.WithFields(logrus.Fields{
		"order_number": orderNumber,
		"cust_code":    customerCode,
		"added":        result.Added,
		"failed":       len(result.Failed),
	}).Info("Order lines returned to cart")
	return result, nil
}

func createdBy(employeeCode, customerCode string) string {
	if employeeCode != "" {
		return employeeCode
	}
	return customerCode
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s, id %s", sortBy, sortOrder, sortOrder)
}
