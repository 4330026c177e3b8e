// internal/domain/cart/checkout.go
package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DeliveryMethod is how the order reaches the customer
type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

// Remark texts written on the order
const (
	PickupRemark         = "Pickup at store"
	deliveryRemarkFormat = "Deliver to: %s"
)

// CheckoutStatus tracks the latest checkout attempt
type CheckoutStatus string

const (
	CheckoutIdle       CheckoutStatus = "idle"
	CheckoutSubmitting CheckoutStatus = "submitting"
	CheckoutSucceeded  CheckoutStatus = "succeeded"
	CheckoutFailed     CheckoutStatus = "failed"
)

// CheckoutInput is what the customer chose at checkout
type CheckoutInput struct {
	DeliveryMethod    DeliveryMethod `json:"delivery_method" binding:"required"`
	DeliveryAddress   string         `json:"delivery_address"`
	DeliveryTelephone string         `json:"delivery_telephone"`
	CustomerCode      string         `json:"customer_code"`
	EmployeeCode      string         `json:"employee_code"`
}

// Validate checks the delivery choice
func (in CheckoutInput) Validate() error {
	switch in.DeliveryMethod {
	case DeliveryPickup:
		return nil
	case DeliveryDelivery:
		if strings.TrimSpace(in.DeliveryAddress) == "" {
			return &ValidationError{Field: "delivery_address", Message: "delivery address is required for delivery"}
		}
		return nil
	default:
		return &ValidationError{Field: "delivery_method", Message: fmt.Sprintf("unknown delivery method %q", in.DeliveryMethod)}
	}
}

// Remark returns the order remark for the delivery choice
func (in CheckoutInput) Remark() string {
	if in.DeliveryMethod == DeliveryDelivery {
		return fmt.Sprintf(deliveryRemarkFormat, in.DeliveryAddress)
	}
	return PickupRemark
}

// OrderLine is one line of a submitted order
type OrderLine struct {
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	Barcode       string          `json:"barcode"`
	Quantity      int             `json:"qty,string"`
	Price         decimal.Decimal `json:"price"`
	LineAmount    decimal.Decimal `json:"sum_amount"`
	UnitCode      string          `json:"unit_code"`
	WarehouseCode string          `json:"wh_code"`
	ShelfCode     string          `json:"shelf_code"`
	Ratio         string          `json:"ratio"`
	StandardValue string          `json:"stand_value"`
	DivideValue   string          `json:"divide_value"`
}

// OrderRequest is the payload sent to the backend at checkout
type OrderRequest struct {
	CustomerCode string          `json:"cust_code"`
	EmployeeCode string          `json:"emp_code"`
	Date         string          `json:"doc_date"`
	Time         string          `json:"doc_time"`
	OrderNumber  string          `json:"doc_no"`
	Lines        []OrderLine     `json:"items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Telephone    string          `json:"telephone"`
	Remark       string          `json:"remark"`
}

// CancelRequest asks the backend to cancel a submitted order
type CancelRequest struct {
	CustomerCode string `json:"cust_code"`
	EmployeeCode string `json:"emp_code"`
	OrderNumber  string `json:"doc_no"`
	Remark       string `json:"remark,omitempty"`
}

// CheckoutResult is returned after the backend accepted the order
type CheckoutResult struct {
	OrderNumber string        `json:"order_number"`
	Message     string        `json:"message"`
	Order       *OrderRequest `json:"order"`
}

// BuildOrderRequest turns cart lines into an order payload. Line amounts
// are rounded to two places and the order total is summed from them, not
// taken from the cart.
func BuildOrderRequest(lines []Line, in CheckoutInput, orderNumber string, now time.Time, defaults Defaults) *OrderRequest {
	items := make([]OrderLine, len(lines))
	total := decimal.Zero

	for i, line := range lines {
		amount := line.Amount().Round(2)
		items[i] = OrderLine{
			ItemCode:      line.ItemCode,
			ItemName:      line.ItemName,
			Barcode:       line.Barcode,
			Quantity:      line.Quantity,
			Price:         line.UnitPrice,
			LineAmount:    amount,
			UnitCode:      orDefault(line.UnitCode, defaults.UnitCode),
			WarehouseCode: orDefault(line.WarehouseCode, defaults.WarehouseCode),
			ShelfCode:     orDefault(line.ShelfCode, defaults.ShelfCode),
			Ratio:         orDefault(line.Ratio, DefaultRatio),
			StandardValue: orDefault(line.StandardValue, DefaultStandardValue),
			DivideValue:   orDefault(line.DivideValue, DefaultDivideValue),
		}
		total = total.Add(amount)
	}

	return &OrderRequest{
		CustomerCode: in.CustomerCode,
		EmployeeCode: in.EmployeeCode,
		Date:         now.Format("2006-01-02"),
		Time:         now.Format("15:04"),
		OrderNumber:  orderNumber,
		Lines:        items,
		TotalAmount:  total,
		TotalValue:   total,
		Telephone:    in.DeliveryTelephone,
		Remark:       in.Remark(),
	}
}

// LinesTotal sums the line amounts of an order
func (r *OrderRequest) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range r.Lines {
		total = total.Add(line.LineAmount)
	}
	return total
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Checkout submits the cart as an order. On success the cart is cleared
// and the order number returned; on failure the cart is left as it was.
// Each call generates a new order number, so retrying after a lost reply
// can place the order twice.
func (s *Store) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.begin()
	s.setCheckout(CheckoutSubmitting)

	result, err := s.submitOrder(ctx, in)
	if result != nil {
		s.setCheckout(CheckoutSucceeded)
	} else {
		s.setCheckout(CheckoutFailed)
	}
	s.finish(err)
	return result, err
}

func (s *Store) submitOrder(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	custCode, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	lines := s.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	if in.CustomerCode == "" {
		in.CustomerCode = custCode
	}
	if in.EmployeeCode == "" {
		in.EmployeeCode = s.employee(ctx)
	}

	now := s.clock().In(s.location)
	req := BuildOrderRequest(lines, in, s.numbers.Next(now), now, s.defaults)

	log := s.logger.WithFields(logrus.Fields{
		"cust_code":    req.CustomerCode,
		"order_number": req.OrderNumber,
		"lines":        len(req.Lines),
		"total_amount": req.TotalAmount.String(),
	})
	log.Info("Submitting order")

	ack, err := s.gateway.SendOrder(ctx, req)
	submitErr := s.confirm("send order", "unable to place the order", ack, err)
	if s.recorder != nil {
		s.recorder.RecordSubmission(ctx, req, submitErr)
	}
	if submitErr != nil {
		log.WithError(submitErr).Warn("Order submission failed")
		return nil, submitErr
	}

	result := &CheckoutResult{
		OrderNumber: req.OrderNumber,
		Message:     "order placed",
		Order:       req,
	}

	if err := s.clear(ctx); err != nil {
		log.WithError(err).Error("Order placed but cart could not be cleared")
		return result, fmt.Errorf("order %s placed but the cart could not be cleared: %w", req.OrderNumber, err)
	}

	log.Info("Order placed")
	return result, nil
}

func (s *Store) setCheckout(status CheckoutStatus) {
	s.mu.Lock()
	s.checkout = status
	s.mu.Unlock()
}
