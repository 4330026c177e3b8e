// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wawashop/storefront/internal/domain/cart"
	"gorm.io/gorm"
)

// OrderStatus represents the journal status of a checkout attempt
type OrderStatus string

const (
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is one recorded checkout attempt. Order numbers are display tags
// and may repeat, so they are indexed but not unique.
type Order struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	OrderNumber  string      `gorm:"index;not null;size:50" json:"order_number"`
	CustomerCode string      `gorm:"index;not null;size:50" json:"customer_code"`
	EmployeeCode string      `gorm:"size:50" json:"employee_code"`
	Status       OrderStatus `gorm:"not null;size:20" json:"status"`

	DocDate string `gorm:"size:10" json:"doc_date"`
	DocTime string `gorm:"size:5" json:"doc_time"`

	TotalAmount decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_amount"`

	Telephone     string `gorm:"size:30" json:"telephone"`
	Remark        string `gorm:"type:text" json:"remark"`
	FailureReason string `gorm:"type:text" json:"failure_reason,omitempty"`

	CancelledAt *time.Time     `json:"cancelled_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is one line of a recorded order
type OrderItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;index" json:"order_id"`
	ItemCode      string          `gorm:"not null;size:50" json:"item_code"`
	ItemName      string          `gorm:"size:255" json:"item_name"`
	Barcode       string          `gorm:"size:50" json:"barcode"`
	UnitCode      string          `gorm:"size:30" json:"unit_code"`
	Quantity      int             `gorm:"not null" json:"qty"`
	Price         decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"price"`
	LineAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"sum_amount"`
	WarehouseCode string          `gorm:"size:30" json:"wh_code"`
	ShelfCode     string          `gorm:"size:30" json:"shelf_code"`
	Ratio         string          `gorm:"size:20" json:"ratio"`
	StandardValue string          `gorm:"size:20" json:"stand_value"`
	DivideValue   string          `gorm:"size:20" json:"divide_value"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null;size:20" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy string      `gorm:"size:50" json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// CanBeCancelled checks if the backend may still cancel the order
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusSubmitted
}

// Lines returns the order items as cart products with their quantities
func (o *Order) Lines() []ReorderLine {
	lines := make([]ReorderLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = ReorderLine{
			Product: cart.Product{
				ItemCode:      item.ItemCode,
				ItemName:      item.ItemName,
				UnitCode:      item.UnitCode,
				Barcode:       item.Barcode,
				Price:         item.Price,
				WarehouseCode: item.WarehouseCode,
				ShelfCode:     item.ShelfCode,
				Ratio:         item.Ratio,
				StandardValue: item.StandardValue,
				DivideValue:   item.DivideValue,
			},
			Quantity: item.Quantity,
		}
	}
	return lines
}

// ReorderLine is a product to put back in the cart
type ReorderLine struct {
	Product  cart.Product
	Quantity int
}

// fromRequest builds a journal entry from an order payload
func fromRequest(req *cart.OrderRequest, status OrderStatus) *Order {
	items := make([]OrderItem, len(req.Lines))
	for i, line := range req.Lines {
		items[i] = OrderItem{
			ItemCode:      line.ItemCode,
			ItemName:      line.ItemName,
			Barcode:       line.Barcode,
			UnitCode:      line.UnitCode,
			Quantity:      line.Quantity,
			Price:         line.Price,
			LineAmount:    line.LineAmount,
			WarehouseCode: line.WarehouseCode,
			ShelfCode:     line.ShelfCode,
			Ratio:         line.Ratio,
			StandardValue: line.StandardValue,
			DivideValue:   line.DivideValue,
		}
	}

	return &Order{
		OrderNumber:  req.OrderNumber,
		CustomerCode: req.CustomerCode,
		EmployeeCode: req.EmployeeCode,
		Status:       status,
		DocDate:      req.Date,
		DocTime:      req.Time,
		TotalAmount:  req.TotalAmount,
		Telephone:    req.Telephone,
		Remark:       req.Remark,
		Items:        items,
	}
}
