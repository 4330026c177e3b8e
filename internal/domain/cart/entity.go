// internal/domain/cart/entity.go
package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Default conversion metadata sent with every line when the product has none
const (
	DefaultRatio         = "1"
	DefaultStandardValue = "1"
	DefaultDivideValue   = "1"
)

// Line is one product+unit entry in the cart
type Line struct {
	LocalID       string          `json:"local_id"`
	ServerGUID    string          `json:"guid_code,omitempty"`
	ItemCode      string          `json:"item_code"`
	UnitCode      string          `json:"unit_code"`
	ItemName      string          `json:"item_name"`
	Barcode       string          `json:"barcode"`
	Quantity      int             `json:"qty"`
	UnitPrice     decimal.Decimal `json:"price"`
	WarehouseCode string          `json:"wh_code"`
	ShelfCode     string          `json:"shelf_code"`
	Ratio         string          `json:"ratio"`
	StandardValue string          `json:"stand_value"`
	DivideValue   string          `json:"divide_value"`
}

// Amount returns quantity × unit price
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Product identifies what is being put in the cart
type Product struct {
	ID            string          `json:"id"`
	GUID          string          `json:"guid_code"`
	ItemCode      string          `json:"item_code" binding:"required"`
	ItemName      string          `json:"item_name"`
	UnitCode      string          `json:"unit_code"`
	Barcode       string          `json:"barcode"`
	Price         decimal.Decimal `json:"price"`
	WarehouseCode string          `json:"wh_code"`
	ShelfCode     string          `json:"shelf_code"`
	Ratio         string          `json:"ratio"`
	StandardValue string          `json:"stand_value"`
	DivideValue   string          `json:"divide_value"`
}

// LineRef addresses a line by identifier and/or product code.
// ID is matched against the server guid first, then the local id.
type LineRef struct {
	ID       string
	ItemCode string
	UnitCode string
}

// RefByID addresses a line by its server guid or local id
func RefByID(id string) LineRef {
	return LineRef{ID: id}
}

func (r LineRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	if r.UnitCode != "" {
		return r.ItemCode + "/" + r.UnitCode
	}
	return r.ItemCode
}

// Snapshot is a point-in-time copy of the cart lines
type Snapshot struct {
	Lines []Line `json:"items"`
}

// TotalQuantity sums line quantities
func (s Snapshot) TotalQuantity() int {
	total := 0
	for _, line := range s.Lines {
		total += line.Quantity
	}
	return total
}

// TotalAmount sums quantity × unit price over all lines
func (s Snapshot) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.Amount())
	}
	return total
}

// Contains reports whether any line carries itemCode
func (s Snapshot) Contains(itemCode string) bool {
	for _, line := range s.Lines {
		if line.ItemCode == itemCode {
			return true
		}
	}
	return false
}

// Numeric is a wire number that the backend sends either quoted or bare.
// It is always written back quoted.
type Numeric string

// UnmarshalJSON accepts "12", 12 and null
func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("numeric field: %w", err)
	}
	*n = Numeric(num.String())
	return nil
}

// RemoteLine is the cart line shape exchanged with the backend
type RemoteLine struct {
	CreatorCode    string  `json:"creator_code,omitempty"`
	CustCode       string  `json:"cust_code"`
	EmpCode        string  `json:"emp_code"`
	GUIDCode       string  `json:"guid_code"`
	ItemCode       string  `json:"item_code"`
	ItemName       string  `json:"item_name"`
	UnitCode       string  `json:"unit_code"`
	Barcode        string  `json:"barcode"`
	Qty            Numeric `json:"qty"`
	Price          Numeric `json:"price"`
	WhCode         string  `json:"wh_code"`
	ShelfCode      string  `json:"shelf_code"`
	Ratio          Numeric `json:"ratio"`
	StandValue     Numeric `json:"stand_value"`
	DivideValue    Numeric `json:"divide_value"`
	CreateDatetime string  `json:"create_datetime,omitempty"`
}

// toLine normalizes a fetched line. Quantity is truncated to an integer
// and the local id mirrors the server guid.
func (r RemoteLine) toLine() (Line, error) {
	qty, err := decimal.NewFromString(string(r.Qty))
	if err != nil {
		return Line{}, fmt.Errorf("line %s: invalid qty %q", r.GUIDCode, r.Qty)
	}

	price := decimal.Zero
	if r.Price != "" {
		price, err = decimal.NewFromString(string(r.Price))
		if err != nil {
			return Line{}, fmt.Errorf("line %s: invalid price %q", r.GUIDCode, r.Price)
		}
	}

	return Line{
		LocalID:       r.GUIDCode,
		ServerGUID:    r.GUIDCode,
		ItemCode:      r.ItemCode,
		UnitCode:      r.UnitCode,
		ItemName:      r.ItemName,
		Barcode:       r.Barcode,
		Quantity:      int(qty.IntPart()),
		UnitPrice:     price,
		WarehouseCode: r.WhCode,
		ShelfCode:     r.ShelfCode,
		Ratio:         string(r.Ratio),
		StandardValue: string(r.StandValue),
		DivideValue:   string(r.DivideValue),
	}, nil
}

// Ack is the generic backend reply to a mutation
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

// Reason returns the backend supplied message, if any
func (a *Ack) Reason() string {
	if a == nil {
		return ""
	}
	if a.Message != "" {
		return a.Message
	}
	return a.Msg
}

// FetchResult is the backend reply to a cart read
type FetchResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    []RemoteLine `json:"data"`
}

// Defaults fills fulfillment metadata the product does not carry
type Defaults struct {
	UnitCode      string
	WarehouseCode string
	ShelfCode     string
}
