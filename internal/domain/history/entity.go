// internal/domain/history/entity.go
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// ErrRecordNotFound is returned when the backend has no order or document
// under the requested number for the customer
var ErrRecordNotFound = errors.New("history record not found")

// Kind is the type of history being read
type Kind string

const (
	KindOrder    Kind = "order"
	KindDocument Kind = "document"
)

// Result is the backend's history envelope. Data is kept as the backend
// sent it; its shape differs per endpoint and document type.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Empty reports whether the result carries no records
func (r *Result) Empty() bool {
	data := bytes.TrimSpace(r.Data)
	switch string(data) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}

// Query filters a history listing. Filter is the order status for orders
// and the transaction flag for documents; empty means all.
type Query struct {
	CustomerCode string
	Filter       string
}

// Gateway reads order and document history held by the backend,
// including records placed through other channels
type Gateway interface {
	OrderHistory(ctx context.Context, custCode, status string) (*Result, error)
	OrderDetail(ctx context.Context, custCode, docNo string) (*Result, error)
	DocumentList(ctx context.Context, custCode, transFlag string) (*Result, error)
	DocumentDetail(ctx context.Context, custCode, docNo string) (*Result, error)
}
