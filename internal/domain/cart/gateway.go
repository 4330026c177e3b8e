// internal/domain/cart/gateway.go
package cart

import "context"

// Gateway is the backend facade that persists cart and order state
type Gateway interface {
	FetchItems(ctx context.Context, custCode string) (*FetchResult, error)
	AddItems(ctx context.Context, lines []RemoteLine) (*Ack, error)
	UpdateItems(ctx context.Context, lines []RemoteLine) (*Ack, error)
	DeleteItem(ctx context.Context, guidCode, custCode string) (*Ack, error)
	DeleteAllItems(ctx context.Context, custCode string) (*Ack, error)
	FetchCartOrder(ctx context.Context, custCode string) (*FetchResult, error)
	SendOrder(ctx context.Context, order *OrderRequest) (*Ack, error)
	CancelOrder(ctx context.Context, req *CancelRequest) (*Ack, error)
}

// Identity is who the cart belongs to
type Identity struct {
	CustomerCode string
	EmployeeCode string
}

type employeeKey struct{}

// WithEmployee marks ctx with the employee acting on the cart. An empty code
// means the customer is acting for themselves.
func WithEmployee(ctx context.Context, employeeCode string) context.Context {
	return context.WithValue(ctx, employeeKey{}, employeeCode)
}

// EmployeeFrom returns the employee set by WithEmployee
func EmployeeFrom(ctx context.Context) (string, bool) {
	code, ok := ctx.Value(employeeKey{}).(string)
	return code, ok
}

// SessionProvider reads the signed-in identity. An empty CustomerCode
// means nobody is signed in.
type SessionProvider interface {
	Identity(ctx context.Context) (Identity, error)
}

// StaticSession is a SessionProvider with a fixed identity
type StaticSession Identity

// Identity returns the fixed identity
func (s StaticSession) Identity(context.Context) (Identity, error) {
	return Identity(s), nil
}

// OrderRecorder is notified of every order submission attempt
type OrderRecorder interface {
	RecordSubmission(ctx context.Context, req *OrderRequest, submitErr error)
}
