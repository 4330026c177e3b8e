// internal/infrastructure/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/wawashop/storefront/internal/config"
	"github.com/wawashop/storefront/internal/domain/cart"
	"github.com/wawashop/storefront/internal/domain/history"
	"github.com/wawashop/storefront/internal/domain/session"
)

// ErrUnauthorized is the cause of a TransportError when the backend
// rejects the forwarded bearer token
var ErrUnauthorized = errors.New("backend rejected the session token")

// Client talks to the retail backend's shop service over HTTP JSON.
// It implements cart.Gateway, session.UserGateway and history.Gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

var (
	_ cart.Gateway        = (*Client)(nil)
	_ session.UserGateway = (*Client)(nil)
	_ history.Gateway     = (*Client)(nil)
)

// NewClient creates a backend client from the gateway configuration
func NewClient(cfg config.GatewayConfig, logger logrus.FieldLogger) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if path := strings.Trim(cfg.ServicePath, "/"); path != "" {
		base += "/" + path
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type tokenKey struct{}

// WithBearerToken returns a context whose backend calls carry token
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// FetchItems reads the customer's cart lines
func (c *Client) FetchItems(ctx context.Context, custCode string) (*cart.FetchResult, error) {
	var out cart.FetchResult
	err := c.get(ctx, "fetch items", "getcartitemlist", url.Values{"cust_code": {custCode}}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddItems writes new cart lines
func (c *Client) AddItems(ctx context.Context, lines []cart.RemoteLine) (*cart.Ack, error) {
	return c.ack(ctx, "add items", http.MethodPost, "additemtocart", nil, lines)
}

// UpdateItems upserts cart lines; the backend uses one endpoint for add and update
func (c *Client) UpdateItems(ctx context.Context, lines []cart.RemoteLine) (*cart.Ack, error) {
	return c.ack(ctx, "update items", http.MethodPost, "additemtocart", nil, lines)
}

// DeleteItem removes one line by guid
func (c *Client) DeleteItem(ctx context.Context, guidCode, custCode string) (*cart.Ack, error) {
	params := url.Values{"guid_code": {guidCode}, "cust_code": {custCode}}
	return c.ack(ctx, "delete item", http.MethodGet, "deleteItem", params, nil)
}

// DeleteAllItems empties the customer's cart
func (c *Client) DeleteAllItems(ctx context.Context, custCode string) (*cart.Ack, error) {
	return c.ack(ctx, "delete all items", http.MethodGet, "deleteAllItems", url.Values{"cust_code": {custCode}}, nil)
}

// FetchCartOrder reads the cart priced for ordering
func (c *Client) FetchCartOrder(ctx context.Context, custCode string) (*cart.FetchResult, error) {
	var out cart.FetchResult
	err := c.get(ctx, "fetch cart order", "getcartorder", url.Values{"cust_code": {custCode}}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SendOrder submits an order
func (c *Client) SendOrder(ctx context.Context, order *cart.OrderRequest) (*cart.Ack, error) {
	return c.ack(ctx, "send order", http.MethodPost, "sendorder", nil, order)
}

// CancelOrder cancels a submitted order
func (c *Client) CancelOrder(ctx context.Context, req *cart.CancelRequest) (*cart.Ack, error) {
	return c.ack(ctx, "cancel order", http.MethodPost, "cancelOrder", nil, req)
}

// LoginCustomer verifies customer credentials
func (c *Client) LoginCustomer(ctx context.Context, userCode, password string) (*session.LoginResult, error) {
	return c.login(ctx, "logincus", userCode, password)
}

// LoginEmployee verifies employee credentials
func (c *Client) LoginEmployee(ctx context.Context, userCode, password string) (*session.LoginResult, error) {
	return c.login(ctx, "loginemp", userCode, password)
}

func (c *Client) login(ctx context.Context, endpoint, userCode, password string) (*session.LoginResult, error) {
	var out session.LoginResult
	params := url.Values{"user_code": {userCode}, "password": {password}}
	if err := c.get(ctx, "login", endpoint, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindCustomers queries the customer directory. The backend answers with
// either a bare array or {"data": [...]}.
func (c *Client) FindCustomers(ctx context.Context, query session.CustomerQuery) ([]session.Customer, error) {
	params := url.Values{}
	if query.Code != "" {
		params.Set("code", query.Code)
	} else {
		params.Set("search", query.Search)
	}

	var raw json.RawMessage
	if err := c.get(ctx, "find customers", "getCustomerList", params, &raw); err != nil {
		return nil, err
	}

	var list []session.Customer
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Data []session.Customer `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &cart.TransportError{Op: "find customers", Message: "unexpected customer list from backend", Err: err}
	}
	return wrapped.Data, nil
}

// OrderHistory lists the customer's orders, optionally by status
func (c *Client) OrderHistory(ctx context.Context, custCode, status string) (*history.Result, error) {
	params := url.Values{"cust_code": {custCode}, "status": {status}}
	return c.fetchHistory(ctx, "order history", "getOrderHistory", params)
}

// OrderDetail reads one order by document number
func (c *Client) OrderDetail(ctx context.Context, custCode, docNo string) (*history.Result, error) {
	params := url.Values{"cust_code": {custCode}, "doc_no": {docNo}}
	return c.fetchHistory(ctx, "order detail", "getOrderDetail", params)
}

// DocumentList lists the customer's documents, optionally by transaction flag
func (c *Client) DocumentList(ctx context.Context, custCode, transFlag string) (*history.Result, error) {
	params := url.Values{"cust_code": {custCode}, "trans_flag": {transFlag}}
	return c.fetchHistory(ctx, "document list", "getDocList", params)
}

// DocumentDetail reads one document by document number
func (c *Client) DocumentDetail(ctx context.Context, custCode, docNo string) (*history.Result, error) {
	params := url.Values{"cust_code": {custCode}, "doc_no": {docNo}}
	return c.fetchHistory(ctx, "document detail", "getDocDetail", params)
}

func (c *Client) fetchHistory(ctx context.Context, op, endpoint string, params url.Values) (*history.Result, error) {
	var out history.Result
	if err := c.get(ctx, op, endpoint, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ack(ctx context.Context, op, method, endpoint string, params url.Values, body interface{}) (*cart.Ack, error) {
	var out cart.Ack
	if err := c.do(ctx, op, method, endpoint, params, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values, dest interface{}) error {
	return c.do(ctx, op, http.MethodGet, endpoint, params, nil, dest)
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, params url.Values, body interface{}, dest interface{}) error {
	u, err := url.Parse(c.baseURL + "/" + endpoint)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.logger.WithFields(logrus.Fields{"op": op, "method": method, "endpoint": endpoint})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Backend request failed")
		return &cart.TransportError{Op: op, Message: "backend is unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn("Backend rejected session token")
		return &cart.TransportError{Op: op, Message: "session expired, please sign in again", Err: ErrUnauthorized}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.WithField("status", resp.StatusCode).Warn("Backend returned an error status")
		return &cart.TransportError{
			Op:      op,
			Message: "backend request failed",
			Err:     fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		log.WithError(err).Warn("Backend response could not be decoded")
		return &cart.TransportError{Op: op, Message: "unexpected response from backend", Err: err}
	}

	log.Debug("Backend request completed")
	return nil
}
