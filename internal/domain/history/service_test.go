package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wawashop/storefront/internal/domain/cart"
)

type call struct {
	op, custCode, arg string
}

type fakeGateway struct {
	result *Result
	err    error
	calls  []call
}

func (f *fakeGateway) answer(op, custCode, arg string) (*Result, error) {
	f.calls = append(f.calls, call{op: op, custCode: custCode, arg: arg})
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGateway) OrderHistory(_ context.Context, custCode, status string) (*Result, error) {
	return f.answer("orders", custCode, status)
}

func (f *fakeGateway) OrderDetail(_ context.Context, custCode, docNo string) (*Result, error) {
	return f.answer("order", custCode, docNo)
}

func (f *fakeGateway) DocumentList(_ context.Context, custCode, transFlag string) (*Result, error) {
	return f.answer("documents", custCode, transFlag)
}

func (f *fakeGateway) DocumentDetail(_ context.Context, custCode, docNo string) (*Result, error) {
	return f.answer("document", custCode, docNo)
}

func newTestService(g Gateway) *Service {
	log, _ := test.NewNullLogger()
	return NewService(g, log)
}

func TestList(t *testing.T) {
	g := &fakeGateway{result: &Result{Success: true, Data: json.RawMessage(`[{"doc_no":"SO1"}]`)}}
	svc := newTestService(g)

	orders, err := svc.List(context.Background(), KindOrder, Query{CustomerCode: "C001", Filter: "pending"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"doc_no":"SO1"}]`, string(orders))

	_, err = svc.List(context.Background(), KindDocument, Query{CustomerCode: "C001", Filter: "44"})
	require.NoError(t, err)

	assert.Equal(t, []call{
		{op: "orders", custCode: "C001", arg: "pending"},
		{op: "documents", custCode: "C001", arg: "44"},
	}, g.calls)
}

func TestList_EmptyHistory(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
	}{
		{"unsuccessful", &Result{Success: false, Message: "no data"}},
		{"null data", &Result{Success: true, Data: json.RawMessage(`null`)}},
		{"missing data", &Result{Success: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeGateway{result: tt.result})
			data, err := svc.List(context.Background(), KindOrder, Query{CustomerCode: "C001"})
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(data))
		})
	}
}

func TestList_Errors(t *testing.T) {
	g := &fakeGateway{err: &cart.TransportError{Op: "order history", Message: "backend is unreachable"}}
	svc := newTestService(g)

	_, err := svc.List(context.Background(), KindOrder, Query{})
	assert.ErrorIs(t, err, cart.ErrUserDataMissing)
	assert.Empty(t, g.calls)

	_, err = svc.List(context.Background(), Kind("invoice"), Query{CustomerCode: "C001"})
	var invalid *cart.ValidationError
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.List(context.Background(), KindDocument, Query{CustomerCode: "C001"})
	var transport *cart.TransportError
	assert.ErrorAs(t, err, &transport)
}

func TestGet(t *testing.T) {
	g := &fakeGateway{result: &Result{Success: true, Data: json.RawMessage(`{"doc_no":"IV7","items":[]}`)}}
	svc := newTestService(g)

	doc, err := svc.Get(context.Background(), KindDocument, "C001", " IV7 ")

	require.NoError(t, err)
	assert.JSONEq(t, `{"doc_no":"IV7","items":[]}`, string(doc))
	assert.Equal(t, []call{{op: "document", custCode: "C001", arg: "IV7"}}, g.calls)
}

func TestGet_NotFound(t *testing.T) {
	for _, result := range []*Result{
		{Success: false, Message: "not found"},
		{Success: true, Data: json.RawMessage(`[]`)},
		{Success: true, Data: json.RawMessage(` {} `)},
	} {
		svc := newTestService(&fakeGateway{result: result})
		_, err := svc.Get(context.Background(), KindOrder, "C001", "SO9")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	}
}

func TestGet_Validation(t *testing.T) {
	g := &fakeGateway{err: errors.New("unused")}
	svc := newTestService(g)

	_, err := svc.Get(context.Background(), KindOrder, "", "SO1")
	assert.ErrorIs(t, err, cart.ErrUserDataMissing)

	_, err = svc.Get(context.Background(), KindOrder, "C001", "  ")
	var invalid *cart.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "doc_no", invalid.Field)
	assert.Empty(t, g.calls)
}
