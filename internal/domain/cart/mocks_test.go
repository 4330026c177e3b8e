package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeGateway keeps a server-side cart and records every call
type fakeGateway struct {
	mu sync.Mutex

	remote []RemoteLine

	fetchDelay   time.Duration
	fetchErr     error
	fetchResult  *FetchResult
	orderResult  *FetchResult
	addAck       *Ack
	addErr       error
	updateAck    *Ack
	updateErr    error
	deleteAck    *Ack
	deleteErr    error
	deleteAllAck *Ack
	deleteAllErr error
	sendAck      *Ack
	sendErr      error

	calls   map[string]int
	added   []RemoteLine
	updated []RemoteLine
	deleted []string
	sent    []*OrderRequest
}

func newFakeGateway(remote ...RemoteLine) *fakeGateway {
	return &fakeGateway{remote: remote, calls: map[string]int{}}
}

func (g *fakeGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeGateway) FetchItems(context.Context, string) (*FetchResult, error) {
	if g.fetchDelay > 0 {
		time.Sleep(g.fetchDelay)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["fetch"]++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	if g.fetchResult != nil {
		return g.fetchResult, nil
	}
	data := make([]RemoteLine, len(g.remote))
	copy(data, g.remote)
	return &FetchResult{Success: true, Data: data}, nil
}

func (g *fakeGateway) AddItems(_ context.Context, lines []RemoteLine) (*Ack, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["add"]++
	g.added = append(g.added, lines...)
	if g.addErr != nil {
		return nil, g.addErr
	}
	if g.addAck != nil {
		return g.addAck, nil
	}
	g.upsert(lines)
	return &Ack{Success: true}, nil
}

func (g *fakeGateway) UpdateItems(_ context.Context, lines []RemoteLine) (*Ack, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["update"]++
	g.updated = append(g.updated, lines...)
	if g.updateErr != nil {
		return nil, g.updateErr
	}
	if g.updateAck != nil {
		return g.updateAck, nil
	}
	g.upsert(lines)
	return &Ack{Success: true}, nil
}

func (g *fakeGateway) DeleteItem(_ context.Context, guid, _ string) (*Ack, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["delete"]++
	g.deleted = append(g.deleted, guid)
	if g.deleteErr != nil {
		return nil, g.deleteErr
	}
	if g.deleteAck != nil {
		return g.deleteAck, nil
	}
	for i, line := range g.remote {
		if line.GUIDCode == guid {
			g.remote = append(g.remote[:i], g.remote[i+1:]...)
			break
		}
	}
	return &Ack{Success: true}, nil
}

func (g *fakeGateway) DeleteAllItems(context.Context, string) (*Ack, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["delete_all"]++
	if g.deleteAllErr != nil {
		return nil, g.deleteAllErr
	}
	if g.deleteAllAck != nil {
		return g.deleteAllAck, nil
	}
	g.remote = nil
	return &Ack{Success: true}, nil
}

func (g *fakeGateway) FetchCartOrder(context.Context, string) (*FetchResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["fetch_order"]++
	if g.orderResult != nil {
		return g.orderResult, nil
	}
	return &FetchResult{Success: true, Data: append([]RemoteLine(nil), g.remote...)}, nil
}

func (g *fakeGateway) SendOrder(_ context.Context, order *OrderRequest) (*Ack, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["send"]++
	g.sent = append(g.sent, order)
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	if g.sendAck != nil {
		return g.sendAck, nil
	}
	return &Ack{Success: true}, nil
}

func (g *fakeGateway) CancelOrder(context.Context, *CancelRequest) (*Ack, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["cancel"]++
	return &Ack{Success: true}, nil
}

func (g *fakeGateway) upsert(lines []RemoteLine) {
	for _, line := range lines {
		replaced := false
		for i := range g.remote {
			if g.remote[i].GUIDCode == line.GUIDCode {
				g.remote[i] = line
				replaced = true
			}
		}
		if !replaced {
			g.remote = append(g.remote, line)
		}
	}
}

type failingSession struct{}

func (failingSession) Identity(context.Context) (Identity, error) {
	return Identity{}, errors.New("session store down")
}

type recordedSubmission struct {
	req *OrderRequest
	err error
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedSubmission
}

func (r *fakeRecorder) RecordSubmission(_ context.Context, req *OrderRequest, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedSubmission{req: req, err: err})
}

var fixedNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

func remoteLine(guid, itemCode, unitCode, qty, price string) RemoteLine {
	return RemoteLine{
		CustCode: "C001",
		GUIDCode: guid,
		ItemCode: itemCode,
		ItemName: "Item " + itemCode,
		UnitCode: unitCode,
		Qty:      Numeric(qty),
		Price:    Numeric(price),
		WhCode:   "MMA01",
	}
}

func newTestStore(g Gateway, opts ...Option) *Store {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	ids := 0
	base := []Option{
		WithLogger(log),
		WithClock(func() time.Time { return fixedNow }, time.UTC),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("local-%d", ids)
		}),
	}
	return NewStore(g, StaticSession{CustomerCode: "C001"}, append(base, opts...)...)
}
