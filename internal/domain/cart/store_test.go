package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NormalizesLines(t *testing.T) {
	g := newFakeGateway(
		remoteLine("g-1", "A1", "EA", "2.00", "10"),
		remoteLine("g-2", "B7", "BOX", "3", "12.50"),
	)
	store := newTestStore(g)

	snap := store.Load(context.Background())

	require.NoError(t, store.Err())
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, "g-1", snap.Lines[0].LocalID)
	assert.Equal(t, "g-1", snap.Lines[0].ServerGUID)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("12.5").Equal(snap.Lines[1].UnitPrice))
	assert.Equal(t, 5, store.TotalQuantity())
	assert.True(t, decimal.RequireFromString("57.5").Equal(store.TotalAmount()))
	assert.False(t, store.Loading())
	assert.Equal(t, "C001", store.CustomerCode())
}

func TestLoad_NoCustomer(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "1", "1"))
	store := NewStore(g, StaticSession{})

	snap := store.Load(context.Background())

	assert.Empty(t, snap.Lines)
	assert.ErrorIs(t, store.Err(), ErrUserDataMissing)
	assert.Zero(t, g.count("fetch"))
}

func TestLoad_SessionFailureCountsAsMissingUser(t *testing.T) {
	store := NewStore(newFakeGateway(), failingSession{})

	store.Load(context.Background())

	assert.ErrorIs(t, store.Err(), ErrUserDataMissing)
}

func TestLoad_TransportErrorClearsSnapshot(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "1", "1"))
	store := newTestStore(g)
	store.Load(context.Background())
	require.Len(t, store.Lines(), 1)

	cause := errors.New("connection refused")
	g.fetchErr = cause
	snap := store.Load(context.Background())

	assert.Empty(t, snap.Lines)
	var transport *TransportError
	require.ErrorAs(t, store.Err(), &transport)
	assert.ErrorIs(t, store.Err(), cause)
	assert.Equal(t, "unable to load cart", transport.Error())
}

func TestLoad_MalformedLineIsRecorded(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "two", "1"))
	store := newTestStore(g)

	snap := store.Load(context.Background())

	assert.Empty(t, snap.Lines)
	var transport *TransportError
	assert.ErrorAs(t, store.Err(), &transport)
}

func TestLoad_UnsuccessfulFetchIsAnEmptyCart(t *testing.T) {
	g := newFakeGateway()
	g.fetchResult = &FetchResult{Success: false, Message: "no data"}
	store := newTestStore(g)

	snap := store.Load(context.Background())

	assert.Empty(t, snap.Lines)
	assert.NoError(t, store.Err())
}

func TestAddOrUpdate_ReplacesQuantityOfExistingLine(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "2", "10"))
	store := newTestStore(g)
	store.Load(context.Background())

	err := store.AddOrUpdate(context.Background(), Product{ItemCode: "A1", UnitCode: "EA"}, 5)

	require.NoError(t, err)
	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 1, g.count("update"))
	assert.Zero(t, g.count("add"))
	require.Len(t, g.updated, 1)
	assert.Equal(t, Numeric("5"), g.updated[0].Qty)
	assert.Equal(t, "g-1", g.updated[0].GUIDCode)
}

func TestAddOrUpdate_NewLineTakesEchoedGUID(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)
	store.Load(context.Background())

	err := store.AddOrUpdate(context.Background(), Product{
		ItemCode: "A1",
		ItemName: "Rice 5kg",
		Price:    decimal.NewFromInt(180),
	}, 2)

	require.NoError(t, err)
	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "local-1", lines[0].LocalID)
	assert.Equal(t, "local-1", lines[0].ServerGUID)
	assert.Equal(t, "ชิ้น", lines[0].UnitCode)

	require.Len(t, g.added, 1)
	sent := g.added[0]
	assert.Equal(t, "C001", sent.CustCode)
	assert.Equal(t, "C001", sent.CreatorCode)
	assert.Equal(t, "local-1", sent.GUIDCode)
	assert.Equal(t, Numeric("2"), sent.Qty)
	assert.Equal(t, Numeric("180"), sent.Price)
	assert.Equal(t, "MMA01", sent.WhCode)
	assert.Equal(t, "SH101", sent.ShelfCode)
	assert.Equal(t, Numeric("1"), sent.Ratio)
	assert.Equal(t, "2024-03-05 14:30:00.000", sent.CreateDatetime)
}

func TestAddOrUpdate_ProductIDBecomesLocalID(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)

	require.NoError(t, store.AddOrUpdate(context.Background(), Product{ID: "p-9", ItemCode: "A1"}, 1))

	assert.Equal(t, "p-9", store.Lines()[0].LocalID)
	assert.Equal(t, "p-9", g.added[0].GUIDCode)
}

func TestAddOrUpdate_MergeNotDuplicate(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)
	ctx := context.Background()

	for _, qty := range []int{1, 4, 3, 9} {
		require.NoError(t, store.AddOrUpdate(ctx, Product{ItemCode: "A1", UnitCode: "EA"}, qty))
	}
	require.NoError(t, store.AddOrUpdate(ctx, Product{ItemCode: "A1", UnitCode: "BOX"}, 2))

	lines := store.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 9, lines[0].Quantity)
	assert.Equal(t, "BOX", lines[1].UnitCode)
	assert.Equal(t, 2, g.count("add"))
	assert.Equal(t, 3, g.count("update"))
}

func TestAddOrUpdate_ZeroQuantityIsKept(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "2", "10"))
	store := newTestStore(g)
	store.Load(context.Background())

	require.NoError(t, store.AddOrUpdate(context.Background(), Product{ItemCode: "A1", UnitCode: "EA"}, 0))

	require.Len(t, store.Lines(), 1)
	assert.Equal(t, 0, store.Lines()[0].Quantity)
}

func TestAddOrUpdate_RejectedLeavesSnapshot(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "2", "10"))
	store := newTestStore(g)
	store.Load(context.Background())
	before := store.Snapshot()

	g.updateAck = &Ack{Success: false, Message: "out of stock"}
	err := store.AddOrUpdate(context.Background(), Product{ItemCode: "A1", UnitCode: "EA"}, 50)

	var rejected *GatewayError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "out of stock", err.Error())
	assert.Equal(t, err, store.Err())
	assert.Equal(t, before, store.Snapshot())

	g.addAck = &Ack{Success: false}
	err = store.AddOrUpdate(context.Background(), Product{ItemCode: "Z9"}, 1)
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "unable to add item to cart", err.Error())
	assert.Equal(t, before, store.Snapshot())
}

func TestAddOrUpdate_TransportErrorLeavesSnapshot(t *testing.T) {
	g := newFakeGateway()
	g.addErr = errors.New("timeout")
	store := newTestStore(g)

	err := store.AddOrUpdate(context.Background(), Product{ItemCode: "A1"}, 1)

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, "add items", transport.Op)
	assert.Empty(t, store.Lines())
	assert.False(t, store.Loading())
}

func TestAddOrUpdate_RequiresItemCode(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)

	err := store.AddOrUpdate(context.Background(), Product{ItemName: "nameless"}, 1)

	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "item_code", invalid.Field)
	assert.Zero(t, g.count("add"))
}

func TestAddOrUpdate_RequiresCustomer(t *testing.T) {
	g := newFakeGateway()
	store := NewStore(g, StaticSession{})

	err := store.AddOrUpdate(context.Background(), Product{ItemCode: "A1"}, 1)

	assert.ErrorIs(t, err, ErrUserDataMissing)
	assert.ErrorIs(t, store.Err(), ErrUserDataMissing)
	assert.Zero(t, g.count("add"))
}

func TestAddOrUpdate_ConcurrentCallsDoNotDuplicate(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_ = store.AddOrUpdate(context.Background(), Product{ItemCode: "A1", UnitCode: "EA"}, qty)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Lines(), 1)
	assert.Equal(t, 1, g.count("add"))
	assert.Equal(t, 7, g.count("update"))
}

func TestUpdateQuantity_ResolutionPrecedence(t *testing.T) {
	g := newFakeGateway(
		remoteLine("g-1", "A1", "EA", "1", "10"),
		remoteLine("g-2", "B2", "EA", "1", "10"),
	)
	store := newTestStore(g)
	store.Load(context.Background())
	ctx := context.Background()

	// server guid wins over a conflicting item code
	require.NoError(t, store.UpdateQuantity(ctx, LineRef{ID: "g-2", ItemCode: "A1"}, 4, nil))
	assert.Equal(t, 1, store.Lines()[0].Quantity)
	assert.Equal(t, 4, store.Lines()[1].Quantity)

	// item code is the last resort
	require.NoError(t, store.UpdateQuantity(ctx, LineRef{ID: "unknown", ItemCode: "A1"}, 6, nil))
	assert.Equal(t, 6, store.Lines()[0].Quantity)
	assert.Equal(t, 2, g.count("update"))
}

func TestUpdateQuantity_MatchesLocalID(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)
	ctx := context.Background()
	require.NoError(t, store.AddOrUpdate(ctx, Product{ID: "p-1", GUID: "srv-1", ItemCode: "A1"}, 1))

	require.NoError(t, store.UpdateQuantity(ctx, RefByID("p-1"), 3, nil))

	assert.Equal(t, 3, store.Lines()[0].Quantity)
	assert.Equal(t, "srv-1", g.updated[0].GUIDCode)
}

func TestUpdateQuantity_FallbackAppendsLine(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)

	err := store.UpdateQuantity(context.Background(), RefByID("missing"), 2, &Product{ItemCode: "N1", UnitCode: "EA", Price: decimal.NewFromInt(3)})

	require.NoError(t, err)
	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "local-1", lines[0].ServerGUID)
	assert.Equal(t, lines[0].ServerGUID, lines[0].LocalID)
	assert.Equal(t, 1, g.count("update"))
	assert.Zero(t, g.count("add"))
}

func TestUpdateQuantity_FallbackForPresentProductMerges(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "1", "10"))
	store := newTestStore(g)
	store.Load(context.Background())

	require.NoError(t, store.UpdateQuantity(context.Background(), RefByID("stale"), 7, &Product{ItemCode: "A1", UnitCode: "EA"}))

	require.Len(t, store.Lines(), 1)
	assert.Equal(t, 7, store.Lines()[0].Quantity)
}

func TestUpdateQuantity_NotFound(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)

	err := store.UpdateQuantity(context.Background(), RefByID("missing"), 2, nil)

	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.ErrorIs(t, store.Err(), ErrLineNotFound)
	assert.Zero(t, g.count("update"))
}

func TestRemove_ReloadsFromBackend(t *testing.T) {
	g := newFakeGateway(
		remoteLine("g-1", "A1", "EA", "1", "10"),
		remoteLine("g-2", "B2", "EA", "1", "10"),
	)
	store := newTestStore(g)
	store.Load(context.Background())
	fetches := g.count("fetch")

	require.NoError(t, store.Remove(context.Background(), RefByID("g-1")))

	assert.Equal(t, []string{"g-1"}, g.deleted)
	assert.Equal(t, fetches+1, g.count("fetch"))
	require.Len(t, store.Lines(), 1)
	assert.Equal(t, "g-2", store.Lines()[0].ServerGUID)
}

func TestRemove_RepairsOnFailure(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "1", "10"))
	store := newTestStore(g)
	store.Load(context.Background())

	// the backend moved on without us
	g.remote = []RemoteLine{remoteLine("g-1", "A1", "EA", "4", "10"), remoteLine("g-3", "C3", "EA", "1", "2")}
	g.deleteAck = &Ack{Success: false, Message: "locked"}

	err := store.Remove(context.Background(), RefByID("g-1"))

	var rejected *GatewayError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, err, store.Err())

	fresh := newTestStore(g).Load(context.Background())
	assert.Equal(t, fresh, store.Snapshot())
}

func TestRemove_DoesNotMatchByItemCode(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "1", "10"))
	store := newTestStore(g)
	store.Load(context.Background())
	fetches := g.count("fetch")

	err := store.Remove(context.Background(), LineRef{ItemCode: "A1"})

	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.Zero(t, g.count("delete"))
	assert.Equal(t, fetches+1, g.count("fetch"))
	assert.Len(t, store.Lines(), 1)
}

func TestClear_EmptyCartIsNoop(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)
	store.Load(context.Background())

	require.NoError(t, store.Clear(context.Background()))

	assert.Zero(t, g.count("delete_all"))
}

func TestClear_DeletesAndReloads(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "1", "10"))
	store := newTestStore(g)
	store.Load(context.Background())

	require.NoError(t, store.Clear(context.Background()))

	assert.Equal(t, 1, g.count("delete_all"))
	assert.Empty(t, store.Lines())
	assert.Equal(t, 2, g.count("fetch"))
}

func TestClear_RepairsOnFailure(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "1", "10"))
	store := newTestStore(g)
	store.Load(context.Background())

	g.remote = append(g.remote, remoteLine("g-2", "B2", "EA", "2", "5"))
	g.deleteAllErr = errors.New("503")

	err := store.Clear(context.Background())

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, err, store.Err())
	fresh := newTestStore(g).Load(context.Background())
	assert.Equal(t, fresh, store.Snapshot())
}

func TestTotalsAreRecomputed(t *testing.T) {
	g := newFakeGateway()
	store := newTestStore(g)
	ctx := context.Background()

	wantQty := 0
	wantAmount := decimal.Zero
	for i := 1; i <= 6; i++ {
		price := decimal.NewFromFloat(float64(i) * 1.25)
		require.NoError(t, store.AddOrUpdate(ctx, Product{ItemCode: fmt.Sprintf("I%d", i), Price: price}, i))
		wantQty += i
		wantAmount = wantAmount.Add(price.Mul(decimal.NewFromInt(int64(i))))

		assert.Equal(t, wantQty, store.TotalQuantity())
		assert.True(t, wantAmount.Equal(store.TotalAmount()), "got %s want %s", store.TotalAmount(), wantAmount)
	}

	require.NoError(t, store.UpdateQuantity(ctx, LineRef{ItemCode: "I6"}, 1, nil))
	assert.Equal(t, wantQty-5, store.TotalQuantity())
}

func TestIsInCart(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "1", "10"))
	store := newTestStore(g)
	store.Load(context.Background())

	assert.True(t, store.IsInCart("A1"))
	assert.False(t, store.IsInCart("B2"))
}

func TestPricedLines_DoesNotTouchSnapshot(t *testing.T) {
	g := newFakeGateway(remoteLine("g-1", "A1", "EA", "1", "10"))
	store := newTestStore(g)
	store.Load(context.Background())
	g.orderResult = &FetchResult{Success: true, Data: []RemoteLine{remoteLine("g-1", "A1", "EA", "1", "9.50")}}

	priced, err := store.PricedLines(context.Background())

	require.NoError(t, err)
	require.Len(t, priced, 1)
	assert.True(t, decimal.RequireFromString("9.5").Equal(priced[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(10).Equal(store.Lines()[0].UnitPrice))
}
