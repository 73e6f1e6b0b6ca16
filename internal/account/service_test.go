package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/meowstock/paper-trading/internal/ledger"
	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/meowstock/paper-trading/internal/model"
	"github.com/meowstock/paper-trading/internal/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotter struct {
	mu       sync.Mutex
	saved    []model.Snapshot
	snapshot model.Snapshot
	found    bool
}

func (f *fakeSnapshotter) Save(ctx context.Context, name string, snapshot model.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, snapshot)
	return nil
}

func (f *fakeSnapshotter) Load(ctx context.Context, name string) (model.Snapshot, bool, error) {
	return f.snapshot, f.found, nil
}

func (f *fakeSnapshotter) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func newTestService(t *testing.T, snap *fakeSnapshotter) *Service {
	t.Helper()

	l := ledger.New(1_000_000, logger.NewNop())
	book := orderbook.New(l, logger.NewNop())
	return NewService(l, book, snap, "test", 10*time.Millisecond, logger.NewNop())
}

func TestSnapshotReflectsState(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeSnapshotter{})

	require.NoError(t, svc.Buy("sz000001", "Ping An Bank", 10.00, 100))
	_, err := svc.CreateLimitOrder("sh600519", "Moutai", model.Buy, 1500.00, 100)
	require.NoError(t, err)
	svc.AddFavorite("sz000001")

	snapshot := svc.Snapshot()
	assert.Equal(t, 999_000.0, snapshot.Balance)
	assert.Len(t, snapshot.Holdings, 1)
	assert.Len(t, snapshot.Transactions, 1)
	assert.Len(t, snapshot.PendingOrders, 1)
	assert.Equal(t, []string{"sz000001"}, snapshot.Favorites)
}

func TestRestoreLoadsSnapshot(t *testing.T) {
	t.Parallel()

	snap := &fakeSnapshotter{
		found: true,
		snapshot: model.Snapshot{
			Balance: 500_000,
			Holdings: []model.Holding{
				{Symbol: "sz000001", Name: "Ping An Bank", Quantity: 200, AveragePrice: 15},
			},
			PendingOrders: []model.LimitOrder{
				{ID: "o1", Symbol: "sz000001", Side: model.Sell, TargetPrice: 20, Quantity: 100, Status: model.OrderPending},
			},
			Favorites: []string{"sz000001"},
		},
	}
	svc := newTestService(t, snap)

	require.NoError(t, svc.Restore(context.Background()))

	assert.Equal(t, 500_000.0, svc.Balance())
	assert.Len(t, svc.Holdings(), 1)
	assert.Len(t, svc.PendingOrders(), 1)
	assert.True(t, svc.IsFavorite("sz000001"))
}

func TestRestoreWithoutSnapshotStartsFresh(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeSnapshotter{found: false})

	require.NoError(t, svc.Restore(context.Background()))
	assert.Equal(t, 1_000_000.0, svc.Balance())
	assert.Empty(t, svc.Holdings())
}

func TestFlushClearsDirtyFlag(t *testing.T) {
	t.Parallel()

	snap := &fakeSnapshotter{}
	svc := newTestService(t, snap)

	require.NoError(t, svc.Buy("sz000001", "Ping An Bank", 10.00, 100))
	require.NoError(t, svc.Flush(context.Background()))

	assert.Equal(t, 1, snap.saveCount())

	svc.mu.Lock()
	dirty := svc.dirty
	svc.mu.Unlock()
	assert.False(t, dirty)
}

func TestRunFlushesDirtyStateAndOnceOnShutdown(t *testing.T) {
	t.Parallel()

	snap := &fakeSnapshotter{}
	svc := newTestService(t, snap)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	require.NoError(t, svc.Buy("sz000001", "Ping An Bank", 10.00, 100))

	assert.Eventually(t, func() bool {
		return snap.saveCount() >= 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("service did not stop after cancel")
	}

	// Final flush on shutdown.
	assert.GreaterOrEqual(t, snap.saveCount(), 2)
}

func TestResetAccountClearsTradingState(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeSnapshotter{})

	require.NoError(t, svc.Buy("sz000001", "Ping An Bank", 10.00, 100))
	_, err := svc.CreateLimitOrder("sh600519", "Moutai", model.Buy, 1500.00, 100)
	require.NoError(t, err)
	svc.AddFavorite("sz000001")

	svc.ResetAccount()

	assert.Equal(t, 1_000_000.0, svc.Balance())
	assert.Empty(t, svc.Holdings())
	assert.Empty(t, svc.Transactions())
	assert.Empty(t, svc.PendingOrders())
	// The watchlist is not trading state and survives a reset.
	assert.Equal(t, []string{"sz000001"}, svc.Favorites())
}

func TestFavorites(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeSnapshotter{})

	svc.AddFavorite("sz000001")
	svc.AddFavorite("sh600519")
	svc.AddFavorite("sz000001") // duplicate, ignored

	assert.Equal(t, []string{"sz000001", "sh600519"}, svc.Favorites())
	assert.True(t, svc.IsFavorite("sh600519"))

	svc.RemoveFavorite("sz000001")
	assert.Equal(t, []string{"sh600519"}, svc.Favorites())
	assert.False(t, svc.IsFavorite("sz000001"))

	svc.RemoveFavorite("not-there")
	assert.Equal(t, []string{"sh600519"}, svc.Favorites())
}

func TestCancelOrderIsIdempotentThroughService(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeSnapshotter{})

	order, err := svc.CreateLimitOrder("sz000001", "Ping An Bank", model.Buy, 50.00, 100)
	require.NoError(t, err)

	svc.CancelOrder(order.ID)
	svc.CancelOrder(order.ID)
	assert.Empty(t, svc.PendingOrders())
}
