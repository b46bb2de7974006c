package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type BackendMock struct {
	mu       sync.Mutex
	resp     *domain.CartResponse
	getErr   error
	setErr   error
	gets     atomic.Int32
	pushed   [][]domain.CartLine
	getDelay time.Duration

	// firstSetDelay slows down only the first Set call.
	firstSetDelay time.Duration
	sets          atomic.Int32
}

func (b *BackendMock) Get(ctx context.Context) (*domain.CartResponse, error) {
	b.gets.Add(1)
	if b.getDelay > 0 {
		time.Sleep(b.getDelay)
	}
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.resp, nil
}

func (b *BackendMock) Set(ctx context.Context, lines []domain.CartLine) (*domain.CartResponse, error) {
	if b.sets.Add(1) == 1 && b.firstSetDelay > 0 {
		time.Sleep(b.firstSetDelay)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushed = append(b.pushed, lines)
	if b.setErr != nil {
		return nil, b.setErr
	}
	return &domain.CartResponse{}, nil
}

func (b *BackendMock) pushCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pushed)
}

func (b *BackendMock) lastPush() []domain.CartLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pushed) == 0 {
		return nil
	}
	return b.pushed[len(b.pushed)-1]
}

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingStore) Set(context.Context, string, []byte) error   { return errors.New("disk gone") }
func (failingStore) Delete(context.Context, string) error        { return errors.New("disk gone") }
func (failingStore) Close() error                                { return nil }

func setupCart(t *testing.T) (*Manager, *store.MemoryStore, *BackendMock) {
	st := store.NewMemoryStore()
	backend := &BackendMock{}
	m := NewManager(st, backend, logger.Discard())
	m.Load(context.Background())
	t.Cleanup(func() { m.Close() })
	return m, st, backend
}

func line(id, price string, qty int) domain.CartLine {
	return domain.CartLine{
		ProductID:   id,
		ProductName: "Product " + id,
		Price:       decimal.RequireFromString(price),
		Quantity:    qty,
	}
}

func TestAddItem_SameProductSumsQuantity(t *testing.T) {
	m, _, _ := setupCart(t)
	ctx := context.Background()

	require.NoError(t, m.AddItem(ctx, line("P1", "10.00", 2)))
	require.NoError(t, m.AddItem(ctx, line("P1", "10.00", 1)))

	items := m.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 3, m.ItemCount())
	assert.True(t, m.Subtotal().Equal(decimal.RequireFromString("30.00")))
}

func TestAddItem_PreservesOrder(t *testing.T) {
	m, _, _ := setupCart(t)
	ctx := context.Background()

	require.NoError(t, m.AddItem(ctx, line("B", "1", 1)))
	require.NoError(t, m.AddItem(ctx, line("A", "1", 1)))
	require.NoError(t, m.AddItem(ctx, line("B", "1", 1)))

	items := m.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].ProductID)
	assert.Equal(t, "A", items[1].ProductID)
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	m, _, _ := setupCart(t)

	err := m.AddItem(context.Background(), line("P1", "1", 0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, m.Items())
}

func TestUpdateQuantity(t *testing.T) {
	m, _, _ := setupCart(t)
	ctx := context.Background()
	require.NoError(t, m.AddItem(ctx, line("P1", "2.50", 1)))

	m.UpdateQuantity(ctx, "P1", 4)
	assert.Equal(t, 4, m.ItemCount())
	assert.True(t, m.Subtotal().Equal(decimal.RequireFromString("10")))

	m.UpdateQuantity(ctx, "missing", 3)
	assert.Len(t, m.Items(), 1)

	m.UpdateQuantity(ctx, "P1", 0)
	assert.False(t, m.Contains("P1"))
	assert.Empty(t, m.Items())
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	m, _, _ := setupCart(t)
	ctx := context.Background()
	require.NoError(t, m.AddItem(ctx, line("P1", "1", 1)))

	m.RemoveItem(ctx, "P2")
	assert.Len(t, m.Items(), 1)

	m.RemoveItem(ctx, "P1")
	assert.Empty(t, m.Items())
}

func TestSubtotal_RecomputedAfterEveryMutation(t *testing.T) {
	m, _, _ := setupCart(t)
	ctx := context.Background()

	var subtotals []string
	m.Subscribe(func(s Snapshot) {
		assert.True(t, s.Subtotal.Equal(domain.Subtotal(s.Lines)))
		subtotals = append(subtotals, s.Subtotal.StringFixed(2))
	})

	require.NoError(t, m.AddItem(ctx, line("P1", "19.99", 2)))
	require.NoError(t, m.AddItem(ctx, line("P2", "0.01", 1)))
	m.UpdateQuantity(ctx, "P1", 1)
	m.RemoveItem(ctx, "P2")
	m.Clear(ctx)

	assert.Equal(t, []string{"39.98", "39.99", "20.00", "19.99", "0.00"}, subtotals)
}

func TestClear_PersistsAcrossReload(t *testing.T) {
	m, st, backend := setupCart(t)
	ctx := context.Background()
	require.NoError(t, m.AddItem(ctx, line("P1", "5", 2)))

	m.Clear(ctx)
	assert.Empty(t, m.Items())

	reloaded := NewManager(st, backend, logger.Discard())
	reloaded.Load(ctx)
	assert.Empty(t, reloaded.Items())

	raw, err := st.Get(ctx, store.KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestMutations_PersistBeforeReturning(t *testing.T) {
	m, st, backend := setupCart(t)
	ctx := context.Background()
	require.NoError(t, m.AddItem(ctx, line("P1", "10.00", 2)))

	reloaded := NewManager(st, backend, logger.Discard())
	reloaded.Load(ctx)
	require.Len(t, reloaded.Items(), 1)
	assert.Equal(t, 2, reloaded.Items()[0].Quantity)
}

func TestLoad_CorruptStorageStartsEmpty(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, store.KeyCart, []byte("not json")))

	m := NewManager(st, &BackendMock{}, logger.Discard())
	m.Load(ctx)
	assert.Empty(t, m.Items())
}

func TestStorageFailure_KeepsInMemoryState(t *testing.T) {
	m := NewManager(failingStore{}, &BackendMock{}, logger.Discard())
	ctx := context.Background()
	m.Load(ctx)

	require.NoError(t, m.AddItem(ctx, line("P1", "3", 1)))
	assert.Equal(t, 1, m.ItemCount())
}

func TestFetchFromBackend_ReplacesLocalState(t *testing.T) {
	m, st, backend := setupCart(t)
	ctx := context.Background()
	require.NoError(t, m.AddItem(ctx, line("LOCAL", "1", 5)))

	backend.resp = &domain.CartResponse{
		ID: "c1",
		CartItems: []domain.CartItemResponse{
			{ID: "i1", ProductID: "S1", ProductName: "Server", Price: decimal.RequireFromString("7.5"), Quantity: 2},
		},
	}

	require.NoError(t, m.FetchFromBackend(ctx))

	items := m.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "S1", items[0].ProductID)
	assert.True(t, m.Subtotal().Equal(decimal.RequireFromString("15")))

	var persisted []domain.CartLine
	require.NoError(t, store.GetJSON(ctx, st, store.KeyCart, &persisted))
	assert.Equal(t, "S1", persisted[0].ProductID)
}

func TestFetchFromBackend_FailureKeepsLocalState(t *testing.T) {
	m, _, backend := setupCart(t)
	ctx := context.Background()
	require.NoError(t, m.AddItem(ctx, line("P1", "1", 1)))
	backend.getErr = errors.New("boom")

	err := m.FetchFromBackend(ctx)
	assert.Error(t, err)
	assert.Len(t, m.Items(), 1)
}

func TestFetchFromBackend_ConcurrentCallsShareRequest(t *testing.T) {
	m, _, backend := setupCart(t)
	backend.resp = &domain.CartResponse{}
	backend.getDelay = 50 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.FetchFromBackend(context.Background()))
		}()
	}
	wg.Wait()

	assert.Less(t, backend.gets.Load(), int32(10))
}

func TestPushToBackend_FailureDoesNotRollBack(t *testing.T) {
	m, _, backend := setupCart(t)
	ctx := context.Background()
	backend.setErr = errors.New("401")
	require.NoError(t, m.AddItem(ctx, line("P1", "1", 2)))

	m.PushToBackend(ctx)
	require.NoError(t, m.Close())

	assert.Equal(t, 1, backend.pushCount())
	assert.Equal(t, 2, m.ItemCount())
}

func TestPushToBackend_SurvivesCallerCancel(t *testing.T) {
	m, _, backend := setupCart(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.AddItem(ctx, line("P1", "1", 1)))

	m.PushToBackend(ctx)
	cancel()
	require.NoError(t, m.Close())

	require.Equal(t, 1, backend.pushCount())
	assert.Equal(t, "P1", backend.pushed[0][0].ProductID)
}

func TestReconcile(t *testing.T) {
	t.Run("non-empty local cart is pushed", func(t *testing.T) {
		m, _, backend := setupCart(t)
		ctx := context.Background()
		require.NoError(t, m.AddItem(ctx, line("GUEST", "1", 1)))

		m.Reconcile(ctx)
		require.NoError(t, m.Close())

		assert.Equal(t, 1, backend.pushCount())
		assert.Equal(t, int32(0), backend.gets.Load())
		assert.Equal(t, "GUEST", m.Items()[0].ProductID)
	})

	t.Run("empty local cart takes server copy", func(t *testing.T) {
		m, _, backend := setupCart(t)
		backend.resp = &domain.CartResponse{CartItems: []domain.CartItemResponse{
			{ProductID: "S1", Price: decimal.NewFromInt(1), Quantity: 1},
		}}

		m.Reconcile(context.Background())

		assert.Equal(t, 0, backend.pushCount())
		assert.True(t, m.Contains("S1"))
	})
}

func TestMirrorWhen(t *testing.T) {
	m, _, backend := setupCart(t)
	ctx := context.Background()
	var signedIn atomic.Bool
	m.MirrorWhen(signedIn.Load)

	require.NoError(t, m.AddItem(ctx, line("P1", "1", 1)))
	require.NoError(t, m.Close())
	assert.Equal(t, 0, backend.pushCount(), "guest mutations stay local")

	signedIn.Store(true)
	require.NoError(t, m.AddItem(ctx, line("P2", "1", 1)))
	m.RemoveItem(ctx, "P1")
	require.NoError(t, m.Close())
	require.Equal(t, 2, backend.pushCount())
	last := backend.lastPush()
	require.Len(t, last, 1)
	assert.Equal(t, "P2", last[0].ProductID)

	backend.resp = &domain.CartResponse{CartItems: []domain.CartItemResponse{
		{ProductID: "S1", Price: decimal.NewFromInt(1), Quantity: 1},
	}}
	require.NoError(t, m.FetchFromBackend(ctx))
	require.NoError(t, m.Close())
	assert.Equal(t, 2, backend.pushCount(), "fetched state is not echoed back")
}

func TestPushToBackend_SlowPushDoesNotOverwriteNewerState(t *testing.T) {
	m, _, backend := setupCart(t)
	ctx := context.Background()
	backend.firstSetDelay = 100 * time.Millisecond
	m.MirrorWhen(func() bool { return true })

	require.NoError(t, m.AddItem(ctx, line("P1", "1", 1)))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.AddItem(ctx, line("P2", "1", 1)))
	require.NoError(t, m.Close())

	assert.Len(t, m.Items(), 2)
	assert.Len(t, backend.lastPush(), 2, "server ends with the newest cart")
}

func TestSubscribe_DeliversInMutationOrder(t *testing.T) {
	m, _, _ := setupCart(t)
	ctx := context.Background()

	var mu sync.Mutex
	var counts []int
	m.Subscribe(func(s Snapshot) {
		mu.Lock()
		counts = append(counts, s.ItemCount)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.AddItem(ctx, line("P1", "1", 1)))
		}()
	}
	wg.Wait()

	require.Len(t, counts, 50)
	for i, c := range counts {
		assert.Equal(t, i+1, c)
	}
}

func TestConcurrentMutations_Consistent(t *testing.T) {
	m, _, _ := setupCart(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.AddItem(ctx, line("P1", "1.10", 1)))
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 100, snap.ItemCount)
	assert.True(t, snap.Subtotal.Equal(decimal.RequireFromString("110")))
}
