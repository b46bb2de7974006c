package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/fjod/go_cart/storefront/internal/toast"
)

// fakeBackend plays the auth, cart and order services.
type fakeBackend struct {
	mu         sync.Mutex
	pushed     []domain.SetCartRequest
	authHeader []string
	status     map[string]int
	cart       string // GET /cart body, empty cart when unset
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.authHeader = append(b.authHeader, r.Header.Get("Authorization"))
	status := b.status[r.URL.Path]
	b.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/login":
		json.NewEncoder(w).Encode(domain.AuthResponse{
			UserID: "u1", Username: "alice", Token: "tok", Roles: []string{domain.RoleCustomer},
		})
	case r.URL.Path == "/cart" && r.Method == http.MethodPost:
		var req domain.SetCartRequest
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.pushed = append(b.pushed, req)
		b.mu.Unlock()
		w.Write([]byte(`{}`))
	case r.URL.Path == "/cart":
		if b.cart == "" {
			w.Write([]byte(`{"cartItems":[]}`))
			return
		}
		w.Write([]byte(b.cart))
	case r.URL.Path == "/orders/my-orders":
		w.Write([]byte(`[]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setupApp(t *testing.T, backend *fakeBackend) *App {
	return setupAppWithStore(t, backend, store.NewMemoryStore())
}

func setupAppWithStore(t *testing.T, backend *fakeBackend, st store.Store) *App {
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.API.AuthURL = srv.URL
	cfg.API.ProductURL = srv.URL
	cfg.API.OrderURL = srv.URL
	cfg.Store.Backend = "memory"
	cfg.Notify.Transport = "none"

	a, err := NewWithStore(context.Background(), cfg, st, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func login(t *testing.T, a *App) {
	_, err := a.Session.Login(context.Background(), a.API.Auth, domain.LoginRequest{UsernameOrEmail: "alice", Password: "pw"})
	require.NoError(t, err)
}

func TestLogin_GuestCartIsPushed(t *testing.T) {
	backend := &fakeBackend{}
	a := setupApp(t, backend)
	ctx := context.Background()

	require.NoError(t, a.Cart.AddItem(ctx, domain.CartLine{ProductID: "P1", ProductName: "Mug", Price: decimal.NewFromInt(10), Quantity: 2}))
	login(t, a)
	require.NoError(t, a.Cart.Close())

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.pushed, 1)
	assert.Equal(t, "P1", backend.pushed[0].Items[0].ProductID)
	assert.Empty(t, backend.authHeader[0], "login goes out without a token")
	assert.Equal(t, "Bearer tok", backend.authHeader[len(backend.authHeader)-1])
	assert.Nil(t, a.Notify)
}

// signedInStore holds a session and cart left behind by an earlier run.
func signedInStore(t *testing.T, lines ...domain.CartLine) *store.MemoryStore {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(ctx, store.KeyAuthToken, []byte("tok")))
	require.NoError(t, store.SetJSON(ctx, st, store.KeyAuthUser, domain.User{UserID: "u1", Username: "alice"}))
	require.NoError(t, store.SetJSON(ctx, st, store.KeyCart, lines))
	return st
}

func TestStart_ExistingSessionAdoptsServerCart(t *testing.T) {
	backend := &fakeBackend{
		cart: `{"cartItems":[{"productId":"SERVER","productName":"Lamp","price":60,"quantity":1}]}`,
	}
	st := signedInStore(t, domain.CartLine{ProductID: "STALE", Price: decimal.NewFromInt(5), Quantity: 3})
	a := setupAppWithStore(t, backend, st)
	require.True(t, a.Session.IsAuthenticated())

	a.Start(context.Background())
	require.NoError(t, a.Cart.Close())

	items := a.Cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "SERVER", items[0].ProductID)
	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Empty(t, backend.pushed, "startup never overwrites the server cart")
}

func TestStart_FetchFailureKeepsLocalCart(t *testing.T) {
	backend := &fakeBackend{status: map[string]int{"/cart": http.StatusInternalServerError}}
	st := signedInStore(t, domain.CartLine{ProductID: "LOCAL", Price: decimal.NewFromInt(5), Quantity: 1})
	a := setupAppWithStore(t, backend, st)

	a.Start(context.Background())
	require.NoError(t, a.Cart.Close())

	items := a.Cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "LOCAL", items[0].ProductID)
	assert.True(t, a.Session.IsAuthenticated())
	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Empty(t, backend.pushed)
}

func TestBadgeCounts_FollowCartAndWishlist(t *testing.T) {
	a := setupApp(t, &fakeBackend{})
	ctx := context.Background()
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CartItems))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WishlistItems))

	require.NoError(t, a.Cart.AddItem(ctx, domain.CartLine{ProductID: "P1", Price: decimal.NewFromInt(1), Quantity: 3}))
	a.Wishlist.AddProduct(ctx, domain.Product{ID: "P2", Name: "Lamp", Price: decimal.NewFromInt(60)})
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.CartItems))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WishlistItems))

	a.Cart.Clear(ctx)
	a.Wishlist.Clear(ctx)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CartItems))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WishlistItems))
}

func TestMutationsMirrorOnlyWhenSignedIn(t *testing.T) {
	backend := &fakeBackend{}
	a := setupApp(t, backend)
	ctx := context.Background()

	require.NoError(t, a.Cart.AddItem(ctx, domain.CartLine{ProductID: "P1", Price: decimal.NewFromInt(1), Quantity: 1}))
	require.NoError(t, a.Cart.Close())
	backend.mu.Lock()
	assert.Empty(t, backend.pushed)
	backend.mu.Unlock()

	login(t, a)
	a.Cart.UpdateQuantity(ctx, "P1", 3)
	require.NoError(t, a.Cart.Close())

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Len(t, backend.pushed, 2)
}

func TestCriticalUnauthorized_EndsSession(t *testing.T) {
	backend := &fakeBackend{status: map[string]int{"/orders/my-orders": http.StatusUnauthorized}}
	a := setupApp(t, backend)
	login(t, a)

	_, err := a.API.Orders.MyOrders(context.Background(), 1, 10)

	require.Error(t, err)
	assert.False(t, a.Session.IsAuthenticated())
	toasts := a.Toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, toast.SeverityError, toasts[0].Severity)
}

func TestNonCriticalUnauthorized_KeepsSession(t *testing.T) {
	backend := &fakeBackend{}
	a := setupApp(t, backend)
	login(t, a)

	backend.mu.Lock()
	backend.status = map[string]int{"/cart": http.StatusUnauthorized}
	backend.mu.Unlock()

	err := a.Cart.SyncNow(context.Background())

	require.Error(t, err)
	assert.True(t, a.Session.IsAuthenticated())
	toasts := a.Toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, toast.SeverityWarn, toasts[0].Severity)
}

func TestRejectedLogin_NoToast(t *testing.T) {
	backend := &fakeBackend{status: map[string]int{"/auth/login": http.StatusUnauthorized}}
	a := setupApp(t, backend)

	_, err := a.Session.Login(context.Background(), a.API.Auth, domain.LoginRequest{UsernameOrEmail: "alice", Password: "bad"})

	require.Error(t, err)
	assert.Empty(t, a.Toasts.Active())
}

func TestHandler_Health(t *testing.T) {
	a := setupApp(t, &fakeBackend{})
	rr := httptest.NewRecorder()

	a.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	log := logger.Discard()

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		st, err := OpenStore(ctx, config.StoreConfig{Backend: "redis", RedisAddr: mr.Addr(), Namespace: "test"}, log)
		require.NoError(t, err)
		defer st.Close()

		require.NoError(t, st.Set(ctx, store.KeyCart, []byte("[]")))
		assert.True(t, mr.Exists("storefront:test:"+store.KeyCart))
	})

	t.Run("sqlite", func(t *testing.T) {
		st, err := OpenStore(ctx, config.StoreConfig{Backend: "sqlite", SQLitePath: t.TempDir() + "/state.db", Namespace: "test"}, log)
		require.NoError(t, err)
		assert.NoError(t, st.Close())
	})

	t.Run("redis unreachable", func(t *testing.T) {
		_, err := OpenStore(ctx, config.StoreConfig{Backend: "redis", RedisAddr: "127.0.0.1:1"}, log)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := OpenStore(ctx, config.StoreConfig{Backend: "etcd"}, log)
		assert.Error(t, err)
	})
}
