package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type AuthenticatorMock struct {
	resp *domain.AuthResponse
	err  error
}

func (m AuthenticatorMock) Login(context.Context, domain.LoginRequest) (*domain.AuthResponse, error) {
	return m.resp, m.err
}

func (m AuthenticatorMock) Register(context.Context, domain.RegisterRequest) (*domain.AuthResponse, error) {
	return m.resp, m.err
}

func setupManager(t *testing.T) (*Manager, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewManager(st, logger.Discard()), st
}

func signedToken(t *testing.T, exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestLogin_PersistsAndNotifies(t *testing.T) {
	m, st := setupManager(t)
	ctx := context.Background()

	var seen []*domain.User
	m.Subscribe(func(u *domain.User) { seen = append(seen, u) })

	auth := AuthenticatorMock{resp: &domain.AuthResponse{
		UserID: "u1", Username: "alice", Email: "a@example.com", Token: "tok", Roles: []string{domain.RoleCustomer},
	}}
	user, err := m.Login(ctx, auth, domain.LoginRequest{UsernameOrEmail: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)

	assert.True(t, m.IsAuthenticated())
	assert.True(t, m.IsCustomer())
	assert.False(t, m.IsAdmin())
	assert.Equal(t, LandingRoute, m.DefaultRoute())

	token, err := st.Get(ctx, store.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", string(token))

	var stored domain.User
	require.NoError(t, store.GetJSON(ctx, st, store.KeyAuthUser, &stored))
	assert.Equal(t, "alice", stored.Username)

	require.Len(t, seen, 1)
	assert.Equal(t, "u1", seen[0].UserID)
}

func TestLogin_Failure(t *testing.T) {
	m, st := setupManager(t)
	apiErr := &api.Error{StatusCode: 401, Message: "Unauthorized. Please login again."}

	_, err := m.Login(context.Background(), AuthenticatorMock{err: apiErr}, domain.LoginRequest{})
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.False(t, m.IsAuthenticated())

	_, err = st.Get(context.Background(), store.KeyAuthToken)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegister_AdminDefaultRoute(t *testing.T) {
	m, _ := setupManager(t)
	auth := AuthenticatorMock{resp: &domain.AuthResponse{UserID: "u2", Token: "tok", Roles: []string{domain.RoleManager}}}

	_, err := m.Register(context.Background(), auth, domain.RegisterRequest{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, DashboardRoute, m.DefaultRoute())
	assert.Equal(t, []string{domain.RoleManager}, m.Roles())
}

func TestLoad_RestoresSession(t *testing.T) {
	m, st := setupManager(t)
	ctx := context.Background()
	auth := AuthenticatorMock{resp: &domain.AuthResponse{UserID: "u1", Username: "alice", Token: "tok", Roles: []string{domain.RoleAdmin}}}
	_, err := m.Login(ctx, auth, domain.LoginRequest{})
	require.NoError(t, err)

	reloaded := NewManager(st, logger.Discard())
	reloaded.Load(ctx)

	assert.Equal(t, "tok", reloaded.Token())
	assert.Equal(t, "u1", reloaded.UserID())
	assert.True(t, reloaded.IsAdmin())
}

func TestLoad_CorruptUserStaysUsable(t *testing.T) {
	m, st := setupManager(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, store.KeyAuthToken, []byte("tok")))
	require.NoError(t, st.Set(ctx, store.KeyAuthUser, []byte("{broken")))

	m.Load(ctx)
	assert.True(t, m.IsAuthenticated())
	assert.Nil(t, m.User())
}

func TestLogout_ClearsStateAndReturnsLanding(t *testing.T) {
	m, st := setupManager(t)
	ctx := context.Background()
	auth := AuthenticatorMock{resp: &domain.AuthResponse{UserID: "u1", Token: "tok"}}
	_, err := m.Login(ctx, auth, domain.LoginRequest{})
	require.NoError(t, err)

	var last *domain.User = &domain.User{}
	m.Subscribe(func(u *domain.User) { last = u })

	assert.Equal(t, "/products", m.Logout(ctx))
	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.User())
	assert.Nil(t, last)

	_, err = st.Get(ctx, store.KeyAuthToken)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(ctx, store.KeyAuthUser)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestForceLogout(t *testing.T) {
	m, _ := setupManager(t)
	auth := AuthenticatorMock{resp: &domain.AuthResponse{UserID: "u1", Token: "tok"}}
	_, err := m.Login(context.Background(), auth, domain.LoginRequest{})
	require.NoError(t, err)

	calls := 0
	m.Subscribe(func(*domain.User) { calls++ })

	m.ForceLogout("401 from /orders")
	m.ForceLogout("second call is quiet")

	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, 1, calls)
}

func TestTokenExpired(t *testing.T) {
	m, st := setupManager(t)
	ctx := context.Background()
	now := time.Now()

	assert.False(t, m.TokenExpired(now), "no token")

	require.NoError(t, st.Set(ctx, store.KeyAuthToken, []byte(signedToken(t, now.Add(-time.Minute)))))
	m.Load(ctx)
	assert.True(t, m.TokenExpired(now))

	require.NoError(t, st.Set(ctx, store.KeyAuthToken, []byte(signedToken(t, now.Add(time.Hour)))))
	m.Load(ctx)
	assert.False(t, m.TokenExpired(now))

	require.NoError(t, st.Set(ctx, store.KeyAuthToken, []byte("opaque-token")))
	m.Load(ctx)
	assert.False(t, m.TokenExpired(now))
}

func TestGuards(t *testing.T) {
	m, _ := setupManager(t)

	err := m.RequireAuthenticated()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, LoginRoute, RedirectFor(err))
	assert.ErrorIs(t, m.RequireRoles(domain.RoleAdmin), ErrNotAuthenticated)

	auth := AuthenticatorMock{resp: &domain.AuthResponse{UserID: "u1", Token: "tok", Roles: []string{domain.RoleManager}}}
	_, err = m.Login(context.Background(), auth, domain.LoginRequest{})
	require.NoError(t, err)

	assert.NoError(t, m.RequireAuthenticated())
	assert.NoError(t, m.RequireRoles(domain.RoleAdmin, domain.RoleManager))

	err = m.RequireRoles(domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, LandingRoute, RedirectFor(err))
}

func TestUser_ReturnsCopy(t *testing.T) {
	m, _ := setupManager(t)
	auth := AuthenticatorMock{resp: &domain.AuthResponse{UserID: "u1", Token: "tok", Roles: []string{domain.RoleCustomer}}}
	_, err := m.Login(context.Background(), auth, domain.LoginRequest{})
	require.NoError(t, err)

	u := m.User()
	u.Roles[0] = domain.RoleAdmin
	assert.False(t, m.IsAdmin())
}
