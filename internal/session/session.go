// Package session holds the signed-in user and bearer token.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/store"
)

const (
	LandingRoute   = "/products"
	LoginRoute     = "/auth/login"
	DashboardRoute = "/admin/dashboard"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("forbidden")
)

// Authenticator is the identity service.
type Authenticator interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error)
}

// Observer receives the user after every session change; nil means signed out.
type Observer func(user *domain.User)

type Manager struct {
	mu        sync.RWMutex
	store     store.Store
	log       logrus.FieldLogger
	token     string
	user      *domain.User
	observers []Observer
}

func NewManager(st store.Store, log logrus.FieldLogger) *Manager {
	return &Manager{
		store: st,
		log:   log.WithField("component", "session"),
	}
}

// Load restores the session from the store. Unreadable state leaves the
// session anonymous.
func (m *Manager) Load(ctx context.Context) {
	token, err := m.store.Get(ctx, store.KeyAuthToken)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.WithError(err).Error("failed to load token")
		}
		return
	}

	var user domain.User
	if err := store.GetJSON(ctx, m.store, store.KeyAuthUser, &user); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.WithError(err).Error("failed to load user")
		}
	}

	m.mu.Lock()
	m.token = string(token)
	if user.UserID != "" || user.Username != "" {
		m.user = &user
	}
	m.mu.Unlock()
}

func (m *Manager) Login(ctx context.Context, auth Authenticator, req domain.LoginRequest) (*domain.User, error) {
	resp, err := auth.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return m.establish(ctx, resp)
}

func (m *Manager) Register(ctx context.Context, auth Authenticator, req domain.RegisterRequest) (*domain.User, error) {
	resp, err := auth.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return m.establish(ctx, resp)
}

func (m *Manager) establish(ctx context.Context, resp *domain.AuthResponse) (*domain.User, error) {
	if resp.Token == "" {
		return nil, errors.New("identity service returned no token")
	}
	user := resp.User()

	m.mu.Lock()
	if err := m.store.Set(ctx, store.KeyAuthToken, []byte(resp.Token)); err != nil {
		m.log.WithError(err).Error("failed to persist token")
	}
	if err := store.SetJSON(ctx, m.store, store.KeyAuthUser, user); err != nil {
		m.log.WithError(err).Error("failed to persist user")
	}
	m.token = resp.Token
	m.user = user
	m.mu.Unlock()

	m.log.WithField("user_id", user.UserID).Info("session established")
	m.notify(user)
	return copyUser(user), nil
}

// Logout ends the session and returns the route to land on.
func (m *Manager) Logout(ctx context.Context) string {
	m.clear(ctx)
	m.log.Info("logged out")
	return LandingRoute
}

// ForceLogout ends the session after the server rejected it.
func (m *Manager) ForceLogout(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.clear(ctx)
	m.log.WithField("reason", reason).Warn("session ended by server")
}

func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	wasSignedIn := m.token != "" || m.user != nil
	if err := m.store.Delete(ctx, store.KeyAuthToken); err != nil {
		m.log.WithError(err).Error("failed to remove token")
	}
	if err := m.store.Delete(ctx, store.KeyAuthUser); err != nil {
		m.log.WithError(err).Error("failed to remove user")
	}
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	if wasSignedIn {
		m.notify(nil)
	}
}

// Subscribe registers fn for session changes.
func (m *Manager) Subscribe(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Manager) notify(user *domain.User) {
	m.mu.RLock()
	observers := slices.Clone(m.observers)
	m.mu.RUnlock()

	for _, fn := range observers {
		fn(copyUser(user))
	}
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// TokenExpired reads the exp claim without verifying the signature. Opaque
// tokens and tokens without exp never count as expired.
func (m *Manager) TokenExpired(now time.Time) bool {
	token := m.Token()
	if token == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// User returns a copy of the current user, or nil.
func (m *Manager) User() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyUser(m.user)
}

func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return ""
	}
	return m.user.UserID
}

func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

func (m *Manager) HasRole(role string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.HasRole(role)
}

func (m *Manager) IsAdmin() bool    { return m.HasRole(domain.RoleAdmin) }
func (m *Manager) IsManager() bool  { return m.HasRole(domain.RoleManager) }
func (m *Manager) IsCustomer() bool { return m.HasRole(domain.RoleCustomer) }

func (m *Manager) Roles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return []string{}
	}
	return slices.Clone(m.user.Roles)
}

// DefaultRoute is where a user lands after signing in.
func (m *Manager) DefaultRoute() string {
	if m.IsAdmin() || m.IsManager() {
		return DashboardRoute
	}
	return LandingRoute
}

func (m *Manager) RequireAuthenticated() error {
	if !m.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireRoles passes when the user holds at least one of roles.
func (m *Manager) RequireRoles(roles ...string) error {
	if err := m.RequireAuthenticated(); err != nil {
		return err
	}
	for _, role := range roles {
		if m.HasRole(role) {
			return nil
		}
	}
	return fmt.Errorf("%w: one of %v required", ErrForbidden, roles)
}

// RedirectFor maps a guard error onto the route a denied caller is sent to.
func RedirectFor(err error) string {
	if errors.Is(err, ErrNotAuthenticated) {
		return LoginRoute
	}
	return LandingRoute
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}
