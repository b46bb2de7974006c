// Package cart keeps the local shopping cart and mirrors it to the backend
// cart resource while a session exists.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/store"
)

const defaultPushTimeout = 10 * time.Second

var ErrInvalidQuantity = errors.New("quantity must be positive")

// Backend is the server-side cart resource.
type Backend interface {
	Get(ctx context.Context) (*domain.CartResponse, error)
	Set(ctx context.Context, lines []domain.CartLine) (*domain.CartResponse, error)
}

// Snapshot is a consistent copy of the cart and its aggregates.
type Snapshot struct {
	Lines     []domain.CartLine `json:"items"`
	ItemCount int               `json:"itemCount"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

type Observer func(Snapshot)

type Manager struct {
	mu        sync.Mutex
	lines     []domain.CartLine
	store     store.Store
	backend   Backend
	log       logrus.FieldLogger
	observers []Observer
	mirror    func() bool

	// notifyMu is taken before mu is released so observers see snapshots
	// in mutation order. Observers must not mutate the cart.
	notifyMu sync.Mutex
	// pushMu serializes snapshot-then-Set so the last push carries the
	// newest lines.
	pushMu sync.Mutex

	sfg         singleflight.Group // collapses concurrent fetches
	pushes      sync.WaitGroup
	pushTimeout time.Duration
}

func NewManager(st store.Store, backend Backend, log logrus.FieldLogger) *Manager {
	return &Manager{
		lines:       []domain.CartLine{},
		store:       st,
		backend:     backend,
		log:         log.WithField("component", "cart"),
		pushTimeout: defaultPushTimeout,
	}
}

// Load replaces the in-memory cart with the persisted one. A missing or
// unreadable entry leaves the cart empty.
func (m *Manager) Load(ctx context.Context) {
	var lines []domain.CartLine
	if err := store.GetJSON(ctx, m.store, store.KeyCart, &lines); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.WithError(err).Error("failed to load cart, starting empty")
		}
		lines = nil
	}

	m.mu.Lock()
	m.lines = sanitize(lines)
	m.mu.Unlock()
}

// sanitize drops lines that break the cart invariants.
func sanitize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	seen := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			continue
		}
		if i, ok := seen[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		seen[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

// AddItem appends line, or adds its quantity to the existing line for the
// same product.
func (m *Manager) AddItem(ctx context.Context, line domain.CartLine) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, line.Quantity)
	}
	if line.ProductID == "" {
		return errors.New("product id is required")
	}

	m.mutate(ctx, "add", func(lines []domain.CartLine) []domain.CartLine {
		if i := index(lines, line.ProductID); i >= 0 {
			lines[i].Quantity += line.Quantity
			return lines
		}
		return append(lines, line)
	})
	return nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero
// or less removes the line; unknown products are ignored.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		m.RemoveItem(ctx, productID)
		return
	}
	m.mutate(ctx, "update", func(lines []domain.CartLine) []domain.CartLine {
		if i := index(lines, productID); i >= 0 {
			lines[i].Quantity = quantity
		}
		return lines
	})
}

func (m *Manager) RemoveItem(ctx context.Context, productID string) {
	m.mutate(ctx, "remove", func(lines []domain.CartLine) []domain.CartLine {
		return slices.DeleteFunc(lines, func(l domain.CartLine) bool {
			return l.ProductID == productID
		})
	})
}

func (m *Manager) Clear(ctx context.Context) {
	m.mutate(ctx, "clear", func([]domain.CartLine) []domain.CartLine {
		return []domain.CartLine{}
	})
}

// mutate applies fn and persists the result under the lock, then notifies
// observers with the new snapshot.
func (m *Manager) mutate(ctx context.Context, op string, fn func([]domain.CartLine) []domain.CartLine) {
	m.mu.Lock()
	m.lines = fn(slices.Clone(m.lines))
	if err := store.SetJSON(ctx, m.store, store.KeyCart, m.lines); err != nil {
		m.log.WithError(err).WithField("op", op).Error("failed to persist cart")
	}
	snap := m.snapshotLocked()
	mirror := m.mirror
	observers := slices.Clone(m.observers)
	m.notifyMu.Lock()
	m.mu.Unlock()

	metrics.CartMutations.WithLabelValues(op).Inc()
	for _, fn := range observers {
		fn(snap)
	}
	m.notifyMu.Unlock()

	if op != "fetch" && mirror != nil && mirror() {
		m.PushToBackend(ctx)
	}
}

// MirrorWhen pushes every local mutation to the backend while active reports
// true. Fetched state is never pushed back.
func (m *Manager) MirrorWhen(active func() bool) {
	m.mu.Lock()
	m.mirror = active
	m.mu.Unlock()
}

func (m *Manager) snapshotLocked() Snapshot {
	lines := slices.Clone(m.lines)
	return Snapshot{
		Lines:     lines,
		ItemCount: domain.ItemCount(lines),
		Subtotal:  domain.Subtotal(lines),
	}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) Items() []domain.CartLine {
	return m.Snapshot().Lines
}

func (m *Manager) ItemCount() int {
	return m.Snapshot().ItemCount
}

func (m *Manager) Subtotal() decimal.Decimal {
	return m.Snapshot().Subtotal
}

func (m *Manager) Contains(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return index(m.lines, productID) >= 0
}

// Subscribe registers fn to run after every change. Calls are serialized
// and arrive in mutation order.
func (m *Manager) Subscribe(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func index(lines []domain.CartLine, productID string) int {
	return slices.IndexFunc(lines, func(l domain.CartLine) bool {
		return l.ProductID == productID
	})
}
