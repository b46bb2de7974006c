// Package wishlist keeps saved products locally. There is no server copy.
package wishlist

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type Observer func(items []domain.WishlistItem)

type Manager struct {
	mu        sync.Mutex
	items     []domain.WishlistItem
	store     store.Store
	log       logrus.FieldLogger
	observers []Observer
	now       func() time.Time

	notifyMu sync.Mutex // held across delivery, taken before mu is released
}

func NewManager(st store.Store, log logrus.FieldLogger) *Manager {
	return &Manager{
		items: []domain.WishlistItem{},
		store: st,
		log:   log.WithField("component", "wishlist"),
		now:   time.Now,
	}
}

// Load restores the persisted list; failures leave it empty.
func (m *Manager) Load(ctx context.Context) {
	var items []domain.WishlistItem
	if err := store.GetJSON(ctx, m.store, store.KeyWishlist, &items); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.WithError(err).Error("failed to load wishlist, starting empty")
		}
		items = []domain.WishlistItem{}
	}

	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
}

// Add saves item unless its product is already present. It reports whether
// the list changed.
func (m *Manager) Add(ctx context.Context, item domain.WishlistItem) bool {
	m.mu.Lock()
	if m.indexLocked(item.ProductID) >= 0 {
		m.mu.Unlock()
		return false
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = m.now()
	}
	m.items = append(slices.Clone(m.items), item)
	m.persistLocked(ctx)
	m.unlockAndNotify()
	return true
}

func (m *Manager) AddProduct(ctx context.Context, p domain.Product) bool {
	return m.Add(ctx, domain.WishlistItemFromProduct(p, m.now()))
}

func (m *Manager) Remove(ctx context.Context, productID string) {
	m.mu.Lock()
	m.items = slices.DeleteFunc(slices.Clone(m.items), func(i domain.WishlistItem) bool {
		return i.ProductID == productID
	})
	m.persistLocked(ctx)
	m.unlockAndNotify()
}

// Clear empties the list and drops the persisted entry.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.items = []domain.WishlistItem{}
	if err := m.store.Delete(ctx, store.KeyWishlist); err != nil {
		m.log.WithError(err).Error("failed to remove wishlist")
	}
	m.unlockAndNotify()
}

func (m *Manager) IsPresent(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexLocked(productID) >= 0
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Manager) Items() []domain.WishlistItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

func (m *Manager) Subscribe(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// unlockAndNotify releases mu, which the caller holds, and delivers the
// current items. Deliveries keep mutation order; observers must not modify
// the list.
func (m *Manager) unlockAndNotify() {
	items := slices.Clone(m.items)
	observers := slices.Clone(m.observers)
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.mu.Unlock()

	for _, fn := range observers {
		fn(items)
	}
}

func (m *Manager) persistLocked(ctx context.Context) {
	if err := store.SetJSON(ctx, m.store, store.KeyWishlist, m.items); err != nil {
		m.log.WithError(err).Error("failed to persist wishlist")
	}
}

func (m *Manager) indexLocked(productID string) int {
	return slices.IndexFunc(m.items, func(i domain.WishlistItem) bool {
		return i.ProductID == productID
	})
}
