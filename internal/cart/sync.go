package cart

import (
	"context"
	"slices"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
)

// FetchFromBackend replaces the local cart with the server's copy.
// Concurrent calls share one request.
func (m *Manager) FetchFromBackend(ctx context.Context) error {
	_, err, _ := m.sfg.Do("fetch", func() (interface{}, error) {
		resp, err := m.backend.Get(ctx)
		if err != nil {
			metrics.CartSyncs.WithLabelValues("fetch", "error").Inc()
			m.log.WithError(err).Warn("failed to fetch cart from backend")
			return nil, err
		}

		lines := sanitize(resp.Lines())
		m.mutate(ctx, "fetch", func([]domain.CartLine) []domain.CartLine {
			return lines
		})
		metrics.CartSyncs.WithLabelValues("fetch", "ok").Inc()
		return nil, nil
	})
	return err
}

// SyncNow writes the full local cart to the backend and waits for the
// result. The response does not overwrite local state. Pushes run one at a
// time and each reads the lines only once it holds the push lock.
func (m *Manager) SyncNow(ctx context.Context) error {
	m.pushMu.Lock()
	defer m.pushMu.Unlock()

	m.mu.Lock()
	lines := slices.Clone(m.lines)
	m.mu.Unlock()

	if _, err := m.backend.Set(ctx, lines); err != nil {
		metrics.CartSyncs.WithLabelValues("push", "error").Inc()
		return err
	}
	metrics.CartSyncs.WithLabelValues("push", "ok").Inc()
	return nil
}

// PushToBackend starts SyncNow in the background. Failures are logged and
// never roll back local state.
func (m *Manager) PushToBackend(ctx context.Context) {
	m.pushes.Add(1)
	go func() {
		defer m.pushes.Done()

		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.pushTimeout)
		defer cancel()

		if err := m.SyncNow(pushCtx); err != nil {
			m.log.WithError(err).Warn("failed to sync cart with backend")
		}
	}()
}

// Reconcile runs when a session is acquired. A non-empty local cart wins
// and is pushed; an empty one is replaced by the server copy.
func (m *Manager) Reconcile(ctx context.Context) {
	if m.ItemCount() > 0 {
		m.PushToBackend(ctx)
		return
	}
	if err := m.FetchFromBackend(ctx); err != nil {
		m.log.WithError(err).Debug("keeping local cart")
	}
}

// Close waits for background pushes to finish.
func (m *Manager) Close() error {
	m.pushes.Wait()
	return nil
}
