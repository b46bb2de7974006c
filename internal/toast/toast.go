// Package toast holds short-lived user-facing alerts.
package toast

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLife is how long a toast stays visible.
	DefaultLife = 5 * time.Second

	// CleanupInterval is how often expired toasts are dropped.
	CleanupInterval = time.Second
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
)

type Toast struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (t Toast) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Board keeps active toasts and drops them once their life has passed.
type Board struct {
	mu     sync.RWMutex
	toasts map[string]Toast
	life   time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewBoard(life, cleanupInterval time.Duration) *Board {
	if life <= 0 {
		life = DefaultLife
	}
	if cleanupInterval <= 0 {
		cleanupInterval = CleanupInterval
	}
	b := &Board{
		toasts:      make(map[string]Toast),
		life:        life,
		stopCleanup: make(chan struct{}),
	}

	b.wg.Add(1)
	go b.cleanupLoop(cleanupInterval)

	return b
}

func (b *Board) cleanupLoop(interval time.Duration) {
	defer b.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.expire(time.Now())
		case <-b.stopCleanup:
			return
		}
	}
}

func (b *Board) expire(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.toasts {
		if t.IsExpired(now) {
			delete(b.toasts, id)
		}
	}
}

// Push adds a toast and returns it with its id and expiry filled in.
func (b *Board) Push(severity Severity, summary, detail string) Toast {
	now := time.Now()
	t := Toast{
		ID:        uuid.New().String(),
		Severity:  severity,
		Summary:   summary,
		Detail:    detail,
		CreatedAt: now,
		ExpiresAt: now.Add(b.life),
	}

	b.mu.Lock()
	b.toasts[t.ID] = t
	b.mu.Unlock()

	return t
}

// Active returns unexpired toasts, oldest first.
func (b *Board) Active() []Toast {
	now := time.Now()

	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Toast, 0, len(b.toasts))
	for _, t := range b.toasts {
		if !t.IsExpired(now) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (b *Board) Dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.toasts, id)
}

// Close stops the background cleanup and waits for it to finish
func (b *Board) Close() error {
	close(b.stopCleanup)
	b.wg.Wait()
	return nil
}
