// Package notify keeps a push connection open for the signed-in user and
// delivers order status updates.
package notify

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type State string

const (
	StateDisconnected State = "Disconnected"
	StateConnecting   State = "Connecting"
	StateConnected    State = "Connected"
	StateReconnecting State = "Reconnecting"
)

var allStates = []State{StateDisconnected, StateConnecting, StateConnected, StateReconnecting}

// DefaultRetryDelays is the wait before each reconnect attempt.
var DefaultRetryDelays = []time.Duration{0, 2 * time.Second, 10 * time.Second, 30 * time.Second}

var ErrClosed = errors.New("connection closed")

// Conn is one live push connection.
type Conn interface {
	// JoinUserGroup subscribes the connection to userID's events.
	JoinUserGroup(ctx context.Context, userID string) error
	// Receive blocks for the next notification. An error means the
	// connection is gone.
	Receive(ctx context.Context) (domain.OrderNotification, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Channel drives the connection state machine:
// Disconnected -> Connecting -> Connected -> (Reconnecting -> Connected | Disconnected).
type Channel struct {
	dialer Dialer
	delays []time.Duration
	log    logrus.FieldLogger

	opMu sync.Mutex // serializes Start and Stop
	seq  atomic.Uint64

	mu             sync.Mutex
	state          State
	userID         string
	conn           Conn
	cancel         context.CancelFunc
	done           chan struct{}
	onNotification []func(domain.OrderNotification)
	onState        []func(State)
}

func NewChannel(d Dialer, delays []time.Duration, log logrus.FieldLogger) *Channel {
	if delays == nil {
		delays = DefaultRetryDelays
	}
	c := &Channel{
		dialer: d,
		delays: delays,
		log:    log.WithField("component", "notify"),
		state:  StateDisconnected,
	}
	c.recordState(StateDisconnected)
	return c
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) OnNotification(fn func(domain.OrderNotification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onNotification = append(c.onNotification, fn)
}

func (c *Channel) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = append(c.onState, fn)
}

// Start connects and joins userID's group. A running channel for the same
// user is left alone; a different user replaces it. A failed first connect
// leaves the channel Disconnected and returns the error.
func (c *Channel) Start(ctx context.Context, userID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.start(ctx, userID)
}

func (c *Channel) start(ctx context.Context, userID string) error {
	c.mu.Lock()
	running := c.cancel != nil
	sameUser := c.userID == userID
	c.mu.Unlock()

	if running && sameUser {
		return nil
	}
	if running {
		c.stop()
	}

	c.setState(StateConnecting)
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		c.log.WithError(err).Error("failed to start notification connection")
		return err
	}
	c.join(ctx, conn, userID)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.userID = userID
	c.conn = conn
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.setState(StateConnected)
	c.log.WithField("user_id", userID).Info("notification channel connected")

	go c.run(runCtx, conn, userID, done)
	return nil
}

// Stop closes the connection and waits for the receive loop to exit.
func (c *Channel) Stop() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stop()
}

func (c *Channel) stop() {
	c.mu.Lock()
	cancel, done, conn := c.cancel, c.done, c.conn
	c.cancel, c.done, c.conn = nil, nil, nil
	c.userID = ""
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		if conn != nil {
			conn.Close()
		}
		<-done
	}
	c.setState(StateDisconnected)
}

// BindSession starts the channel when a user signs in and stops it on
// sign-out. An already signed-in user is connected right away.
func (c *Channel) BindSession(s *session.Manager) {
	s.Subscribe(func(u *domain.User) {
		userID := ""
		if u != nil {
			userID = u.UserID
		}
		c.follow(userID)
	})
	if id := s.UserID(); id != "" && s.IsAuthenticated() {
		c.follow(id)
	}
}

// follow moves the channel to userID ("" to stop) in the background. Only
// the latest request runs; older ones still waiting are dropped.
func (c *Channel) follow(userID string) {
	seq := c.seq.Add(1)
	go func() {
		c.opMu.Lock()
		defer c.opMu.Unlock()
		if c.seq.Load() != seq {
			return
		}
		if userID == "" {
			c.stop()
			return
		}
		c.start(context.Background(), userID)
	}()
}

func (c *Channel) join(ctx context.Context, conn Conn, userID string) {
	if err := conn.JoinUserGroup(ctx, userID); err != nil {
		c.log.WithError(err).WithField("user_id", userID).Error("failed to join user group")
		return
	}
	c.log.WithField("user_id", userID).Debug("joined user group")
}

func (c *Channel) run(ctx context.Context, conn Conn, userID string, done chan struct{}) {
	defer close(done)

	for {
		n, err := conn.Receive(ctx)
		if err == nil {
			metrics.NotificationsReceived.Inc()
			c.dispatch(n)
			continue
		}
		conn.Close()
		if ctx.Err() != nil {
			return
		}

		c.log.WithError(err).Warn("notification connection lost, reconnecting")
		c.setState(StateReconnecting)

		conn = c.reconnect(ctx)
		if conn == nil {
			if ctx.Err() == nil {
				c.release()
				c.setState(StateDisconnected)
				c.log.Error("notification reconnect attempts exhausted")
			}
			return
		}

		// group membership does not survive a new connection
		c.join(ctx, conn, userID)
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.setState(StateConnected)
	}
}

func (c *Channel) reconnect(ctx context.Context) Conn {
	for attempt, delay := range c.delays {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}

		conn, err := c.dialer.Dial(ctx)
		if err == nil {
			return conn
		}
		c.log.WithError(err).WithField("attempt", attempt+1).Warn("reconnect attempt failed")
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

// release forgets the running loop after it gave up on its own.
func (c *Channel) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel, c.done, c.conn = nil, nil, nil
	c.userID = ""
}

func (c *Channel) dispatch(n domain.OrderNotification) {
	c.mu.Lock()
	handlers := slices.Clone(c.onNotification)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(n)
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	handlers := slices.Clone(c.onState)
	c.mu.Unlock()

	c.recordState(s)
	for _, fn := range handlers {
		fn(s)
	}
}

func (c *Channel) recordState(s State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		metrics.NotifyState.WithLabelValues(string(st)).Set(v)
	}
}
