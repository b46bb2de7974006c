package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// SignalR JSON hub protocol framing.
const (
	recordSeparator = 0x1e

	msgInvocation = 1
	msgCompletion = 3
	msgPing       = 6
	msgClose      = 7

	joinUserGroupTarget = "JoinUserGroup"
	orderUpdateTarget   = "ReceiveOrderUpdate"
)

type hubMessage struct {
	Type         int               `json:"type"`
	InvocationID string            `json:"invocationId,omitempty"`
	Target       string            `json:"target,omitempty"`
	Arguments    []json.RawMessage `json:"arguments,omitempty"`
	Result       json.RawMessage   `json:"result,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// HubDialer connects to a SignalR hub over WebSocket, skipping negotiation.
type HubDialer struct {
	URL string
	// Token, if set, is sent as the access_token query parameter.
	Token        func() string
	PingInterval time.Duration
	Dialer       *websocket.Dialer
}

func (d *HubDialer) Dial(ctx context.Context) (Conn, error) {
	target, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid hub url: %w", err)
	}
	switch target.Scheme {
	case "http":
		target.Scheme = "ws"
	case "https":
		target.Scheme = "wss"
	}
	if d.Token != nil {
		if token := d.Token(); token != "" {
			q := target.Query()
			q.Set("access_token", token)
			target.RawQuery = q.Encode()
		}
	}

	dialer := d.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}

	ws, _, err := dialer.DialContext(ctx, target.String(), http.Header{})
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	leftover, err := hubHandshake(ctx, ws)
	if err != nil {
		ws.Close()
		return nil, err
	}

	interval := d.PingInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	c := &hubConn{
		ws:      ws,
		events:  make(chan domain.OrderNotification, 64),
		done:    make(chan struct{}),
		pending: make(map[string]chan hubMessage),
	}
	go c.readLoop(leftover)
	go c.pingLoop(interval)
	return c, nil
}

// hubHandshake negotiates the JSON protocol and returns any records that
// arrived in the same frame as the handshake reply.
func hubHandshake(ctx context.Context, ws *websocket.Conn) ([]byte, error) {
	request := append([]byte(`{"protocol":"json","version":1}`), recordSeparator)
	if err := ws.WriteMessage(websocket.TextMessage, request); err != nil {
		return nil, fmt.Errorf("send handshake: %w", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	ws.SetReadDeadline(deadline)
	defer ws.SetReadDeadline(time.Time{})

	_, data, err := ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read handshake: %w", err)
	}
	i := bytes.IndexByte(data, recordSeparator)
	if i < 0 {
		return nil, errors.New("malformed handshake response")
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data[:i], &resp); err != nil {
		return nil, fmt.Errorf("parse handshake: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("handshake rejected: %s", resp.Error)
	}
	return data[i+1:], nil
}

type hubConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	events  chan domain.OrderNotification

	done      chan struct{}
	closeOnce sync.Once
	err       error

	pendingMu sync.Mutex
	pending   map[string]chan hubMessage
	nextID    atomic.Int64
}

func (c *hubConn) JoinUserGroup(ctx context.Context, userID string) error {
	id := strconv.FormatInt(c.nextID.Add(1), 10)
	arg, err := json.Marshal(userID)
	if err != nil {
		return err
	}

	reply := make(chan hubMessage, 1)
	c.pendingMu.Lock()
	c.pending[id] = reply
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	err = c.write(hubMessage{
		Type:         msgInvocation,
		InvocationID: id,
		Target:       joinUserGroupTarget,
		Arguments:    []json.RawMessage{arg},
	})
	if err != nil {
		return err
	}

	select {
	case msg := <-reply:
		if msg.Error != "" {
			return fmt.Errorf("%s failed: %s", joinUserGroupTarget, msg.Error)
		}
		return nil
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *hubConn) Receive(ctx context.Context) (domain.OrderNotification, error) {
	select {
	case n := <-c.events:
		return n, nil
	case <-c.done:
		return domain.OrderNotification{}, c.err
	case <-ctx.Done():
		return domain.OrderNotification{}, ctx.Err()
	}
}

func (c *hubConn) Close() error {
	c.writeMu.Lock()
	c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	c.shutdown(ErrClosed)
	return c.ws.Close()
}

func (c *hubConn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		close(c.done)
	})
}

func (c *hubConn) write(msg hubMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, recordSeparator)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("hub write: %w", err)
	}
	return nil
}

func (c *hubConn) readLoop(leftover []byte) {
	if !c.handleFrame(leftover) {
		return
	}
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("hub read: %w", err))
			return
		}
		if !c.handleFrame(data) {
			return
		}
	}
}

// handleFrame processes every record in data. It returns false once the
// connection should stop reading.
func (c *hubConn) handleFrame(data []byte) bool {
	for _, record := range bytes.Split(data, []byte{recordSeparator}) {
		if len(bytes.TrimSpace(record)) == 0 {
			continue
		}
		var msg hubMessage
		if err := json.Unmarshal(record, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case msgInvocation:
			if msg.Target != orderUpdateTarget || len(msg.Arguments) == 0 {
				continue
			}
			var n domain.OrderNotification
			if err := json.Unmarshal(msg.Arguments[0], &n); err != nil {
				continue
			}
			select {
			case c.events <- n:
			case <-c.done:
				return false
			}
		case msgCompletion:
			c.pendingMu.Lock()
			reply, ok := c.pending[msg.InvocationID]
			c.pendingMu.Unlock()
			if ok {
				select {
				case reply <- msg:
				default:
				}
			}
		case msgPing:
		case msgClose:
			reason := msg.Error
			if reason == "" {
				reason = "no reason given"
			}
			c.shutdown(fmt.Errorf("hub closed connection: %s", reason))
			c.ws.Close()
			return false
		}
	}
	return true
}

func (c *hubConn) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.write(hubMessage{Type: msgPing}); err != nil {
				c.shutdown(err)
				return
			}
		}
	}
}
