package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const DefaultKafkaTopic = "order-status-updates"

// KafkaDialer reads order status events straight from the broker. All
// connections from one dialer share a consumer group, so a reconnect resumes
// from the committed offset instead of leaving a group behind. A new group
// starts at the newest offset.
type KafkaDialer struct {
	Brokers []string
	Topic   string
	// GroupID defaults to a random storefront-notify group fixed on first use.
	GroupID string

	groupOnce sync.Once
}

func (d *KafkaDialer) groupID() string {
	d.groupOnce.Do(func() {
		if d.GroupID == "" {
			d.GroupID = "storefront-notify-" + uuid.New().String()
		}
	})
	return d.GroupID
}

func (d *KafkaDialer) Dial(ctx context.Context) (Conn, error) {
	if len(d.Brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	topic := d.Topic
	if topic == "" {
		topic = DefaultKafkaTopic
	}

	// kafka.NewReader connects lazily; dial once so an unreachable broker
	// fails here instead of inside Receive.
	conn, err := kafka.DialContext(ctx, "tcp", d.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka dial: %w", err)
	}
	conn.Close()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     d.Brokers,
		Topic:       topic,
		GroupID:     d.groupID(),
		StartOffset: kafka.LastOffset,
		MaxBytes:    10e6, // 10MB
	})
	return &kafkaConn{reader: reader}, nil
}

type kafkaConn struct {
	reader *kafka.Reader

	mu     sync.RWMutex
	userID string
}

// JoinUserGroup sets the user filter; the topic carries every user's events.
func (c *kafkaConn) JoinUserGroup(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	return nil
}

func (c *kafkaConn) Receive(ctx context.Context) (domain.OrderNotification, error) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return domain.OrderNotification{}, err
		}

		var n domain.OrderNotification
		if err := json.Unmarshal(m.Value, &n); err != nil {
			continue
		}

		c.mu.RLock()
		userID := c.userID
		c.mu.RUnlock()
		if userID == "" || n.UserID != userID {
			continue
		}
		return n, nil
	}
}

func (c *kafkaConn) Close() error {
	return c.reader.Close()
}
