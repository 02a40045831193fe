package message_broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/log"
	"go.uber.org/zap"
)

const defaultBufferSize = 100

var ErrClosed = errors.New("message broker is closed")

// ChannelMessageBroker implements MessageBroker using Go channels
type ChannelMessageBroker struct {
	topics     map[string]chan domain.Message
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewChannelMessageBroker creates a new channel-based message broker
func NewChannelMessageBroker() *ChannelMessageBroker {
	return NewChannelMessageBrokerSize(defaultBufferSize)
}

// NewChannelMessageBrokerSize creates a broker whose topic channels hold size messages.
func NewChannelMessageBrokerSize(size int) *ChannelMessageBroker {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &ChannelMessageBroker{
		topics:     make(map[string]chan domain.Message),
		bufferSize: size,
	}
}

// makeKey creates a unique key for topic and routingKey
func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// channel returns the channel for key, creating it if needed. Callers hold no lock.
func (b *ChannelMessageBroker) channel(key string) (chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	ch, ok := b.topics[key]
	if !ok {
		ch = make(chan domain.Message, b.bufferSize)
		b.topics[key] = ch
	}
	return ch, nil
}

// Publish sends a message to a specific topic and routing key without blocking.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	key := makeKey(topic, routingKey)

	b.mu.RLock()
	ch, exists := b.topics[key]
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if !exists {
		var err error
		if ch, err = b.channel(key); err != nil {
			return err
		}
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	// Hold the read lock while sending so Close cannot close ch underneath us.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	select {
	case ch <- msg:
		log.WithCtx(ctx).Debug("📤 Message published to topic",
			zap.String("topic", topic),
			zap.String("routingKey", routingKey),
			zap.Int("payload_size", len(message)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("topic channel is full: %s:%s", topic, routingKey)
	}
}

// Subscribe listens for messages on a specific topic and routing key
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	ch, err := b.channel(makeKey(topic, routingKey))
	if err != nil {
		return nil, err
	}

	log.WithCtx(ctx).Info("📡 Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return ch, nil
}

// Close closes the message broker and all topic channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for key, channel := range b.topics {
		close(channel)
		log.WithCtx(context.Background()).Debug("🔒 Closed topic channel", zap.String("key", key))
	}

	b.topics = make(map[string]chan domain.Message)

	log.WithCtx(context.Background()).Info("🔒 Message broker closed")
	return nil
}

// GetTopicCount returns the number of active topics (useful for monitoring)
func (b *ChannelMessageBroker) GetTopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// IsClosed returns whether the broker is closed
func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
