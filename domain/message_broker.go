package domain

import (
	"context"
	"time"
)

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish sends a message to a specific topic/channel with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for messages on a specific topic/channel and routing key
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

// DigestTopic carries DigestEvent payloads.
const DigestTopic = "digest.computed"

// DigestEvent is published every time the service computes a digest.
type DigestEvent struct {
	RequestID string    `json:"request_id,omitempty"`
	DeviceID  string    `json:"device_id,omitempty"`
	UserID    int       `json:"user_id,omitempty"`
	Algorithm Algorithm `json:"algorithm"`
	Hex       string    `json:"hex"`
	Size      int       `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}
