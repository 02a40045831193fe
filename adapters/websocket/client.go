package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/log"
	"go.uber.org/zap"
)

// MessageHandler turns one inbound frame into the reply frame, or nil for no reply.
type MessageHandler func(ctx context.Context, message []byte) []byte

type Client struct {
	conn          *websocket.Conn
	send          chan []byte
	handle        MessageHandler
	ctx           context.Context
	cancel        context.CancelFunc
	mu            sync.RWMutex
	closed        bool
	userID        int
	deviceID      string
	deviceVersion string
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512 * 1024
	sendBuffer     = 256
)

var ErrSendBufferFull = errors.New("client send buffer is full")

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, userID int, deviceID, deviceVersion string, handle MessageHandler) *Client {
	ctx := log.ContextWithDevice(context.Background(), userID, deviceID, deviceVersion)
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		handle:        handle,
		ctx:           ctx,
		cancel:        cancel,
		userID:        userID,
		deviceID:      deviceID,
		deviceVersion: deviceVersion,
	}
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.readPump()
	go c.writePump()
}

// setupHandlers configures all WebSocket message handlers
func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPongHandler(func(appData string) error {
		log.WithCtx(c.ctx).Debug("Received pong from client", zap.String("appData", appData))
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Close gracefully closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()

	if c.conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.conn.Close()
	}
}

// IsClosed returns true if the client connection is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Context returns the client's context
func (c *Client) Context() context.Context {
	return c.ctx
}

// DeviceID returns the device the client authenticated as.
func (c *Client) DeviceID() string {
	return c.deviceID
}

// readPump handles incoming WebSocket messages
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}

		log.WithCtx(c.ctx).Debug("Received message", zap.Int("size", len(message)))
		if c.handle == nil {
			continue
		}
		if reply := c.handle(c.ctx, message); reply != nil {
			if err := c.SendMessage(reply); err != nil {
				log.WithCtx(c.ctx).Warn("Failed to queue reply", zap.Error(err))
				return
			}
		}
	}
}

// writePump handles outgoing WebSocket messages and keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Error("Failed to send ping", zap.Error(err))
				return
			}
			log.WithCtx(c.ctx).Debug("Ping sent")

		case <-c.ctx.Done():
			return
		}
	}
}

// SendMessage queues message for the client without blocking.
func (c *Client) SendMessage(message []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return ErrSendBufferFull
	}
}
