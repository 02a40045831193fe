package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
	"github.com/satriahrh/cocoa-fruit/hexdigest/usecase"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/log"
	"go.uber.org/zap"
)

// Frame types.
const (
	TypeDigest = "digest"
	TypeEvent  = "event"
	TypeError  = "error"
)

// Error codes carried by TypeError frames.
const (
	CodeBadRequest           = "bad_request"
	CodeUnknownType          = "unknown_type"
	CodeInvalidInput         = "invalid_input"
	CodeUnsupportedAlgorithm = "unsupported_algorithm"
	CodeInternal             = "internal"
)

// Request is a client → server frame.
type Request struct {
	Type      string           `json:"type"`
	RequestID string           `json:"request_id,omitempty"`
	Algorithm domain.Algorithm `json:"algorithm,omitempty"`
	Input     *string          `json:"input"`
}

// Response is a server → client frame.
type Response struct {
	Type      string           `json:"type"`
	RequestID string           `json:"request_id,omitempty"`
	Algorithm domain.Algorithm `json:"algorithm,omitempty"`
	Hex       string           `json:"hex,omitempty"`
	Code      string           `json:"code,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type Server struct {
	upgrader      websocket.Upgrader
	svc           *usecase.DigestService
	messageBroker domain.MessageBroker
	hub           *Hub
}

func NewServer(svc *usecase.DigestService, messageBroker domain.MessageBroker) *Server {
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		svc:           svc,
		messageBroker: messageBroker,
		hub:           NewHub(),
	}
}

// Run starts the hub and, when a broker is configured, the digest event listener.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
	if s.messageBroker != nil {
		go s.listenDigestEvents(ctx)
	}
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// listenDigestEvents forwards every digest event to the device that caused it,
// or to all clients when no device is known.
func (s *Server) listenDigestEvents(ctx context.Context) {
	messageChan, err := s.messageBroker.Subscribe(ctx, domain.DigestTopic, "")
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to subscribe to digest topic", zap.Error(err))
		return
	}

	log.WithCtx(ctx).Info("🎧 WebSocket server listening to digest events")

	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				log.WithCtx(ctx).Info("🔒 Digest listener stopped, broker closed")
				return
			}

			var event domain.DigestEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.WithCtx(ctx).Error("❌ Failed to unmarshal digest event", zap.Error(err))
				continue
			}
			frame, err := json.Marshal(Response{
				Type:      TypeEvent,
				RequestID: event.RequestID,
				Algorithm: event.Algorithm,
				Hex:       event.Hex,
				Timestamp: event.Timestamp,
			})
			if err != nil {
				log.WithCtx(ctx).Error("❌ Failed to marshal WebSocket message", zap.Error(err))
				continue
			}

			// Events without a device come from unauthenticated callers and go to everyone.
			if event.DeviceID == "" {
				s.hub.Broadcast(frame)
				continue
			}
			if err := s.hub.SendToDevice(event.DeviceID, frame); err != nil {
				log.WithCtx(ctx).Debug("digest event not delivered", zap.String("device_id", event.DeviceID), zap.Error(err))
			}

		case <-ctx.Done():
			log.WithCtx(ctx).Info("🔒 Digest listener stopped")
			return
		}
	}
}

// handleMessage answers one client frame.
func (s *Server) handleMessage(ctx context.Context, raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return encode(ctx, errorResponse("", CodeBadRequest, "malformed JSON frame"))
	}
	if req.Type != TypeDigest {
		return encode(ctx, errorResponse(req.RequestID, CodeUnknownType, "unknown frame type "+req.Type))
	}
	if req.RequestID != "" {
		ctx = log.ContextWithRequestID(ctx, req.RequestID)
	}

	d, err := s.svc.ComputeText(ctx, req.Algorithm, req.Input)
	switch {
	case errors.Is(err, domain.ErrNilInput):
		return encode(ctx, errorResponse(req.RequestID, CodeInvalidInput, "input is required"))
	case errors.Is(err, domain.ErrUnsupportedAlgorithm):
		return encode(ctx, errorResponse(req.RequestID, CodeUnsupportedAlgorithm, err.Error()))
	case err != nil:
		log.WithCtx(ctx).Error("digest failed", zap.Error(err))
		return encode(ctx, errorResponse(req.RequestID, CodeInternal, "failed to compute digest"))
	}

	return encode(ctx, Response{
		Type:      TypeDigest,
		RequestID: req.RequestID,
		Algorithm: d.Algorithm,
		Hex:       d.Hex,
		Timestamp: time.Now().UTC(),
	})
}

func errorResponse(requestID, code, message string) Response {
	return Response{
		Type:      TypeError,
		RequestID: requestID,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func encode(ctx context.Context, resp Response) []byte {
	b, err := json.Marshal(resp)
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to marshal WebSocket message", zap.Error(err))
		return nil
	}
	return b
}
