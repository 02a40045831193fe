package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

const (
	deviceVersionKey ctxKey = "device_version"
	deviceIDKey      ctxKey = "device_id"
	userIDKey        ctxKey = "user_id"
	requestIDKey     ctxKey = "request_id"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

// SetDebug switches between the development and production loggers.
func SetDebug(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// ContextWithDevice attaches the authenticated device identity to ctx.
func ContextWithDevice(ctx context.Context, userID int, deviceID, deviceVersion string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, deviceIDKey, deviceID)
	return context.WithValue(ctx, deviceVersionKey, deviceVersion)
}

// ContextWithRequestID attaches a request id to ctx.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// DeviceID returns the device id stored by ContextWithDevice, if any.
func DeviceID(ctx context.Context) string {
	v, _ := ctx.Value(deviceIDKey).(string)
	return v
}

// UserID returns the user id stored by ContextWithDevice, if any.
func UserID(ctx context.Context) int {
	v, _ := ctx.Value(userIDKey).(int)
	return v
}

// RequestID returns the request id stored by ContextWithRequestID, if any.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v := ctx.Value(deviceVersionKey); v != nil {
		fields = append(fields, zap.Any("device_version", v))
	}
	if v := ctx.Value(deviceIDKey); v != nil {
		fields = append(fields, zap.Any("device_id", v))
	}
	if v := ctx.Value(userIDKey); v != nil {
		fields = append(fields, zap.Any("user_id", v))
	}
	if v := ctx.Value(requestIDKey); v != nil {
		fields = append(fields, zap.Any("request_id", v))
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
