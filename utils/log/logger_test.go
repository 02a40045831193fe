package log

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCtxAddsDeviceFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := logger
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	ctx := ContextWithDevice(context.Background(), 7, "dev-1", "0.2.0")
	ctx = ContextWithRequestID(ctx, "req-9")
	WithCtx(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["device_id"] != "dev-1" {
		t.Fatalf("device_id = %v", fields["device_id"])
	}
	if fields["request_id"] != "req-9" {
		t.Fatalf("request_id = %v", fields["request_id"])
	}
	if fields["device_version"] != "0.2.0" {
		t.Fatalf("device_version = %v", fields["device_version"])
	}
}

func TestSetDebug(t *testing.T) {
	prev := logger
	defer SetLogger(prev)

	if err := SetDebug(true); err != nil {
		t.Fatalf("SetDebug(true) error = %v", err)
	}
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Fatal("debug level disabled after SetDebug(true)")
	}

	if err := SetDebug(false); err != nil {
		t.Fatalf("SetDebug(false) error = %v", err)
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		t.Fatal("debug level enabled after SetDebug(false)")
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	if DeviceID(ctx) != "" || UserID(ctx) != 0 || RequestID(ctx) != "" {
		t.Fatal("expected zero values on empty context")
	}

	ctx = ContextWithDevice(ctx, 42, "esp32", "1.0.0")
	ctx = ContextWithRequestID(ctx, "abc")
	if got := DeviceID(ctx); got != "esp32" {
		t.Fatalf("DeviceID = %q", got)
	}
	if got := UserID(ctx); got != 42 {
		t.Fatalf("UserID = %d", got)
	}
	if got := RequestID(ctx); got != "abc" {
		t.Fatalf("RequestID = %q", got)
	}
}
