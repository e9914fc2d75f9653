package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextRoundTrip(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx := ContextWithLogger(context.Background(), logger)
	FromContext(ctx).Info("request handled")

	if observed.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", observed.Len())
	}
	if observed.All()[0].Message != "request handled" {
		t.Errorf("message = %q", observed.All()[0].Message)
	}
}

func TestFromContext_MissingLoggerIsNop(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("expected a usable logger, got nil")
	}
	// Must be safe to log into.
	logger.Info("dropped")
}
