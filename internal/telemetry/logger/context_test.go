package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)

	retrieved := FromContext(ctx)
	if retrieved == nil {
		t.Fatal("FromContext returned nil")
	}
	retrieved.Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestWithConnID(t *testing.T) {
	ctx := WithConnID(context.Background(), "01J0CONN")
	if got := ConnIDFromContext(ctx); got != "01J0CONN" {
		t.Errorf("ConnIDFromContext() = %q, want %q", got, "01J0CONN")
	}
	if got := ConnIDFromContext(context.Background()); got != "" {
		t.Errorf("ConnIDFromContext(empty) = %q, want empty", got)
	}
}

func TestL_AddsConnID(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithConnID(WithLogger(context.Background(), l), "01J0CONN")
	L(ctx).Info("hello")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if logEntry["conn_id"] != "01J0CONN" {
		t.Errorf("conn_id = %v, want 01J0CONN", logEntry["conn_id"])
	}
}

func TestL_WithoutConnID(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	L(WithLogger(context.Background(), l)).Info("hello")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if _, ok := logEntry["conn_id"]; ok {
		t.Error("conn_id present without one in context")
	}
}
