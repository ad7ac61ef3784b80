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
	FromContext(ctx).Info("test message")

	if buf.Len() == 0 {
		t.Error("logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l != Default() {
		t.Error("FromContext() without a logger should return Default()")
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if RunIDFromContext(ctx) != "" || WorkloadFromContext(ctx) != "" {
		t.Error("empty context should carry no run ID or workload")
	}

	ctx = WithRunID(ctx, "01J9Z3")
	ctx = WithWorkload(ctx, "map-read")
	if got := RunIDFromContext(ctx); got != "01J9Z3" {
		t.Errorf("RunIDFromContext() = %q", got)
	}
	if got := WorkloadFromContext(ctx); got != "map-read" {
		t.Errorf("WorkloadFromContext() = %q", got)
	}
}

func TestL(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)
	ctx = WithRunID(ctx, "run-1")
	ctx = WithWorkload(ctx, "transact")
	L(ctx).Info("pass")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}
	if entry["run_id"] != "run-1" {
		t.Errorf("run_id = %v, want run-1", entry["run_id"])
	}
	if entry["workload"] != "transact" {
		t.Errorf("workload = %v, want transact", entry["workload"])
	}
}

func TestL_NoValues(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	L(WithLogger(context.Background(), l)).Info("pass")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}
	if _, ok := entry["run_id"]; ok {
		t.Error("run_id should be absent")
	}
}
