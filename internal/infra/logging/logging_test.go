package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %v, got %v", in, want, got)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Module(NewWithWriter(&buf, "json", slog.LevelInfo), "gate", "usecase")
	logger.Debug("hidden")
	logger.Info("authorization rejected", slog.String("reason", "account_banned"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d", len(lines))
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["module"] != "gate" || record["layer"] != "usecase" || record["reason"] != "account_banned" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNew_FileOutput(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "gatekeeper.log")
	logger, closer, err := New(cfg)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestContextHandler_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "json", slog.LevelInfo)
	ctx := WithRequestID(context.Background(), "req-123")
	logger.InfoContext(ctx, "authorization rejected")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["request_id"] != "req-123" {
		t.Fatalf("expected request_id, got %v", record)
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Fatalf("expected empty request id on bare context")
	}
}
