package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf})

	l.With(String("product", "s1a-iw-slc")).Warn(context.Background(), "singular jacobian",
		Int("iteration", 3), Float("residual_px", 0.25), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "singular jacobian" || rec["level"] != "WARN" {
		t.Fatalf("unexpected record %v", rec)
	}
	if rec["product"] != "s1a-iw-slc" || rec["iteration"] != float64(3) || rec["error"] != "boom" {
		t.Fatalf("fields missing from %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	l.Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	l.Error(context.Background(), "kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("error not logged: %q", buf.String())
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SARGEO_LOG_LEVEL", "debug")
	t.Setenv("SARGEO_LOG_FORMAT", "json")
	t.Setenv("SARGEO_LOG_SOURCE", "TRUE")
	cfg := ConfigFromEnv()
	if cfg.Level != "debug" || cfg.Format != "json" || !cfg.AddSource {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestWithProductLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx := ContextWithProduct(context.Background(), "grd-42")
	ctx, l := WithProductLogger(ctx, base)
	if LoggerFromContext(ctx) != l {
		t.Fatalf("logger not stored on context")
	}
	ctx2, id := EnsureRunID(ctx)
	if ctx2 != ctx || id == "" {
		t.Fatalf("run id should already be present")
	}

	l.Info(ctx, "hello")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["product"] != "grd-42" || rec["run_id"] != id {
		t.Fatalf("annotations missing: %v", rec)
	}
}

func TestLoggerFromContextFallsBackToNoop(t *testing.T) {
	l := LoggerFromContext(context.Background())
	if l == nil {
		t.Fatalf("expected noop logger")
	}
	l.Error(context.Background(), "ignored")
}
