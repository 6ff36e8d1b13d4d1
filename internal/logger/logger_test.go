package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestContextHandler_StampsRequestAndTenant(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithTenantID(ctx, "ten-456")
	log.InfoContext(ctx, "set created")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["request_id"] != "req-123" {
		t.Errorf("request_id = %v, want req-123", rec["request_id"])
	}
	if rec["tenant_id"] != "ten-456" {
		t.Errorf("tenant_id = %v, want ten-456", rec["tenant_id"])
	}
}

func TestContextHandler_BareContextAddsNothing(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("startup")

	if strings.Contains(buf.String(), "request_id") || strings.Contains(buf.String(), "tenant_id") {
		t.Fatalf("unexpected enrichment on bare context: %s", buf.String())
	}
}

func TestAsyncHandler_ClonesKeepTheirAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewAsyncHandler(slog.NewJSONHandler(&buf, nil), 16, 1)

	slog.New(h).With("component", "blob").Info("upload complete")
	h.Close() // waits for the drain worker; buf is safe to read after

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["component"] != "blob" {
		t.Errorf("component = %v, want blob", rec["component"])
	}
}

func TestAsyncHandler_DropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	h := NewAsyncHandler(blockingHandler{block}, 1, 1)

	rec := slog.Record{}
	for i := 0; i < 5; i++ {
		_ = h.Handle(context.Background(), rec)
	}
	if h.DroppedCount() == 0 {
		t.Error("expected drops on a full buffer")
	}
	close(block)
	h.Close()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// blockingHandler stalls until released so the async buffer fills up.
type blockingHandler struct {
	block chan struct{}
}

func (h blockingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h blockingHandler) Handle(context.Context, slog.Record) error { <-h.block; return nil }
func (h blockingHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h blockingHandler) WithGroup(string) slog.Handler             { return h }
