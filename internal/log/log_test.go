package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q expected %v, got %v", in, want, got)
		}
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: ComponentLedger})
	logger.Info("hello", FieldLedgerID, "abc")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentLedger || rec[FieldLedgerID] != "abc" {
		t.Fatalf("unexpected record %v", rec)
	}
	if logger.Component() != ComponentLedger {
		t.Fatalf("unexpected component %q", logger.Component())
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %q", buf.String())
	}
}

func TestNewContextCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf}).With(FieldRequestID, "req-1")

	ctx := NewContext(context.Background(), logger)
	FromContext(ctx).Info("inside")

	if FromContext(ctx) != logger || !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id missing from %q", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	sl.LogError(context.Background(), "boom", errors.New("bad"), OpAdd, nil)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldError] != "bad" || rec[FieldOperation] != OpAdd || rec["level"] != "ERROR" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestLogHTTPEndLevelFollowsStatus(t *testing.T) {
	for status, level := range map[int]string{200: "INFO", 409: "WARN", 500: "ERROR"} {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
		sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodPost, "/ledgers/x/expenses", nil), status, 3, "10.0.0.1")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec["level"] != level || rec[FieldSuccess] != (status < 400) || rec[FieldClientIP] != "10.0.0.1" {
			t.Errorf("status %d: unexpected record %v", status, rec)
		}
	}
}

func TestToSliceIsSorted(t *testing.T) {
	got := NewFields().WithSummary(2, 20000).WithOperation(OpAdd).ToSlice()
	want := []any{FieldCount, 2, FieldOperation, OpAdd, FieldTotalCents, int64(20000)}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
