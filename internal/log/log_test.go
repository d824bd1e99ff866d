package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{
		Component: ComponentCoordinator,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.InfoContext(context.Background(), "Refreshed agreements", FieldAgreementsLen, 3)

	out := buf.String()
	if !strings.Contains(out, "component=coordinator") || !strings.Contains(out, "agreements=3") {
		t.Errorf("unexpected log line: %s", out)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf))
	ctx := context.Background()

	sl.LogAgreementCreated(ctx, "a1", "Ana", 15000, 4)
	sl.LogPaymentMarked(ctx, "a1")
	sl.LogError(ctx, "Refresh failed", errors.New("boom"), OpRefresh, nil)

	out := buf.String()
	for _, want := range []string{
		"agreement_id=a1", "client=Ana", "amount_cents=15000",
		"operation=mark_paid", "error=boom", "operation=refresh",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestMiddlewareAndFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	var got *Logger
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != l {
		t.Fatalf("FromContext() returned %p, want %p", got, l)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("FromContext without logger should fall back to default")
	}
}
