package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(newHandler(buf, &Config{
		ServiceName: "gootp",
		LogLevel:    "debug",
		MaskFields:  []string{"code", "New_Password"},
	}, nil))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return out
}

func TestLogging_MasksFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newTestLogger(buf)

	log.Info("request",
		"code", "123456",
		"body", `{"email":"a@x.com","new_password":"Secret123!"}`,
		slog.Group("req", slog.String("code", "654321")),
	)

	line := buf.String()
	for _, secret := range []string{"123456", "654321", "Secret123!"} {
		if strings.Contains(line, secret) {
			t.Fatalf("log line leaks %q: %s", secret, line)
		}
	}
	if !strings.Contains(line, "a@x.com") {
		t.Fatalf("log line lost unmasked data: %s", line)
	}
}

func TestLogging_MasksWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newTestLogger(buf).With("code", "123456")

	log.Info("issued")

	if strings.Contains(buf.String(), "123456") {
		t.Fatalf("log line leaks code: %s", buf.String())
	}
}

func TestLogging_CorrelationAndService(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newTestLogger(buf)

	ctx := SetCorrelationID(context.Background(), "cid-1")
	log.DebugContext(ctx, "hello")

	line := decodeLine(t, buf)
	if line["_cID"] != "cid-1" {
		t.Fatalf("_cID = %v", line["_cID"])
	}
	if line["service"] != "gootp" {
		t.Fatalf("service = %v", line["service"])
	}
	if line["severity"] != "DEBUG" {
		t.Fatalf("severity = %v", line["severity"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCorrelationID_Missing(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Fatalf("GetCorrelationID() = %q", got)
	}
}
