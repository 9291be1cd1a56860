package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithConsumerID(ctx, "consumer-9")

	log.Error(ctx, "boom", errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v (%s)", err, buf.String())
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if entry["consumer_id"] != "consumer-9" {
		t.Fatalf("expected consumer_id to be preserved; entry=%s", buf.String())
	}
	if _, ok := entry["stack"]; !ok {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})
	log.Warn(context.Background(), "quiet")
	if bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("stack should be omitted when warn stack disabled")
	}

	buf.Reset()
	log = New(Options{ServiceName: "test", Output: buf, WarnStack: true})
	log.Warn(context.Background(), "loud")
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack when warn stack enabled")
	}
}

func TestLoggerDoesNotLeakFieldsAcrossContexts(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	base := context.Background()
	_ = log.WithVendorID(base, "vendor-1")
	log.Info(base, "plain")

	if bytes.Contains(buf.Bytes(), []byte("vendor_id")) {
		t.Fatalf("parent context should not carry child fields: %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestLoggerWithAccountPicksIDField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	log.Info(log.WithAccount(context.Background(), "vendor", "v-1"), "vendor call")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry[FieldVendorID] != "v-1" || entry[FieldActorRole] != "vendor" {
		t.Fatalf("unexpected vendor entry %s", buf.String())
	}
	if _, ok := entry[FieldConsumerID]; ok {
		t.Fatalf("vendor entry must not carry consumer_id: %s", buf.String())
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var log *Logger
	ctx := log.WithConsumerID(context.Background(), "c-1")
	if ctx == nil {
		t.Fatalf("expected context passthrough")
	}
	log.Info(ctx, "ignored")
	log.Error(ctx, "ignored", errors.New("x"))
}
