package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerWithFieldIsImmutable(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "INFO", JSONFormat: true})
	base.zl = base.zl.Output(&buf)

	derived := base.WithField("coin", "BTC")
	derived.Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["coin"] != "BTC" {
		t.Errorf("expected coin field on derived logger, got %v", entry)
	}

	buf.Reset()
	base.Info("base message")
	if strings.Contains(buf.String(), "coin") {
		t.Error("WithField mutated the base logger")
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if got := FromContext(context.Background()); got != Default() {
		t.Errorf("expected Default() when no logger in context, got %v", got)
	}
}

func TestNewContextRoundTrips(t *testing.T) {
	l := Default().WithComponent("test")
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext did not return the logger stored by NewContext")
	}
}
