package logger

import (
	"testing"

	"github.com/mager/geetyatra/config"
	"go.uber.org/zap/zapcore"
)

func TestProvideLogger(t *testing.T) {
	l, err := ProvideLogger(config.Config{LogLevel: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	if !l.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level should be enabled")
	}
}

func TestProvideLoggerBadLevel(t *testing.T) {
	if _, err := ProvideLogger(config.Config{LogLevel: "loud"}); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestNewTestLogger(t *testing.T) {
	l, recorded := NewTestLogger()
	l.Infow("hello", "song", "Tum Hi Ho")

	entries := recorded.FilterMessage("hello").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["song"] != "Tum Hi Ho" {
		t.Errorf("wrong field: %v", entries[0].ContextMap())
	}
}
