package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want zapcore.Level
	}{
		{"dev default", Options{Env: "local"}, zapcore.DebugLevel},
		{"prod default", Options{Env: "prod"}, zapcore.InfoLevel},
		{"quiet", Options{Env: "local", Quiet: true}, zapcore.WarnLevel},
		{"explicit beats quiet", Options{Env: "prod", Level: "error", Quiet: true}, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.opts)
			if err != nil {
				t.Fatalf("NewLogger: %v", err)
			}
			if got := l.Level(); got != tt.want {
				t.Errorf("level = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewLogger_Errors(t *testing.T) {
	if _, err := NewLogger(Options{Env: "staging"}); err == nil {
		t.Error("expected error for unknown env")
	}
	if _, err := NewLogger(Options{Env: "local", Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFromContext_Nop(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected nop logger")
	}
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx, l := With(ctx, zap.String("run_id", "r1"))
	l.Info("a")
	FromContext(ctx).Info("b")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	for _, e := range entries {
		if e.ContextMap()["run_id"] != "r1" {
			t.Errorf("entry %q missing run_id: %v", e.Message, e.ContextMap())
		}
	}
}
