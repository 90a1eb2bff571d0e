package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		t.Run(env, func(t *testing.T) {
			l, err := NewLogger(env)
			if err != nil {
				t.Fatalf("NewLogger(%q): %v", env, err)
			}
			if l == nil {
				t.Fatal("expected logger")
			}
		})
	}
}

func TestNewLogger_UnknownEnv(t *testing.T) {
	if _, err := NewLogger("staging"); err == nil {
		t.Fatal("expected error for unknown env")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "warn")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}

	if _, err := NewLogger("prod", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNewCLILogger_Verbose(t *testing.T) {
	quiet, err := NewCLILogger(false)
	if err != nil {
		t.Fatalf("NewCLILogger: %v", err)
	}
	if quiet.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be off without verbose")
	}

	loud, err := NewCLILogger(true)
	if err != nil {
		t.Fatalf("NewCLILogger: %v", err)
	}
	if !loud.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be on with verbose")
	}
}

func TestFromContext_NopWhenMissing(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil {
		t.Fatal("expected nop logger")
	}
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("nop logger should not be enabled")
	}
}

func TestWith_FieldsInherited(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx, _ = With(ctx, zap.String("batch_id", "b1"))
	FromContext(ctx).Info("query done", zap.String("query", "asv_1"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["batch_id"] != "b1" || fields["query"] != "asv_1" {
		t.Errorf("unexpected fields: %v", fields)
	}
}
