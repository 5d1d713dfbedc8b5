package logger_test

import (
	"context"
	"testing"

	"github.com/goodvibesclub/vibeoff/pkg/logger"
)

func TestInitAndGet(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	l := logger.Get()
	if l == nil {
		t.Fatal("Get returned nil after Init")
	}

	ctx := context.Background()
	l.Info(ctx, "info message", logger.String("k", "v"))
	l.Debug(ctx, "debug message", logger.Int("n", 1))
	l.Warn(ctx, "warn message", logger.Float64("f", 1.5))
	l.Error(ctx, "error message", logger.Any("x", []int{1, 2}))
}

func TestNamed(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	named := logger.Named("votes")
	if named == nil {
		t.Fatal("Named returned nil")
	}
	named.Info(context.Background(), "named logger works")
}

func TestSetLevelString(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	for _, lvl := range []string{"debug", "info", "warn", "warning", "error", ""} {
		if err := logger.SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q) failed: %v", lvl, err)
		}
	}
	if err := logger.SetLevelString("bogus"); err == nil {
		t.Error("expected error for unknown level")
	}
}
