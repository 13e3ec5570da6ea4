package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitWithoutOutputIsSilent(t *testing.T) {
	if err := Init(Config{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if logger().Core().Enabled(zap.ErrorLevel) {
		t.Fatalf("expected no-op logger when no output path is configured")
	}
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "millr.log")
	if err := Init(Config{Level: "debug", Format: "json", OutputPath: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { Use(nil) })

	Info("listing loaded", String("path", "/tmp/x"), Int("entries", 3))
	_ = Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"path":"/tmp/x"`) {
		t.Fatalf("expected structured field in log output, got %q", data)
	}
}

func TestHelpersUseInstalledLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Use(zap.New(core))
	t.Cleanup(func() { Use(nil) })

	Warn("worker pool capped", Int("workers", 64))
	Debug("load coalesced", Uint64("token", 7))

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["workers"]; got != int64(64) {
		t.Fatalf("expected workers field 64, got %v", got)
	}
}
