package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithFields_SortedKeys(t *testing.T) {
	fields := WithFields(map[string]interface{}{
		"feed":  "https://example.com/rss",
		"count": 3,
		"error": "boom",
	})

	if len(fields) != 3 {
		t.Fatalf("WithFields() returned %d fields, want 3", len(fields))
	}
	want := []string{"count", "error", "feed"}
	for i, f := range fields {
		if f.Key != want[i] {
			t.Errorf("fields[%d].Key = %q, want %q", i, f.Key, want[i])
		}
	}
}

func TestNewWithConfig_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "newsfeed.log")

	logger, err := NewWithConfig(Config{Level: LevelDebug, File: path})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	logger.Info("Fetched feed", WithField("feed", "https://example.com/rss"))
	logger.Debug("Cache miss")
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Fetched feed") || !strings.Contains(out, "https://example.com/rss") {
		t.Errorf("log file missing info line: %s", out)
	}
	if !strings.Contains(out, "Cache miss") {
		t.Errorf("log file missing debug line: %s", out)
	}
}

func TestNewWithConfig_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsfeed.log")

	logger, err := NewWithConfig(Config{Level: LevelWarn, File: path})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}
	logger.Info("should be dropped")
	logger.Warn("should be kept")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "should be dropped") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(string(data), "should be kept") {
		t.Error("warn line missing at warn level")
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Error("nothing happens", WithField("k", "v"))
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}
