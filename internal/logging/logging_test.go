package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerTo_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info")

	WithComponent(logger, "credentials").Info("key stored",
		"api_key", "AIzaSyExampleExampleExample1234",
		"token", "short",
		"session_id", "abc123def456")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}

	if entry["api_key"] != "AIza...1234" {
		t.Errorf("api_key = %v, want masked", entry["api_key"])
	}
	if entry["token"] != "****" {
		t.Errorf("token = %v, want ****", entry["token"])
	}
	if entry["session_id"] != "abc123def456" {
		t.Errorf("session_id = %v, want untouched", entry["session_id"])
	}
	if entry["component"] != "credentials" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestNewLoggerTo_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn")

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("unexpected output at warn level: %q", out)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "****"},
		{"12345678", "****"},
		{"123456789", "1234...6789"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory")
	}

	if got := SanitizePath(filepath.Join(home, ".reelsmith", "clips")); got != "~"+string(os.PathSeparator)+filepath.Join(".reelsmith", "clips") {
		t.Errorf("SanitizePath under home = %q", got)
	}
	if got := SanitizePath(home + "-other"); got != home+"-other" {
		t.Errorf("SanitizePath sibling dir = %q, want unchanged", got)
	}
	if got := SanitizePath("/var/tmp/x"); !strings.HasPrefix(home, "/var/tmp") && got != "/var/tmp/x" {
		t.Errorf("SanitizePath outside home = %q", got)
	}
}
