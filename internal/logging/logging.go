// Package logging builds the agent's JSON slog loggers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Attribute keys whose values never reach the log verbatim.
var secretKeys = map[string]bool{
	"api_key":       true,
	"auth_token":    true,
	"authorization": true,
	"token":         true,
}

// ParseLevel maps debug, info, warn and error to a slog level. Anything else
// is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates the stdout JSON logger.
func NewLogger(level string) *slog.Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo is NewLogger writing to w. Secret attributes are masked with
// SanitizeToken and source locations are added at debug level.
func NewLoggerTo(w io.Writer, level string) *slog.Logger {
	lvl := ParseLevel(level)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl == slog.LevelDebug,
		ReplaceAttr: redactSecrets,
	}))
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, SanitizeToken(a.Value.String()))
	}
	return a
}

func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

func WithJobID(logger *slog.Logger, jobID string) *slog.Logger {
	return logger.With("job_id", jobID)
}

func WithSessionID(logger *slog.Logger, sessionID string) *slog.Logger {
	return logger.With("session_id", sessionID)
}

// SanitizeToken keeps the first and last 4 characters of a secret.
func SanitizeToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizePath replaces the home directory prefix with ~.
func SanitizePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if rest, ok := strings.CutPrefix(path, home); ok && (rest == "" || strings.HasPrefix(rest, string(os.PathSeparator))) {
		return "~" + rest
	}
	return path
}
