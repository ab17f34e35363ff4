// Package logger wraps log/slog with configuration and credential masking.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ContextKey is the type used for logger-related context values.
type ContextKey string

// ContextKeyRequestID carries the request id through a request's context.
const ContextKeyRequestID ContextKey = "request_id"

// Logger wraps slog.Logger with additional functionality.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stdout,
	}
}

// sensitiveKeys contains attribute keys whose values are masked in logs.
var sensitiveKeys = map[string]bool{
	"password":              true,
	"secret":                true,
	"token":                 true,
	"authorization":         true,
	"api_key":               true,
	"personal_access_token": true,
	"dsn":                   true,
	"connection_string":     true,
}

// sanitizeAttr masks values for sensitive attribute keys.
func sanitizeAttr(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "***")
	}
	return a
}

// New creates a new Logger instance.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug,
		ReplaceAttr: sanitizeAttr,
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewDefault creates a Logger with default configuration.
func NewDefault() *Logger {
	return New(DefaultConfig())
}

// With returns a child logger with the given attributes attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
