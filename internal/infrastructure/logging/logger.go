package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/area-labs/area-core/internal/infrastructure/config"
)

// serviceName is attached to every log line so aggregated streams can
// tell AREA Core apart from whatever shares the box.
const serviceName = "areacore"

// Logger wraps slog.Logger for structured, level-filtered logging with
// the service and version fields attached.
//
// Safe for concurrent use; With derives component sub-loggers without
// touching the parent.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section of config.yaml: JSON or
// text format, stdout or stderr, level filtering, and the default
// service/version fields.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// parseLevel maps a config string to a slog.Level. Unrecognised values
// (including empty) fall back to info rather than failing boot.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// With derives a Logger carrying extra default attributes. Used for
// component sub-loggers:
//
//	schedLog := logger.With("component", "scheduler")
//	schedLog.Info("job scheduled", "trigger", ref) // includes component=scheduler
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Default returns a JSON/info/stdout logger for the window before the
// config file has been loaded. cmd/areacore swaps it for a configured
// one as soon as config.Load succeeds.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
