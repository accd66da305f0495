package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger, installed by Init/InitWithConfig. It
// starts as a plain JSON-to-stdout logger at INFO so library code can log
// before (or without) explicit initialization.
var Log = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// Config configures the logger's level, format, and output destination.
// It mirrors pkg/config.LogConfig field-for-field; the gdelt.Client facade
// converts between the two so this package stays free of config imports.
type Config struct {
	Level      string
	Format     string // json, text
	Output     string // stdout, stderr, file
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Init installs a basic JSON-to-stdout logger at the given level. Most
// callers should use InitWithConfig with the engine's resolved config
// instead.
func Init(level string) {
	InitWithConfig(Config{
		Level:  level,
		Format: "json",
		Output: "stdout",
	})
}

// InitWithConfig installs Log per cfg: DEBUG carries 404-absent-slot and
// schema-drift-suppressed-duplicate detail; WARN carries fallback
// transitions, per-row parse failures, and first-occurrence schema drift
// (see pkg/apperror for the severities that map to each level).
func InitWithConfig(cfg Config) {
	var lvl slog.Level
	switch cfg.Level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var writer io.Writer
	switch cfg.Output {
	case "stderr":
		writer = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			cfg.FilePath = "logs/gdelt-client.log"
		}
		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			writer = os.Stdout
		} else {
			writer = &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
		}
	default:
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	Log = slog.New(handler)
}

// WithContext returns a child logger with the given structured args attached.
func WithContext(ctx context.Context, args ...any) *slog.Logger {
	return Log.With(args...)
}

// WithRequestID attaches the per-Fetch correlation id (see pkg/gdelt) to
// every subsequent log line from the returned logger.
func WithRequestID(requestID string) *slog.Logger {
	return Log.With("request_id", requestID)
}

// WithSlot attaches a slot URL and record type, the two fields needed to
// correlate a file-source log line back to a specific 15-minute interval.
func WithSlot(recordType, slotURL string) *slog.Logger {
	return Log.With("record_type", recordType, "slot_url", slotURL)
}

// WithSource attaches the active source ("files", "warehouse", "rest") so
// fallback transitions are traceable across log lines.
func WithSource(source string) *slog.Logger {
	return Log.With("source", source)
}

func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Fatal logs an error-level message and terminates the process. Reserved
// for the CLI demo's top-level error handling; library code should never
// call this.
func Fatal(msg string, args ...any) {
	Log.Error(msg, args...)
	os.Exit(1)
}
