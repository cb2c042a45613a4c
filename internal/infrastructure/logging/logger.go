// Package logging provides structured logging infrastructure for the zebra
// application. It wraps Go's standard log/slog package with context-aware
// logging, correlation IDs, optional rotating file output, and
// domain-specific log attributes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// contextKey is used for storing logger-related values in context.
type contextKey string

const (
	// CorrelationIDKey is the context key for correlation IDs.
	CorrelationIDKey contextKey = "correlation_id"
	// CommandKey is the context key for the CLI command being executed.
	CommandKey contextKey = "command"
	// FrameKey is the context key for the frame uuid an operation acts on.
	FrameKey contextKey = "frame_uuid"
	// SyncOpKey is the context key for the sync operation in progress.
	SyncOpKey contextKey = "sync_op"
)

// Level represents log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format represents log output formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileConfig configures the rotating log file sink.
type FileConfig struct {
	Enabled    bool
	Path       string // log file location
	MaxSizeMB  int    // rotate after this size
	MaxBackups int    // rotated files to keep
	MaxAgeDays int    // prune rotated files older than this
}

// Config holds logging configuration.
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	File       FileConfig
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns sensible default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     os.Stderr,
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}
}

// Logger wraps slog.Logger with additional functionality for zebra.
type Logger struct {
	slogger *slog.Logger
	level   slog.Level
	mu      sync.RWMutex
}

// global is the package-level default logger.
var (
	global     *Logger
	globalOnce sync.Once
)

// Init initializes the global logger with the provided configuration.
func Init(cfg Config) *Logger {
	globalOnce.Do(func() {
		global = New(cfg)
	})
	return global
}

// Default returns the global logger, initializing it with defaults if necessary.
func Default() *Logger {
	if global == nil {
		Init(DefaultConfig())
	}
	return global
}

// New creates a new Logger with the provided configuration.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize time format
			if a.Key == slog.TimeKey && cfg.TimeFormat != "" {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.File.Enabled && cfg.File.Path != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
		}
		output = io.MultiWriter(output, rotating)
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		slogger: slog.New(handler),
		level:   level,
	}
}

// parseLevel converts a Level to slog.Level.
func parseLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel dynamically changes the log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = parseLevel(level)
}

// With returns a new Logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slogger: l.slogger.With(args...),
		level:   l.level,
	}
}

// WithGroup returns a new Logger with the given group name.
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		slogger: l.slogger.WithGroup(name),
		level:   l.level,
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// DebugContext logs at debug level with context.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// InfoContext logs at info level with context.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// WarnContext logs at warn level with context.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// ErrorContext logs at error level with context.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// enrichArgs extracts context values and adds them as log attributes.
func (l *Logger) enrichArgs(ctx context.Context, args []any) []any {
	enriched := make([]any, 0, len(args)+8)

	if v := ctx.Value(CorrelationIDKey); v != nil {
		enriched = append(enriched, "correlation_id", v)
	}
	if v := ctx.Value(CommandKey); v != nil {
		enriched = append(enriched, "command", v)
	}
	if v := ctx.Value(FrameKey); v != nil {
		enriched = append(enriched, "frame_uuid", v)
	}
	if v := ctx.Value(SyncOpKey); v != nil {
		enriched = append(enriched, "sync_op", v)
	}

	enriched = append(enriched, args...)
	return enriched
}

// Underlying returns the underlying slog.Logger.
func (l *Logger) Underlying() *slog.Logger {
	return l.slogger
}

// --- Context helpers ---

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// WithCommand adds the CLI command name to the context.
func WithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, CommandKey, name)
}

// WithFrame adds the frame uuid to the context.
func WithFrame(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, FrameKey, id)
}

// WithSyncOp adds the sync operation name to the context.
func WithSyncOp(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, SyncOpKey, op)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	if v := ctx.Value(CorrelationIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// --- Domain-specific logging helpers ---

// LogFrameStarted logs the opening of a new frame.
func LogFrameStarted(ctx context.Context, logger *Logger, frameUUID, activity string, start time.Time) {
	logger.InfoContext(ctx, "frame started",
		"frame_uuid", frameUUID,
		"activity", activity,
		"start_time", start.Format(time.RFC3339),
	)
}

// LogFrameStopped logs the closing of the current frame.
func LogFrameStopped(ctx context.Context, logger *Logger, frameUUID string, duration time.Duration) {
	logger.InfoContext(ctx, "frame stopped",
		"frame_uuid", frameUUID,
		"duration", duration.Round(time.Second).String(),
	)
}

// LogFrameCancelled logs a discarded frame.
func LogFrameCancelled(ctx context.Context, logger *Logger, frameUUID string) {
	logger.InfoContext(ctx, "frame cancelled",
		"frame_uuid", frameUUID,
	)
}

// LogSyncPushed logs one timesheet pushed to Zebra.
func LogSyncPushed(ctx context.Context, logger *Logger, uuid string, remoteID int64, created bool) {
	logger.InfoContext(ctx, "timesheet pushed",
		"timesheet_uuid", uuid,
		"remote_id", remoteID,
		"created", created,
	)
}

// LogSyncPulled logs one timesheet written from remote data.
func LogSyncPulled(ctx context.Context, logger *Logger, uuid string, remoteID int64) {
	logger.InfoContext(ctx, "timesheet pulled",
		"timesheet_uuid", uuid,
		"remote_id", remoteID,
	)
}

// LogSyncSkipped logs a record the sync pass left untouched and why.
func LogSyncSkipped(ctx context.Context, logger *Logger, uuid, reason string) {
	logger.InfoContext(ctx, "timesheet skipped",
		"timesheet_uuid", uuid,
		"reason", reason,
	)
}

// LogSyncWarning logs a per-record failure that did not stop the pass.
func LogSyncWarning(ctx context.Context, logger *Logger, uuid string, err error) {
	logger.WarnContext(ctx, "sync degraded for record",
		"timesheet_uuid", uuid,
		"error", err.Error(),
	)
}

// LogRemoteRequest logs an outgoing Zebra API call.
func LogRemoteRequest(ctx context.Context, logger *Logger, method, path string) {
	logger.DebugContext(ctx, "zebra request",
		"method", method,
		"path", path,
	)
}

// LogRemoteResponse logs a Zebra API response.
func LogRemoteResponse(ctx context.Context, logger *Logger, method, path string, status int, latency time.Duration) {
	logger.DebugContext(ctx, "zebra response",
		"method", method,
		"path", path,
		"status", status,
		"latency_ms", latency.Milliseconds(),
	)
}

// LogCacheRefreshed logs a completed reference data refresh.
func LogCacheRefreshed(ctx context.Context, logger *Logger, projects, activities, roles int) {
	logger.InfoContext(ctx, "reference cache refreshed",
		"projects", projects,
		"activities", activities,
		"roles", roles,
	)
}
