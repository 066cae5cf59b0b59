// Package logger provides the process-wide structured logger for CoreVault.
//
// It wraps log/slog behind a small global API so every package logs through
// the same configured sink without threading a *slog.Logger through every
// constructor. Level and format can be reconfigured at runtime (tests flip
// format to capture output; the CLI flips it from config).
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Level mirrors slog.Level but keeps callers from importing log/slog directly.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures the global logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var (
	levelVar  = new(slog.LevelVar)
	formatVal atomic.Value // string: "text" | "json"

	mu     sync.RWMutex
	sink   io.Writer = os.Stdout
	color  bool
	logger *slog.Logger
)

func init() {
	formatVal.Store("text")
	color = isTerminal(os.Stdout)
	rebuild()
}

// Init applies a Config to the global logger. Safe to call more than once.
func Init(cfg Config) error {
	mu.Lock()
	if cfg.Output != "" {
		switch strings.ToLower(cfg.Output) {
		case "stdout":
			sink, color = os.Stdout, isTerminal(os.Stdout)
		case "stderr":
			sink, color = os.Stderr, isTerminal(os.Stderr)
		default:
			f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				mu.Unlock()
				return fmt.Errorf("logger: open output %q: %w", cfg.Output, err)
			}
			sink, color = f, false
		}
	}
	if cfg.Format != "" {
		formatVal.Store(strings.ToLower(cfg.Format))
	}
	mu.Unlock()

	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	rebuild()
	return nil
}

// SetLevel changes the minimum emitted level at runtime.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

func rebuild() {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{Level: levelVar}

	format, _ := formatVal.Load().(string)
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(sink, opts)
	} else {
		handler = newTextHandler(sink, opts, color)
	}
	logger = slog.New(handler)
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug, Info, Warn, Error log a message with key/value attrs.
func Debug(msg string, attrs ...slog.Attr) { current().LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...) }
func Info(msg string, attrs ...slog.Attr)  { current().LogAttrs(context.Background(), slog.LevelInfo, msg, attrs...) }
func Warn(msg string, attrs ...slog.Attr)  { current().LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...) }
func Error(msg string, attrs ...slog.Attr) { current().LogAttrs(context.Background(), slog.LevelError, msg, attrs...) }

// SecurityAlert logs a WARN-level line tagged so alerting pipelines (out of
// scope here, see spec.md §1) can filter on KeyAlert without parsing message
// text. Used for blocked-extension uploads and similar policy trips.
func SecurityAlert(msg string, attrs ...slog.Attr) {
	attrs = append([]slog.Attr{slog.Bool(KeyAlert, true)}, attrs...)
	current().LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}

// WithContext returns the current logger with attrs attached, for call sites
// that want per-request structured fields without threading attrs through
// every call. ctx is not read: no trace or span attrs are added from it.
func WithContext(ctx context.Context, attrs ...slog.Attr) *slog.Logger {
	l := current()
	if len(attrs) == 0 {
		return l
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return l.With(args...)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
