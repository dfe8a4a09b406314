package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// SetupLogger installs the process-wide slog default used by stackgo: a JSON
// handler wrapped so cockroachdb error stack traces surface as a dedicated
// attribute.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToSlogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

// ToSlogLevel converts a level name to a slog.Level.
func ToSlogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	// ErrAttrKey is the attribute key carrying error values.
	ErrAttrKey = "error"
	// StacktraceAttrKey is the attribute key carrying extracted stack traces.
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps err so handlers can recognise and enrich it.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, fields...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, fields...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, fields...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.l.Error(msg, fields...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.l.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}

// slogProvider is the default LoggerProvider, backed by slog.Default.
type slogProvider struct {
	level slog.LevelVar
}

func (p *slogProvider) GetLogger() Logger {
	return &slogLogger{l: slog.Default()}
}

func (p *slogProvider) GetLoggerWithName(name string) Logger {
	return &slogLogger{l: slog.Default().With(ComponentKey, name)}
}

func (p *slogProvider) SetLevel(level Level) {
	p.level.Set(slog.Level(level))
}

var (
	providerMu sync.Mutex
	provider   atomic.Value // LoggerProvider
)

func init() {
	provider.Store(LoggerProvider(&slogProvider{}))
}

// SetProvider replaces the package-level LoggerProvider. Tests install a
// capture provider here.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider.Store(p)
}

// GetLogger returns the default logger from the current provider.
func GetLogger() Logger {
	return provider.Load().(LoggerProvider).GetLogger()
}

// GetLoggerWithName returns a component-tagged logger from the current
// provider.
func GetLoggerWithName(name string) Logger {
	return provider.Load().(LoggerProvider).GetLoggerWithName(name)
}
