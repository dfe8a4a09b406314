package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	stackerrors "github.com/YuminosukeSato/stackgo/pkg/errors"
)

// zerologLogger adapts zerolog.Logger to the Logger interface.
type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) log(e *zerolog.Event, msg string, fields ...any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

func (z *zerologLogger) Debug(msg string, fields ...any) { z.log(z.l.Debug(), msg, fields...) }
func (z *zerologLogger) Info(msg string, fields ...any)  { z.log(z.l.Info(), msg, fields...) }
func (z *zerologLogger) Warn(msg string, fields ...any)  { z.log(z.l.Warn(), msg, fields...) }
func (z *zerologLogger) Error(msg string, fields ...any) { z.log(z.l.Error(), msg, fields...) }

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{l: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return z.l.GetLevel() <= toZerologLevel(level)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ZerologProvider is a LoggerProvider backed by zerolog.
type ZerologProvider struct {
	mu   sync.Mutex
	root zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON lines to w.
func NewZerologProvider(w io.Writer) *ZerologProvider {
	return &ZerologProvider{root: zerolog.New(w).With().Timestamp().Logger()}
}

// GetLogger returns the root logger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &zerologLogger{l: p.root}
}

// GetLoggerWithName returns a component-tagged logger.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &zerologLogger{l: p.root.With().Str(ComponentKey, name).Logger()}
}

// SetLevel sets the minimum level emitted by this provider.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = p.root.Level(toZerologLevel(level))
}

// InstallWarningBridge routes pkg/errors warnings through this provider so
// structured warnings (UndefinedMetricWarning and friends) appear in the
// benchmark log stream with their zerolog object fields.
func (p *ZerologProvider) InstallWarningBridge() {
	stackerrors.SetZerologWarnFunc(func(warning error) {
		p.mu.Lock()
		l := p.root
		p.mu.Unlock()

		ev := l.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.Object("warning", m)
		} else {
			ev = ev.AnErr("warning", warning)
		}
		ev.Msg("stackgo warning")
	})
}
