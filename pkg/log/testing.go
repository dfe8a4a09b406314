package log

import (
	"context"
	"sync"
)

// Entry is one captured log record.
type Entry struct {
	Level   Level
	Message string
	Fields  []any
}

// CaptureLogger records log entries in memory for assertions in tests.
type CaptureLogger struct {
	mu      sync.Mutex
	entries []Entry
	with    []any
	level   Level
}

// NewCaptureLogger creates a capture logger accepting all levels.
func NewCaptureLogger() *CaptureLogger {
	return &CaptureLogger{level: LevelDebug}
}

func (c *CaptureLogger) record(level Level, msg string, fields ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := make([]any, 0, len(c.with)+len(fields))
	all = append(all, c.with...)
	all = append(all, fields...)
	c.entries = append(c.entries, Entry{Level: level, Message: msg, Fields: all})
}

func (c *CaptureLogger) Debug(msg string, fields ...any) { c.record(LevelDebug, msg, fields...) }
func (c *CaptureLogger) Info(msg string, fields ...any)  { c.record(LevelInfo, msg, fields...) }
func (c *CaptureLogger) Warn(msg string, fields ...any)  { c.record(LevelWarn, msg, fields...) }
func (c *CaptureLogger) Error(msg string, fields ...any) { c.record(LevelError, msg, fields...) }

func (c *CaptureLogger) With(fields ...any) Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	child := &CaptureLogger{level: c.level}
	child.with = append(append([]any{}, c.with...), fields...)
	// Children share the parent's entry slice through the parent pointer.
	child.entries = nil
	return &tee{parent: c, child: child}
}

func (c *CaptureLogger) Enabled(_ context.Context, level Level) bool {
	return level >= c.level
}

// Entries returns a copy of captured entries.
func (c *CaptureLogger) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Reset drops all captured entries.
func (c *CaptureLogger) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

// tee forwards records to the parent capture logger with the child's
// pre-populated fields.
type tee struct {
	parent *CaptureLogger
	child  *CaptureLogger
}

func (t *tee) Debug(msg string, fields ...any) {
	t.parent.record(LevelDebug, msg, append(t.child.with, fields...)...)
}

func (t *tee) Info(msg string, fields ...any) {
	t.parent.record(LevelInfo, msg, append(t.child.with, fields...)...)
}

func (t *tee) Warn(msg string, fields ...any) {
	t.parent.record(LevelWarn, msg, append(t.child.with, fields...)...)
}

func (t *tee) Error(msg string, fields ...any) {
	t.parent.record(LevelError, msg, append(t.child.with, fields...)...)
}

func (t *tee) With(fields ...any) Logger {
	child := &CaptureLogger{level: t.child.level}
	child.with = append(append([]any{}, t.child.with...), fields...)
	return &tee{parent: t.parent, child: child}
}

func (t *tee) Enabled(ctx context.Context, level Level) bool {
	return t.parent.Enabled(ctx, level)
}

// CaptureProvider is a LoggerProvider that hands out loggers recording into
// a single CaptureLogger.
type CaptureProvider struct {
	Root *CaptureLogger
}

// NewCaptureProvider creates a CaptureProvider with a fresh root logger.
func NewCaptureProvider() *CaptureProvider {
	return &CaptureProvider{Root: NewCaptureLogger()}
}

// GetLogger returns the root capture logger.
func (p *CaptureProvider) GetLogger() Logger { return p.Root }

// GetLoggerWithName returns a component-tagged capture logger.
func (p *CaptureProvider) GetLoggerWithName(name string) Logger {
	return p.Root.With(ComponentKey, name)
}

// SetLevel sets the minimum captured level.
func (p *CaptureProvider) SetLevel(level Level) { p.Root.level = level }
