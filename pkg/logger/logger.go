// Package logger is a thin field-based facade over zap with context
// propagation and FocusGoal field helpers.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// ParseLevel is case-insensitive. Unknown names mean info.
func ParseLevel(s string) Level {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return LevelInfo
}

type Field = zap.Field

func String(key, value string) Field          { return zap.String(key, value) }
func Int(key string, value int) Field         { return zap.Int(key, value) }
func Int64(key string, value int64) Field     { return zap.Int64(key, value) }
func Float64(key string, value float64) Field { return zap.Float64(key, value) }
func Any(key string, value any) Field         { return zap.Any(key, value) }
func Err(err error) Field                     { return zap.Error(err) }

func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }

// Logger is safe for concurrent use. With and Named return children that
// share the parent's core.
type Logger struct {
	zl *zap.Logger
}

type Options struct {
	Output    io.Writer
	Level     Level
	Format    string // json or console
	AddCaller bool
}

func DefaultOptions() Options {
	return Options{Output: os.Stdout, Level: LevelInfo, Format: "json", AddCaller: true}
}

// New builds a zap core writing timestamp/level/message keys. Console format
// colors levels for local runs.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewJSONEncoder(enc)
	if strings.EqualFold(opts.Format, "console") {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), zap.NewAtomicLevelAt(opts.Level))

	zopts := []zap.Option{zap.AddStacktrace(zapcore.DPanicLevel)}
	if opts.AddCaller {
		zopts = append(zopts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return &Logger{zl: zap.New(core, zopts...)}
}

// FromZap adopts an existing zap logger, e.g. an observer core in tests.
func FromZap(zl *zap.Logger) *Logger { return &Logger{zl: zl} }

func Nop() *Logger { return &Logger{zl: zap.NewNop()} }

func (l *Logger) With(fields ...Field) *Logger { return &Logger{zl: l.zl.With(fields...)} }

func (l *Logger) Named(name string) *Logger { return &Logger{zl: l.zl.Named(name)} }

func (l *Logger) Sync() error { return l.zl.Sync() }

func (l *Logger) Debug(msg string, fields ...Field) { l.zl.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.zl.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.zl.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.zl.Error(msg, fields...) }

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT
// ══════════════════════════════════════════════════════════════════════════════

type ctxKey struct{}

var fallback = New(DefaultOptions())

func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request-scoped logger, or a stdout JSON logger
// when none was attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return fallback
}

const RequestIDKey = "request_id"

func (l *Logger) WithRequestID(id string) *Logger {
	return l.With(String(RequestIDKey, id))
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN FIELDS
// ══════════════════════════════════════════════════════════════════════════════

func UserID(id int64) Field         { return Int64("user_id", id) }
func GoalID(id int64) Field         { return Int64("goal_id", id) }
func HabitID(id int64) Field        { return Int64("habit_id", id) }
func XPAmount(xp int) Field         { return Int("xp_amount", xp) }
func Action(name string) Field      { return String("action", name) }
func Component(name string) Field   { return String("component", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
