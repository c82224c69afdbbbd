package log

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

// Logger is the zap-backed Log. Loggers derived through With share one
// atomic level, so SetLevel on any of them moves the whole family.
type Logger struct {
	core  *zap.Logger
	level zap.AtomicLevel
}

// Options tune NewWithOptions. The zero value gives sampled JSON on stderr.
type Options struct {
	Encoding    string // "json" or "console"
	OutputPaths []string
}

func (o Options) build(level zap.AtomicLevel) zap.Config {
	cfg := zap.Config{
		Level:            level,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
		// Per-frame messages repeat 30 times a second; keep the first
		// hundred of each per second and every hundredth after that.
		Sampling: &zap.SamplingConfig{Initial: 100, Thereafter: 100},
	}
	if o.Encoding == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if len(o.OutputPaths) > 0 {
		cfg.OutputPaths = o.OutputPaths
	}
	return cfg
}

func New(level Level) *Logger {
	return NewWithOptions(level, Options{})
}

// NewWithOptions panics when zap cannot open an output path.
func NewWithOptions(level Level, opts Options) *Logger {
	atomic := zap.NewAtomicLevelAt(zapLevels[clampLevel(level)])
	core, err := opts.build(atomic).Build()
	if err != nil {
		panic(err)
	}
	return &Logger{core: core, level: atomic}
}

// NewNop discards everything; meant for tests.
func NewNop() *Logger {
	return &Logger{core: zap.NewNop(), level: zap.NewAtomicLevel()}
}

func (l *Logger) Log(level Level, msg string, fields ...Field) {
	zl := zapLevels[clampLevel(level)]
	if ce := l.core.Check(zl, msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.Log(LevelDebug, msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.Log(LevelInfo, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.Log(LevelWarn, msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.Log(LevelError, msg, fields...) }

func (l *Logger) With(fields ...Field) Log {
	return &Logger{core: l.core.With(zapFields(fields)...), level: l.level}
}

// WithContext ignores ctx; nothing in the simulation carries request scope.
func (l *Logger) WithContext(context.Context) Log {
	return l
}

func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(zapLevels[clampLevel(level)])
}

func (l *Logger) GetLevel() Level {
	current := l.level.Level()
	for lvl, zl := range zapLevels {
		if zl == current {
			return Level(lvl)
		}
	}
	return LevelInfo
}

// Sync flushes buffered output.
func (l *Logger) Sync() error {
	return l.core.Sync()
}

// zapLevels is indexed by Level.
var zapLevels = [...]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
	LevelFatal: zapcore.FatalLevel,
}

func clampLevel(level Level) Level {
	if int(level) >= len(zapLevels) {
		return LevelInfo
	}
	return level
}

func zapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.zap())
	}
	return out
}

func (f Field) zap() zap.Field {
	switch v := f.Value.(type) {
	case bool:
		if f.Type == BoolType {
			return zap.Bool(f.Key, v)
		}
	case time.Duration:
		if f.Type == DurationType {
			return zap.Duration(f.Key, v)
		}
	case float64:
		if f.Type == Float64Type {
			return zap.Float64(f.Key, v)
		}
	case int:
		if f.Type == IntType {
			return zap.Int(f.Key, v)
		}
	case int64:
		if f.Type == Int64Type {
			return zap.Int64(f.Key, v)
		}
	case uint64:
		if f.Type == Uint64Type {
			return zap.Uint64(f.Key, v)
		}
	case string:
		if f.Type == StringType {
			return zap.String(f.Key, v)
		}
	case error:
		if f.Type == ErrorType {
			return zap.NamedError(f.Key, v)
		}
	}
	return zap.Any(f.Key, f.Value)
}
