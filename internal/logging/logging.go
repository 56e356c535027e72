// Package logging provides the structured logger used across the
// container orchestrator, index, and CLI. Its interface is shaped after
// Open Policy Agent's logging.Logger (fields-then-message, leveled
// methods), but is implemented on zap/lumberjack instead of logrus.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Level is a logging verbosity level. The values are offset so that Info
// is the zero value: a zero Config logs at Info.
type Level int

const (
	// Error level logs only failures that abort an operation.
	Error Level = iota - 2
	// Warn level additionally logs recoverable anomalies.
	Warn
	// Info level additionally logs lifecycle events (open/close/import).
	Info
	// Debug level additionally logs per-record operations.
	Debug
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case Error:
		return zapcore.ErrorLevel
	case Warn:
		return zapcore.WarnLevel
	case Debug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger is a structured, leveled logger. Fields are supplied as
// key/value pairs via WithFields and attached to every subsequent entry.
type Logger interface {
	Debug(fmt string, args ...interface{})
	Info(fmt string, args ...interface{})
	Warn(fmt string, args ...interface{})
	Error(fmt string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	GetLevel() Level
	SetLevel(level Level)
}

type zapLogger struct {
	sugar  *zap.SugaredLogger
	level  *zap.AtomicLevel
	fields map[string]interface{}
}

// Config controls where and how logs are written.
type Config struct {
	// Level is the initial verbosity.
	Level Level
	// FilePath, when non-empty, writes logs through a rotating file
	// (lumberjack) instead of stderr.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a Logger from cfg. With no FilePath it logs to stderr in a
// human-readable console encoding; with FilePath set it logs JSON through
// a size/age rotated file, suited to long-running CLI invocations over
// large containers.
func New(cfg Config) Logger {
	atom := zap.NewAtomicLevelAt(cfg.Level.zapLevel())

	var writer io.Writer = os.Stderr
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	if cfg.FilePath != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		}
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(writer), atom)
	logger := zap.New(core)
	return &zapLogger{sugar: logger.Sugar(), level: &atom}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (l *zapLogger) Debug(format string, args ...interface{}) { l.withFields().Debugf(format, args...) }
func (l *zapLogger) Info(format string, args ...interface{})  { l.withFields().Infof(format, args...) }
func (l *zapLogger) Warn(format string, args ...interface{})  { l.withFields().Warnf(format, args...) }
func (l *zapLogger) Error(format string, args ...interface{}) { l.withFields().Errorf(format, args...) }

func (l *zapLogger) withFields() *zap.SugaredLogger {
	if len(l.fields) == 0 {
		return l.sugar
	}
	kv := make([]interface{}, 0, len(l.fields)*2)
	for k, v := range l.fields {
		kv = append(kv, k, v)
	}
	return l.sugar.With(kv...)
}

func (l *zapLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &zapLogger{sugar: l.sugar, level: l.level, fields: merged}
}

func (l *zapLogger) GetLevel() Level {
	switch l.level.Level() {
	case zapcore.ErrorLevel:
		return Error
	case zapcore.WarnLevel:
		return Warn
	case zapcore.DebugLevel:
		return Debug
	default:
		return Info
	}
}

func (l *zapLogger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}
