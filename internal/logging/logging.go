// Package logging provides the structured logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps a config string to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config controls where log lines go.
type Config struct {
	Level      Level
	File       string // empty means stderr only
	MaxSize    int    // MB per file before rotation
	MaxBackups int
	MaxAge     int // days
}

// Fields is a set of structured key/value pairs attached to one log line.
type Fields []zap.Field

func WithField(key string, value interface{}) Fields {
	return Fields{zap.Any(key, value)}
}

func WithFields(fields map[string]interface{}) Fields {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Fields, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

type Logger struct {
	z      *zap.Logger
	closer io.Closer
}

// New creates a logger writing JSON lines to stderr.
func New(level Level) *Logger {
	l, _ := NewWithConfig(Config{Level: level})
	return l
}

// NewWithConfig creates a logger, additionally writing to a rotated file when cfg.File is set.
func NewWithConfig(cfg Config) (*Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		output io.Writer = os.Stderr
		closer io.Closer
	)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		maxSize := cfg.MaxSize
		if maxSize <= 0 {
			maxSize = 64
		}
		maxBackups := cfg.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		maxAge := cfg.MaxAge
		if maxAge <= 0 {
			maxAge = 7
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
			Compress:   true,
		}
		closer = fileWriter
		output = io.MultiWriter(os.Stderr, fileWriter)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(output),
		cfg.Level.zapLevel(),
	)

	return &Logger{z: zap.New(core), closer: closer}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func (l *Logger) Debug(msg string, fields ...Fields) { l.z.Debug(msg, flatten(fields)...) }

func (l *Logger) Info(msg string, fields ...Fields) { l.z.Info(msg, flatten(fields)...) }

func (l *Logger) Warn(msg string, fields ...Fields) { l.z.Warn(msg, flatten(fields)...) }

func (l *Logger) Error(msg string, fields ...Fields) { l.z.Error(msg, flatten(fields)...) }

// With returns a child logger that adds fields to every line.
func (l *Logger) With(fields ...Fields) *Logger {
	return &Logger{z: l.z.With(flatten(fields)...), closer: l.closer}
}

// Sync flushes buffered output and closes the rotated file, if any.
func (l *Logger) Sync() error {
	_ = l.z.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func flatten(fields []Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	if len(fields) == 1 {
		return fields[0]
	}
	var out []zap.Field
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}
