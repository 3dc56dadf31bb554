// Package logging provides structured logging for todone.
// It uses zerolog with context fields and rotates log files via lumberjack.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a log level.
type Level = zerolog.Level

// Log levels for convenience.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level Level

	// JSON selects JSON console output instead of the pretty console writer
	JSON bool

	// FilePath is the path to the log file (empty for console only)
	FilePath string

	// MaxSize is the maximum size in megabytes before rotation
	MaxSize int

	// MaxBackups is the maximum number of old log files to retain
	MaxBackups int

	// MaxAge is the maximum number of days to retain old log files
	MaxAge int

	// Compress enables gzip compression of rotated files
	Compress bool

	// Console enables console output in addition to file output
	Console bool
}

// DefaultConfig returns the default logging configuration: warnings and
// above, pretty-printed to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:      WarnLevel,
		JSON:       false,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	}
}

// Logger wraps zerolog.Logger with the context todone attaches to events.
type Logger struct {
	zl      zerolog.Logger
	command string
	entity  string
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
	loggerMu     sync.RWMutex
)

// Init initializes the global logger with the given configuration.
// If config is nil, defaults are used.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var writers []io.Writer

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	if cfg.Console || cfg.FilePath == "" {
		if cfg.JSON {
			writers = append(writers, os.Stderr)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: time.RFC3339,
			})
		}
	}

	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = zerolog.MultiLevelWriter(writers...)
	}

	l := New(output, cfg.Level)

	loggerMu.Lock()
	globalLogger = l
	loggerMu.Unlock()

	return nil
}

// New returns a standalone logger writing JSON to w.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		zl: zerolog.New(w).
			Level(level).
			With().
			Timestamp().
			Logger(),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Get returns the global logger, initializing with defaults if needed.
func Get() *Logger {
	loggerOnce.Do(func() {
		loggerMu.RLock()
		initialized := globalLogger != nil
		loggerMu.RUnlock()
		if !initialized {
			_ = Init(nil)
		}
	})

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

func (l *Logger) derive(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl, command: l.command, entity: l.entity}
}

// WithCommand returns a new logger with the command field set.
func (l *Logger) WithCommand(command string) *Logger {
	next := l.derive(l.zl.With().Str("command", command).Logger())
	next.command = command
	return next
}

// WithEntity returns a new logger tagged with an entity kind and record id.
func (l *Logger) WithEntity(entity, id string) *Logger {
	ctx := l.zl.With().Str("entity", entity)
	if id != "" {
		ctx = ctx.Str("id", id)
	}
	next := l.derive(ctx.Logger())
	next.entity = entity
	return next
}

// WithField returns a new logger with an additional field.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.zl.With().Interface(key, value).Logger())
}

// WithFields returns a new logger with additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return l.derive(ctx.Logger())
}

// WithError returns a new logger with the error field set.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err).Logger())
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string) {
	l.zl.Error().Msg(msg)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}

// ParseLevel parses a level string into a Level.
func ParseLevel(level string) (Level, error) {
	return zerolog.ParseLevel(level)
}

// Warnf logs a formatted warning message using the global logger.
func Warnf(format string, args ...any) {
	Get().Warnf(format, args...)
}

// WithCommand returns a new global logger with command set.
func WithCommand(command string) *Logger {
	return Get().WithCommand(command)
}

// WithField returns a new global logger with an additional field.
func WithField(key string, value any) *Logger {
	return Get().WithField(key, value)
}

// WithError returns a new global logger with the error set.
func WithError(err error) *Logger {
	return Get().WithError(err)
}

// Options mirrors the logging section of the config file.
type Options struct {
	Level      string
	FilePath   string
	JSON       bool
	Console    bool
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// InitFromOptions initializes the global logger from config file options.
func InitFromOptions(o Options) error {
	cfg := DefaultConfig()

	if o.Level != "" {
		level, err := ParseLevel(o.Level)
		if err != nil {
			return err
		}
		cfg.Level = level
	}

	cfg.FilePath = o.FilePath
	cfg.JSON = o.JSON
	cfg.Console = o.Console

	if o.MaxSize > 0 {
		cfg.MaxSize = o.MaxSize
	}
	if o.MaxBackups > 0 {
		cfg.MaxBackups = o.MaxBackups
	}
	if o.MaxAge > 0 {
		cfg.MaxAge = o.MaxAge
	}
	cfg.Compress = o.Compress

	return Init(cfg)
}
