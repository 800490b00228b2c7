// Package logger configures the zerolog logger used by the command line.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level" yaml:"level"`    // debug, info, warn, error
	Format string `json:"format" mapstructure:"format" yaml:"format"` // console, json
	File   string `json:"file" mapstructure:"file" yaml:"file"`       // empty means stderr only
}

var (
	global      zerolog.Logger
	logFile     *os.File
	mu          sync.RWMutex
	initialized bool
)

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init replaces the global logger. Output goes to stderr and, when File is
// set, to that file as well.
func Init(cfg LogConfig) error {
	return InitTo(os.Stderr, cfg)
}

// InitTo is Init with an explicit console writer.
func InitTo(out io.Writer, cfg LogConfig) error {
	mu.Lock()
	defer mu.Unlock()

	level := parseLevel(cfg.Level)

	writers := make([]io.Writer, 0, 2)
	if strings.EqualFold(cfg.Format, "console") {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02T15:04:05-07:00",
		})
	} else {
		writers = append(writers, out)
	}

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", cfg.File, err)
		}
		logFile = f
		writers = append(writers, f)
	}

	output := writers[0]
	if len(writers) > 1 {
		output = io.MultiWriter(writers...)
	}

	global = zerolog.New(output).Level(level).With().Timestamp().Logger()
	initialized = true
	return nil
}

// Get returns the global logger. Before Init it logs info and above to
// stderr.
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !initialized {
		l := zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
		return &l
	}
	l := global
	return &l
}

// Close closes the log file if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}
