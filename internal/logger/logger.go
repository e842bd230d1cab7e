// Package logger writes the application log: a rotated file under the
// config directory, mirrored to the console in debug mode.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/elexam/internal/constants"
)

// Rotation limits of the log file.
const (
	maxSizeMB  = 5
	maxBackups = 5
	maxAgeDays = 30
)

// Logger is nil until Init succeeds; the package helpers are no-ops then.
var Logger *log.Logger

var sink *lumberjack.Logger

type Config struct {
	// Debug lowers the level to debug, adds caller info and mirrors
	// records to Console.
	Debug     bool
	ConfigDir string
	// Level is a charm log level name; empty means info.
	Level   string
	Console io.Writer
}

func Init(cfg Config) error {
	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if cfg.Debug {
		level = log.DebugLevel
	}

	dir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	Close()
	sink = &lumberjack.Logger{
		Filename:   filepath.Join(dir, constants.AppName+".log"),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	var out io.Writer = sink
	if cfg.Debug {
		console := cfg.Console
		if console == nil {
			console = os.Stderr
		}
		out = io.MultiWriter(console, sink)
	}

	Logger = log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          constants.AppName,
		ReportTimestamp: true,
		ReportCaller:    cfg.Debug,
	})
	return nil
}

// Close flushes and closes the log file. Later records are dropped.
func Close() {
	if sink != nil {
		sink.Close()
		sink = nil
	}
	Logger = nil
}

func Debug(msg string, keyvals ...any) { emit(log.DebugLevel, msg, keyvals) }
func Info(msg string, keyvals ...any)  { emit(log.InfoLevel, msg, keyvals) }
func Warn(msg string, keyvals ...any)  { emit(log.WarnLevel, msg, keyvals) }
func Error(msg string, keyvals ...any) { emit(log.ErrorLevel, msg, keyvals) }

func emit(level log.Level, msg string, keyvals []any) {
	if Logger == nil {
		return
	}
	Logger.Helper()
	Logger.Log(level, msg, keyvals...)
}
