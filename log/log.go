package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gammadia/schedeval/flags"
	"github.com/spf13/viper"
)

// Base is a bare logger without attributes
var Base = slog.New(slog.NewTextHandler(os.Stderr, nil))

// logger is the command line logger with default attributes
var logger = Base

// level is the minimum level of Base, adjustable after Init
var level = new(slog.LevelVar)

// Init configures the loggers from the log flags. Logs go to stderr so that reports on
// stdout can be piped.
func Init() error {
	return InitWriter(os.Stderr)
}

func InitWriter(w io.Writer) error {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(viper.GetString(flags.LogLevel))); err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	level.Set(logLevel)
	options := slog.HandlerOptions{
		AddSource: viper.GetBool(flags.LogSource),
		Level:     level,
	}

	switch format := viper.GetString(flags.LogFormat); format {
	case "json":
		Base = slog.New(slog.NewJSONHandler(w, &options))
	case "text":
		Base = slog.New(slog.NewTextHandler(w, &options))
	default:
		return fmt.Errorf("unknown log format '%s'", format)
	}

	logger = Base.With("component", "cli")
	return nil
}

func Level() slog.Level {
	return level.Level()
}

// SetLevel changes the minimum level of every logger created by Init.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Proxies for slog.Logger methods

func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

func With(args ...any) *slog.Logger {
	return logger.With(args...)
}
