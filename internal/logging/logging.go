// Package logging builds the zap loggers nd passes to its packages.
//
// There is no global logger: the CLI builds one from the [log] section of
// notedir.toml and hands it to the workspace, which hands named children
// to the FSAL and the commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // console, json
	OutputPath string // "", "stderr", "stdout", or a file path
}

// ParseLevel maps a level name to a zap level. Empty means warn.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.WarnLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.WarnLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// New builds a logger. Output "" and "stderr" go to stderr, which lets
// the CLI and tests capture it.
func New(cfg Config, stderr io.Writer) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	enc, err := encoder(cfg.Format)
	if err != nil {
		return nil, err
	}

	var ws zapcore.WriteSyncer
	switch cfg.OutputPath {
	case "", "stderr":
		ws = zapcore.AddSync(stderr)
	case "stdout":
		ws = zapcore.Lock(os.Stdout)
	default:
		sink, _, err := zap.Open(cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("opening log output %q: %w", cfg.OutputPath, err)
		}
		ws = sink
	}

	core := zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(stderr))), nil
}

func encoder(format string) (zapcore.Encoder, error) {
	switch format {
	case "", "console":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg), nil
	case "json":
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// WithRequestID tags every entry of the returned logger with id.
func WithRequestID(l *zap.Logger, id string) *zap.Logger {
	return l.With(zap.String("request_id", id))
}
