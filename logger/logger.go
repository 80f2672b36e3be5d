// Package logger builds the zap logger of the application: human readable
// lines on stderr and JSON lines in a size rotated file.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config represents logger configuration.
type Config struct {
	Level      string `yaml:"level"` // debug, info, warn or error
	File       string `yaml:"file"`  // no file logging if empty
	MaxSizeMB  int64  `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default values.
const (
	DefaultLevel      = "warn"
	DefaultMaxSizeMB  = 5
	DefaultMaxBackups = 3
)

// New returns a logger writing to stderr and, if cfg.File is set, to a
// rotated file that records every level from debug. The returned closer
// flushes and closes the file.
func New(cfg Config, stderr io.Writer) (*zap.SugaredLogger, io.Closer, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level == "" {
		cfg.Level = DefaultLevel
	}
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, err
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.TimeKey = ""
	consoleCfg.CallerKey = ""
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(stderr), level),
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = DefaultMaxSizeMB
		}
		backups := cfg.MaxBackups
		if backups <= 0 {
			backups = DefaultMaxBackups
		}
		rotator := &Rotator{Filename: cfg.File, MaxSize: maxSize * 1024 * 1024, MaxBackups: backups}
		if err := rotator.openExistingOrNew(); err != nil {
			return nil, nil, err
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), rotator, zapcore.DebugLevel))
		closer = rotator
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar(), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
