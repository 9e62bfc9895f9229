package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/palemoky/spelling-bee/internal/config"
)

// maxLogSize triggers rotation when a log file is opened.
const maxLogSize = 10 * 1024 * 1024

// New builds a zap logger from cfg. When cfg.File is set output goes to
// that file (rotated on open) instead of stderr.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.File != "" {
		if err := prepareFile(cfg.File); err != nil {
			return nil, err
		}
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}

	return zc.Build()
}

// NewFile builds a console-encoded logger that appends to
// <dir>/debug.log. Terminal clients use it since stderr belongs to the UI.
func NewFile(dir, level string) (*zap.Logger, string, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".spelling-bee")
	}

	path := filepath.Join(dir, "debug.log")
	log, err := New(config.LogConfig{Level: level, Format: "console", File: path})
	if err != nil {
		return nil, "", err
	}
	return log, path, nil
}

// prepareFile creates the parent directory and rotates path when it is
// larger than maxLogSize.
func prepareFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() <= maxLogSize {
		return nil
	}
	backup := fmt.Sprintf("%s.%d", path, time.Now().Unix())
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return nil
}

// LogPanic logs a recovered panic with its stack trace.
func LogPanic(log *zap.Logger, r any) {
	log.Error("panic recovered",
		zap.Any("panic", r),
		zap.ByteString("stack", debug.Stack()),
	)
}
