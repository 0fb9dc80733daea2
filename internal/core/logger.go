// AngelaMos | 2026
// logger.go

package core

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/carterperez-dev/forum-api/internal/config"
)

// NewLogger builds the process logger. The returned closer flushes and
// closes the rotating file sink when one is configured.
func NewLogger(cfg config.LogConfig) (*slog.Logger, func() error) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out io.Writer = os.Stdout
	closer := func() error { return nil }

	if cfg.File.Enabled && cfg.File.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File.Filename,
			MaxSize:    max(1, cfg.File.MaxSizeMB),
			MaxBackups: max(0, cfg.File.MaxBackups),
			MaxAge:     max(0, cfg.File.MaxAgeDays),
			Compress:   cfg.File.Compress,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closer = rotator.Close
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closer
}
