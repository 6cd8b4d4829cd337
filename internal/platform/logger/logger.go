package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level and encoding.  Level is any zap level name;
// Format is "json" (default) or "console".
type Config struct {
	Level  string
	Format string
}

// New builds the process logger.  Debug level switches to zap's
// development preset.
func New(cfg Config) (*zap.Logger, error) {
	level := strings.ToLower(strings.TrimSpace(cfg.Level))
	if level == "" {
		level = "info"
	}

	var zc zap.Config
	if level == "debug" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if err := zc.Level.UnmarshalText([]byte(level)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL %q, using info\n", cfg.Level)
		zc.Level.SetLevel(zapcore.InfoLevel)
	}

	switch strings.ToLower(cfg.Format) {
	case "console", "text":
		zc.Encoding = "console"
	case "json":
		zc.Encoding = "json"
	}

	return zc.Build()
}

// Must is New for main packages.  It falls back to zap's production
// logger when the configuration cannot be built.
func Must(cfg Config) *zap.Logger {
	l, err := New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		l, _ = zap.NewProduction()
	}
	return l
}
