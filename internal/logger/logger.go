package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures NewLogger.
type Options struct {
	// Env selects the encoder: prod writes JSON, local/dev/docker write colored console output.
	Env string
	// Level overrides the environment default: debug, info, warn, error.
	Level string
	// Quiet raises the default level to warn. An explicit Level wins.
	Quiet bool
}

// NewLogger creates a zap logger. Output goes to stderr so that stdout stays
// free for command output (progress lines, JSON summaries).
func NewLogger(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch opts.Env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", opts.Env)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	switch {
	case opts.Level != "":
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	case opts.Quiet:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.With(zap.String("env", opts.Env)), nil
}
