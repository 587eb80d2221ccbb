package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Init initializes the logging subsystem.
func Init(cfg *Config) (*zap.SugaredLogger, zap.AtomicLevel, error) {
	var encoderConfig zapcore.EncoderConfig

	switch cfg.Format {
	case "", "console":
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		if term.IsTerminal(int(os.Stderr.Fd())) {
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	case "json":
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}

	encoding := cfg.Format
	if encoding == "" {
		encoding = "console"
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(cfg.Level),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger.Sugar(), config.Level, nil
}
