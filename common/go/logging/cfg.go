package logging

import "go.uber.org/zap/zapcore"

// Config is the configuration for the logging subsystem.
type Config struct {
	// Level is the logging level.
	Level zapcore.Level `yaml:"level"`
	// Format is the log encoding, either "console" or "json".
	Format string `yaml:"format"`
	// OutputPaths are the sinks the log is written to, "stderr" by default.
	OutputPaths []string `yaml:"output_paths"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:       zapcore.InfoLevel,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	}
}
