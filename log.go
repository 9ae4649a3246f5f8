package bullet

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig selects the logger built by NewLogger.
type LogConfig struct {
	// debug, info, warn or error
	Level string `yaml:"level"`
	// json or console
	Encoding    string `yaml:"encoding"`
	Development bool   `yaml:"development"`
}

func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "warn", Encoding: "console"}
}

func (c LogConfig) zapLevel() (zapcore.Level, error) {
	if c.Level == "" {
		return zap.WarnLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return level, fmt.Errorf("log level %q: %w", c.Level, ErrInvalidConfig)
	}
	return level, nil
}

// NewLogger builds a zap logger writing to stderr.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := cfg.zapLevel()
	if err != nil {
		return nil, err
	}
	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "console"
	}
	if encoding != "json" && encoding != "console" {
		return nil, fmt.Errorf("log encoding %q: %w", encoding, ErrInvalidConfig)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: cfg.Development,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    !cfg.Development,
	}
	return config.Build()
}
