package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(msg string)
	Infof(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type Config struct {
	Level     string   `yaml:"level"`
	Output    []string `yaml:"output"`
	ErrOutput []string `yaml:"errOutput"`
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func New(cfg Config) (Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level error: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	if len(cfg.Output) != 0 {
		zcfg.OutputPaths = cfg.Output
	}

	if len(cfg.ErrOutput) != 0 {
		zcfg.ErrorOutputPaths = cfg.ErrOutput
	}

	zl, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build logger error: %w", err)
	}

	return zapLogger{s: zl.Sugar()}, nil
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() Logger {
	return zapLogger{s: zap.NewNop().Sugar()}
}

func (zl zapLogger) Info(msg string) {
	zl.s.Info(msg)
}

func (zl zapLogger) Infof(format string, args ...interface{}) {
	zl.s.Infof(format, args...)
}

func (zl zapLogger) Error(msg string) {
	zl.s.Error(msg)
}

func (zl zapLogger) Errorf(format string, args ...interface{}) {
	zl.s.Errorf(format, args...)
}

func (zl zapLogger) Debugf(format string, args ...interface{}) {
	zl.s.Debugf(format, args...)
}
