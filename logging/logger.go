package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Verbose enables debug output with caller info.
func New(verbose bool) *zap.Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.DisableStacktrace = true
	}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	// Results go to stdout, diagnostics stay on stderr.
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return build(cfg)
}

// build falls back to a plain stderr console logger when cfg cannot be built.
func build(cfg zap.Config) *zap.Logger {
	logger, err := cfg.Build()
	if err == nil {
		return logger
	}
	fmt.Fprintln(os.Stderr, "logger setup failed, using stderr console:", err)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg.EncoderConfig), zapcore.Lock(os.Stderr), cfg.Level)
	return zap.New(core)
}
