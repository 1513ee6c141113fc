// Package log builds the zap loggers used across goshape.
//
// Library packages accept a *zap.Logger and default to a no-op logger; only
// the command decides where log entries go, through a Config.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a logger that writes to the output selected by cfg.
func New(cfg Config) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newWithSyncer(cfg, makeSyncer(cfg)), nil
}

// NewWithWriter creates a logger that writes to w regardless of cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) (*zap.Logger, error) {
	cfg.Output = OutputStdout
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newWithSyncer(cfg, zapcore.AddSync(w)), nil
}

// Logger returns the process-wide logger. It is a no-op logger until
// SetGlobal is called.
func Logger() *zap.Logger {
	return zap.L()
}

// SetGlobal replaces the process-wide logger and returns a function that restores the previous one.
func SetGlobal(logger *zap.Logger) func() {
	return zap.ReplaceGlobals(logger)
}

func newWithSyncer(cfg Config, ws zapcore.WriteSyncer) *zap.Logger {
	core := zapcore.NewCore(makeEncoder(cfg), ws, zapLevel(cfg.Level))

	var opts []zap.Option
	if cfg.AddCaller {
		opts = append(opts, zap.AddCaller())
	}
	opts = append(opts, zap.AddStacktrace(zapcore.DPanicLevel))
	return zap.New(core, opts...)
}

func makeSyncer(cfg Config) zapcore.WriteSyncer {
	switch cfg.Output {
	case OutputFile:
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	case OutputStderr:
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.Lock(os.Stdout)
}

func makeEncoder(cfg Config) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	if cfg.Format == FormatText {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelDebug:
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
