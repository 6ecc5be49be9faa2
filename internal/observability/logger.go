// Package observability builds the process logger.
package observability

import (
	"os"

	"github.com/cryguy/webview/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds a logger writing to console in the configured format
// and, when cfg.LogFile is set, JSON lines to a rotated file.
func NewLogger(cfg config.LoggerConfig, console zapcore.WriteSyncer) *zap.Logger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder(cfg.Format), console, level)}
	if cfg.LogFile != "" {
		// lumberjack handles rotation and is safe for concurrent writes.
		file := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(encoder("json"), file, level))
	}

	opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller())
	}
	log := zap.New(zapcore.NewTee(cores...), opts...)
	if cfg.ServiceName != "" {
		log = log.Named(cfg.ServiceName)
	}
	return log
}

// NewStderrLogger is NewLogger writing its console output to stderr, so
// stdout stays free for command results.
func NewStderrLogger(cfg config.LoggerConfig) *zap.Logger {
	return NewLogger(cfg, zapcore.Lock(os.Stderr))
}

func encoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(ec)
}
