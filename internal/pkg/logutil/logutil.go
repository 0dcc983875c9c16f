package logutil

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	File      string `json:"file"`
	Level     string `json:"level"`
	FileCount int    `json:"file_count"`
	FileSize  int    `json:"file_size"`
	KeepDays  int    `json:"keep_days"`
	Console   bool   `json:"console"`
}

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init builds the process-wide logger. FileSize is in megabytes.
func Init(cfg LogConfig) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zapcore.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if cfg.File != "" {
		writer := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.FileSize,
			MaxBackups: cfg.FileCount,
			MaxAge:     cfg.KeepDays,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(writer), level))
	}
	if cfg.Console || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), level))
	}

	mu.Lock()
	global = zap.New(zapcore.NewTee(cores...))
	mu.Unlock()
}

type ctxKey struct{}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// GetLogger returns the logger bound to ctx, falling back to the global one.
func GetLogger(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && logger != nil {
			return logger
		}
	}
	mu.RLock()
	defer mu.RUnlock()
	return global
}
