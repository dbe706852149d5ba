package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log *zap.Logger
	mu  sync.Mutex
)

// Init initializes zap logger depending on the environment.
func Init(env string) {
	var cfg zap.Config

	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.LevelKey = "level"
		cfg.EncoderConfig.CallerKey = "caller"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}

	mu.Lock()
	log = l
	mu.Unlock()
}

// L returns the global logger.
func L() *zap.Logger {
	mu.Lock()
	l := log
	mu.Unlock()

	if l == nil {
		Init(os.Getenv("APP_ENV"))
		mu.Lock()
		l = log
		mu.Unlock()
	}
	return l
}

// Set replaces the global logger. Tests use it to install an observer core.
func Set(l *zap.Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
}

// Sync flushes logs.
func Sync() {
	mu.Lock()
	l := log
	mu.Unlock()

	if l != nil {
		_ = l.Sync()
	}
}
