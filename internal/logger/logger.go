package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "protexwear-api"

var (
	log   *zap.Logger
	level = zap.NewAtomicLevel()
)

// Init builds the global logger for env. LOG_LEVEL overrides the default
// level (info in production, debug elsewhere).
func Init(env string) {
	cfg := configFor(env)

	lvl := cfg.Level.Level()
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := lvl.UnmarshalText([]byte(raw)); err != nil {
			lvl = cfg.Level.Level()
		}
	}
	level.SetLevel(lvl)
	cfg.Level = level

	built, err := cfg.Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}
	log = built.With(zap.String("service", serviceName), zap.String("env", env))
}

func configFor(env string) zap.Config {
	if env != "production" {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}
	return cfg
}

// Level reports the active minimum level.
func Level() zapcore.Level {
	return level.Level()
}

// L returns the global logger, initialising it lazily from APP_ENV.
func L() *zap.Logger {
	if log == nil {
		Init(os.Getenv("APP_ENV"))
	}
	return log
}

func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
