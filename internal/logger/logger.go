package logger

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/depot/internal/config"
)

// Module provides the process logger and routes fx's own lifecycle events
// through it.
var Module = fx.Options(
	fx.Provide(New),
	fx.WithLogger(EventLogger),
)

// New builds the zap logger described by the observability settings. JSON
// encoding uses the production preset; "console" switches to the colored
// development preset.
func New(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	obs := cfg.Observability

	level, err := zapcore.ParseLevel(obs.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := productionConfig()
	if obs.LogEncoding == "console" {
		zapCfg = consoleConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	logger = logger.With(
		zap.String("service", obs.ServiceName),
		zap.String("environment", obs.Environment),
	)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stdout/stderr sync errors are not actionable on shutdown.
			_ = logger.Sync()
			return nil
		},
	})

	return logger, nil
}

// EventLogger reports fx container events at debug level under the "fx"
// logger name.
func EventLogger(logger *zap.Logger) fxevent.Logger {
	l := &fxevent.ZapLogger{Logger: logger.Named("fx")}
	l.UseLogLevel(zapcore.DebugLevel)
	return l
}

func productionConfig() zap.Config {
	c := zap.NewProductionConfig()
	c.EncoderConfig.TimeKey = "ts"
	c.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	c.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	c.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	return c
}

func consoleConfig() zap.Config {
	c := zap.NewDevelopmentConfig()
	c.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return c
}
