package logger

import (
	"context"

	"flow-metrics/internal/config"
	"flow-metrics/internal/database"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Console output follows the environment,
// and warnings and above are also persisted to the logs collection.
func NewLogger(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Caller must be enabled for the func key to be populated
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	sink := NewDBLogWriter(NewMongoLogStore(mongodb), cfg.AppId)
	core := NewDBCore(baseLogger.Core(), sink, zapcore.WarnLevel)

	logger := zap.New(core, zap.AddCaller()).With(zap.String("env", cfg.Environment))
	zap.ReplaceGlobals(logger)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			sink.Close()
			return nil
		},
	})

	return logger, nil
}
