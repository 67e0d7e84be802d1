package logsvc

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upskillhub/upskill/core"
)

// NewZapLogger returns a JSON logger in QA and PROD, a colored console logger otherwise.
func NewZapLogger(conf *core.Config) *zap.Logger {
	var config zap.Config

	if conf.Env == core.EnvProd || conf.Env == core.EnvQA {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if !conf.Debug {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	config.OutputPaths = []string{"stdout"}

	logger, err := config.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger.With(zap.String("app", conf.AppName), zap.String("build", conf.Build))
}
