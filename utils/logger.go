package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger and installs it as zap's global.
// Production uses JSON output; everything else the development console encoder.
func NewLogger(appEnv, appName string) *zap.Logger {
	log := zap.Must(zap.NewDevelopment())
	if appEnv == "production" {
		config := zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.LevelKey = "severity"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
		log = zap.Must(config.Build())
	}

	log = log.With(
		zap.String("env", appEnv),
		zap.String("service_name", appName),
	)
	zap.ReplaceGlobals(log)
	return log
}
