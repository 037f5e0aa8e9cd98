package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName поле service в каждой записи лога
const ServiceName = "therapy-scheduler"

// NewLogger создаёт логгер: JSON в production, цветной консольный в остальных окружениях.
// level переопределяет уровень по умолчанию ("debug", "info", ...); пустая строка - не трогать.
func NewLogger(env, level string) *zap.Logger {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	config.OutputPaths = []string{"stdout"}
	config.InitialFields = map[string]interface{}{
		"service": ServiceName,
		"env":     env,
	}

	logger, err := config.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	return logger
}
