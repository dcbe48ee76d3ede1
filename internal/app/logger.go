package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cargo/internal/config"
)

// NewLogger builds the process logger. Release mode logs JSON; every other
// mode logs colored console output.
func NewLogger(serverCfg config.ServerConfig, logCfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(logCfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logCfg.Level, err)
	}

	var zcfg zap.Config
	if serverCfg.Mode == gin.ReleaseMode {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
