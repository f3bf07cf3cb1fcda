package main

import (
	config "github.com/NordCoder/Linkbio/internal/config/linkctl"
	"github.com/NordCoder/Linkbio/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
}
