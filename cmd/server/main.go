package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"kestrel-idp/config"
	"kestrel-idp/core/appbootstrap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logger *zap.Logger
	if cfg.AppEnv == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := appbootstrap.Run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
