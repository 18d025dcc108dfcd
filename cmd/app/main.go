package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caravalia/reservas/config"
	"github.com/caravalia/reservas/internal/bootstrap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.NewServices(ctx, cfg)
	if err != nil {
		log.Fatalf("init services: %v", err)
	}
	defer services.Close()

	log.Printf("storage: %s, repository: %s, kafka enabled: %t", cfg.Storage.Backend, cfg.Repository.Backend, cfg.Kafka.Enabled())

	if err := bootstrap.Run(ctx, cfg, services.Handlers()); err != nil {
		log.Printf("server error: %v", err)
		services.Close()
		os.Exit(1)
	}
}
