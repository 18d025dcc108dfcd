package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caravalia/reservas/config"
	"github.com/caravalia/reservas/internal/bootstrap"
	"github.com/caravalia/reservas/internal/kafka"
	"github.com/caravalia/reservas/internal/notify"
	"github.com/robfig/cron/v3"
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

	loc := cfg.Locale.Location()
	sender := notify.New(cfg.Notify, cfg.Business.Name, loc)

	if cfg.Kafka.Enabled() && cfg.Kafka.NotificationsTopic != "" {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()

		go func() {
			if err := consumer.Consume(ctx, kafka.EventHandler(notify.Handle(sender))); err != nil {
				log.Printf("consumer stopped: %v", err)
			}
		}()
	} else {
		log.Printf("kafka disabled, notification consumer not started")
	}

	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(cfg.Export.SnapshotSchedule, func() {
		path, err := bootstrap.Snapshot(ctx, cfg, time.Now())
		if err != nil {
			log.Printf("snapshot error: %v", err)
			return
		}
		log.Printf("snapshot written to %s", path)
	}); err != nil {
		log.Fatalf("schedule snapshot %q: %v", cfg.Export.SnapshotSchedule, err)
	}
	scheduler.Start()
	log.Printf("worker started, snapshot schedule %q", cfg.Export.SnapshotSchedule)

	<-ctx.Done()
	log.Printf("shutting down")
	<-scheduler.Stop().Done()
}
