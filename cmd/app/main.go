package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ammaritto/short-stay/config"
	"github.com/ammaritto/short-stay/internal/bootstrap"
	"github.com/ammaritto/short-stay/internal/cache"
	"github.com/ammaritto/short-stay/internal/kafka"
	"github.com/ammaritto/short-stay/internal/logger"
	"github.com/ammaritto/short-stay/internal/service/flow"
	"github.com/ammaritto/short-stay/internal/session"
	"github.com/ammaritto/short-stay/internal/upstream"
	"go.uber.org/zap"
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

	zapLogger, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout(), zapLogger)

	flowOpts := []flow.Option{
		flow.WithVariant(flow.Variant(cfg.Payment.Variant)),
		flow.WithLogger(zapLogger),
	}
	if cfg.Redis.Enabled() {
		flowOpts = append(flowOpts,
			flow.WithCache(cache.NewAvailabilityCache(cfg.Redis, cfg.Upstream.CacheTTL())))
	}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		flowOpts = append(flowOpts,
			flow.WithProducer(producer, cfg.Kafka.BookingEventsTopic))
	}

	store := session.NewStore(cfg.Session.TTL(), func(id string) *flow.Flow {
		return flow.New(id, client, client, flowOpts...)
	})

	go func() {
		ticker := time.NewTicker(cfg.Session.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				if removed := store.PruneExpired(now); removed > 0 {
					zapLogger.Info("pruned idle sessions", zap.Int("count", removed))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := bootstrap.Run(ctx, cfg, store, zapLogger); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
