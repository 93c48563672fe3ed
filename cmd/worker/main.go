package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/config"
	"github.com/ariefcatur/go-order-fulfillment/internal/dispatch"
	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres"
	"github.com/ariefcatur/go-order-fulfillment/internal/redisx"
	"github.com/ariefcatur/go-order-fulfillment/internal/telemetry"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTLPEndpoint, cfg.ServiceName+"-worker")
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis, only to drop stale order entries after validation
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	worker := dispatch.NewWorker(
		orders.NewValidator(&orders.PGStore{DB: db}),
		dispatch.Retry{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
		cfg.ProcessingDelay,
		redisx.NewCache(rdb, cfg.CacheTTL),
	)

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, orders.TopicValidateOrder, cfg.WorkerCount)
	log.Printf("order validator started: group=%s topic=%s workers=%d", cfg.WorkerGroup, orders.TopicValidateOrder, cfg.WorkerCount)
	if err := cons.Start(ctx, worker.HandleMessage); err != nil {
		log.Printf("consumer exit: %v", err)
	}
	log.Println("worker stopped")
}
