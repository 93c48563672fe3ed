package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/config"
	"github.com/ariefcatur/go-order-fulfillment/internal/dispatch"
	"github.com/ariefcatur/go-order-fulfillment/internal/httpx"
	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres"
	"github.com/ariefcatur/go-order-fulfillment/internal/redisx"
	"github.com/ariefcatur/go-order-fulfillment/internal/telemetry"
	"github.com/ariefcatur/go-order-fulfillment/internal/users"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.Printf("redis %s unreachable, reads fall through to postgres: %v", cfg.RedisAddr, err)
	}
	cache := redisx.NewCache(rdb, cfg.CacheTTL)

	store := &orders.PGStore{DB: db}

	// background work outlives the signal context so it can drain after the HTTP server stops
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()
	g, workCtx := errgroup.WithContext(workCtx)

	var (
		dispatcher   orders.Dispatcher
		stopDispatch func()
	)
	switch cfg.DispatchBackend {
	case config.BackendLocal:
		worker := dispatch.NewWorker(orders.NewValidator(store),
			dispatch.Retry{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay}, cfg.ProcessingDelay, cache)
		q := dispatch.NewQueue(worker, cfg.WorkerCount, 1024)
		g.Go(func() error { return q.Run(workCtx) })
		dispatcher, stopDispatch = q, q.Close
	default:
		prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicValidateOrder, 1024)
		prod.Start(workCtx)
		dispatcher = &dispatch.KafkaDispatcher{Producer: prod, Service: cfg.ServiceName}
		stopDispatch = func() {
			prod.Close()
			prod.WaitClosed()
		}
	}
	log.Printf("dispatch backend: %s", cfg.DispatchBackend)

	rec := &dispatch.Reconciler{
		Orders:     store,
		Dispatcher: dispatcher,
		Interval:   cfg.ReconcileInterval,
		After:      cfg.ReconcileAfter,
	}
	recCtx, cancelRec := context.WithCancel(workCtx)
	g.Go(func() error { return rec.Run(recCtx) })

	router := httpx.NewRouter(
		&httpx.UsersHandler{Users: &users.Service{Store: &users.Repo{DB: db}}},
		&httpx.ProductsHandler{Products: &orders.Catalog{Repo: store}, Cache: cache},
		&httpx.OrdersHandler{
			Intake: &orders.Intake{Store: store, Dispatcher: dispatcher},
			Orders: store,
			Cache:  cache,
		},
	)
	srv := httpx.NewServer(cfg.HTTPAddr, router)

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	// no new orders past this point; flush what was dispatched
	cancelRec()
	stopDispatch()
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			log.Printf("background: %v", err)
		}
	case <-shutdownCtx.Done():
		log.Println("drain timed out; unfinished orders stay pending")
		cancelWork()
		<-done
	}

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}
