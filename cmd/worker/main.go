package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/catalog"
	"github.com/shoplane/shoplane/internal/config"
	"github.com/shoplane/shoplane/internal/events"
	"github.com/shoplane/shoplane/internal/fulfillment"
	kafkax "github.com/shoplane/shoplane/internal/kafka"
	"github.com/shoplane/shoplane/internal/orders"
	"github.com/shoplane/shoplane/internal/postgres"
	"github.com/shoplane/shoplane/internal/pricing"
	"github.com/shoplane/shoplane/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis, event-id dedup
	rdb := redisx.New(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()

	// Producer: the worker re-publishes order.status after each transition
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
	prod.Start(ctx)
	pub := &events.KafkaPublisher{Producer: prod, Source: cfg.ServiceName + "-worker"}

	resolver := &pricing.Resolver{Store: &pricing.Repo{DB: db}}
	orderSvc := orders.NewService(&orders.Repo{DB: db}, &catalog.Repo{DB: db}, resolver, pub, logger)

	svc := fulfillment.NewService(orderSvc, rdb, cfg.WorkerGroup, logger)

	topics := []string{events.TopicPaymentCaptured, events.TopicPaymentFailed, events.TopicRefundCreated}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, topics, cfg.WorkerConcurrency, logger)

	go func() {
		logger.Info("consumer started",
			zap.String("group", cfg.WorkerGroup),
			zap.Strings("topics", topics),
			zap.Int("workers", cfg.WorkerConcurrency))
		if err := cons.Start(ctx, svc.Handle); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}
