package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/cart"
	"github.com/shoplane/shoplane/internal/catalog"
	"github.com/shoplane/shoplane/internal/config"
	"github.com/shoplane/shoplane/internal/events"
	"github.com/shoplane/shoplane/internal/httpx"
	"github.com/shoplane/shoplane/internal/inventory"
	kafkax "github.com/shoplane/shoplane/internal/kafka"
	"github.com/shoplane/shoplane/internal/orders"
	"github.com/shoplane/shoplane/internal/payments"
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
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()

	// Kafka producer, one for every topic the API emits
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
	prod.Start(ctx)
	pub := &events.KafkaPublisher{Producer: prod, Source: cfg.ServiceName}

	// Stores
	catalogRepo := &catalog.Repo{DB: db}
	priceRepo := &pricing.Repo{DB: db}
	invRepo := &inventory.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	payRepo := &payments.Repo{DB: db}

	// Services
	ledger := inventory.NewLedger(invRepo, pub, logger)
	resolver := &pricing.Resolver{Store: priceRepo}
	orderSvc := orders.NewService(orderRepo, catalogRepo, resolver, pub, logger)
	cartSvc := cart.NewService(orderSvc, orderRepo, rdb, logger)
	paySvc := payments.NewService(payRepo, orderSvc, pub, logger)

	srv := &httpx.Server{
		Catalog:   &httpx.CatalogHandler{Store: catalogRepo},
		Prices:    &httpx.PricesHandler{Store: priceRepo, Resolver: resolver},
		Inventory: &httpx.InventoryHandler{Ledger: ledger},
		Orders:    &httpx.OrdersHandler{Service: orderSvc, Redis: rdb},
		Payments:  &httpx.PaymentsHandler{Service: paySvc},
		Cart:      &httpx.CartHandler{Service: cartSvc},
	}

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Router()}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = httpSrv.Shutdown(shCtx)

	prod.Close() // close inbox, flush what is queued
	cancel()
	prod.WaitClosed()
}
