package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-order-fulfillment/internal/catalog"
	"github.com/ariefcatur/go-order-fulfillment/internal/config"
	"github.com/ariefcatur/go-order-fulfillment/internal/fulfillment"
	"github.com/ariefcatur/go-order-fulfillment/internal/httpx"
	"github.com/ariefcatur/go-order-fulfillment/internal/inventory"
	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment/internal/metrics"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/payment"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres"
	"github.com/ariefcatur/go-order-fulfillment/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderFinalized, 1024)
	prod.Start(ctx)

	reg := metrics.NewRegistry()

	retrier := payment.NewRetrier(payment.Simulated{Latency: cfg.PaymentLatency}, cfg.PaymentBackoffUnit)
	retrier.OnAttempt = reg.PaymentAttempt

	svc := &fulfillment.Service{
		DB:         db,
		Ledger:     inventory.Ledger{},
		Orders:     orders.NewMachine(),
		Payment:    retrier,
		MaxRetries: cfg.PaymentMaxRetries,
		Notifier:   &fulfillment.KafkaNotifier{Producer: prod, ServiceName: cfg.ServiceName},
		Metrics:    reg,
	}

	router := httpx.NewRouter(reg.Handler())
	ch := &httpx.CatalogHandler{
		Catalog:      catalog.NewService(db, reg.Degraded),
		DefaultLimit: cfg.ListDefaultLimit,
	}
	ch.Register(router)
	oh := &httpx.OrdersHandler{
		Fulfillment:  svc,
		Reader:       orders.NewQueries(db, reg.Degraded),
		Cache:        &redisx.ViewCache{Client: rdb},
		DefaultLimit: cfg.ListDefaultLimit,
	}
	oh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	// In-flight submits may be in payment backoff; give them time to commit.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	prod.WaitClosed()
}
