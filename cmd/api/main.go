package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-crm.git/internal/config"
	"github.com/ariefcatur/go-crm.git/internal/crm"
	"github.com/ariefcatur/go-crm.git/internal/events"
	"github.com/ariefcatur/go-crm.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-crm.git/internal/kafka"
	"github.com/ariefcatur/go-crm.git/internal/postgres"
	"github.com/ariefcatur/go-crm.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName)

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer, topic per event
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	emitter := &events.Emitter{Producer: prod, Service: cfg.ServiceName, Logger: logger}
	svc := crm.NewService(crm.NewRepo(db), emitter, logger)

	router := httpx.NewRouter(db, httpx.PingFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}))
	h := &httpx.CRMHandler{
		Service: svc,
		Idem:    &redisx.Idempotency{R: rdb},
		Logger:  logger,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // flush pending events
	prod.WaitClosed()
	cancel()
}
