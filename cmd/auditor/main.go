package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-crm.git/internal/audit"
	"github.com/ariefcatur/go-crm.git/internal/config"
	"github.com/ariefcatur/go-crm.git/internal/events"
	"github.com/ariefcatur/go-crm.git/internal/jobs"
	kafkax "github.com/ariefcatur/go-crm.git/internal/kafka"
	"github.com/ariefcatur/go-crm.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	name := cfg.ServiceName + "-auditor"
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", name)

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	rec := &audit.Recorder{
		Sink:   jobs.FileSink{Path: cfg.AuditLog},
		Dedup:  &redisx.Dedup{R: rdb, Service: name},
		Logger: logger,
	}

	topics := events.AllTopics()
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.AuditorGroup, cfg.AuditorWorkers, topics...)

	log.Printf("auditor started: group=%s topics=%v workers=%d", cfg.AuditorGroup, topics, cfg.AuditorWorkers)
	if err := cons.Start(ctx, rec.HandleEvent); err != nil {
		log.Printf("consumer exit: %v", err)
	}
	log.Println("auditor stopped")
}
