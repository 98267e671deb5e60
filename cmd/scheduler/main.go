package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-crm.git/internal/config"
	"github.com/ariefcatur/go-crm.git/internal/crm"
	"github.com/ariefcatur/go-crm.git/internal/events"
	"github.com/ariefcatur/go-crm.git/internal/jobs"
	kafkax "github.com/ariefcatur/go-crm.git/internal/kafka"
	"github.com/ariefcatur/go-crm.git/internal/postgres"
	"github.com/ariefcatur/go-crm.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	name := cfg.ServiceName + "-scheduler"
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", name)

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// stock replenishments are events too
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 256)
	prod.Start(ctx)

	emitter := &events.Emitter{Producer: prod, Service: name, Logger: logger}
	svc := crm.NewService(crm.NewRepo(db), emitter, logger)

	threshold, amount := cfg.LowStockThreshold, cfg.LowStockAmount
	s := &jobs.Scheduler{
		Locker:  &redisx.Locker{R: rdb},
		Timeout: cfg.JobTimeout,
		Logger:  logger,
		Entries: []jobs.Entry{
			{
				Name: "heartbeat", Interval: cfg.HeartbeatInterval, RunAtStart: true,
				Job: &jobs.Heartbeat{Sink: jobs.FileSink{Path: cfg.HeartbeatLog}},
			},
			{
				Name: "low_stock", Interval: cfg.LowStockInterval,
				Job: &jobs.LowStock{
					Replenisher: svc,
					Input: crm.ReplenishInput{
						Threshold: &threshold,
						Amount:    &amount,
						Strategy:  crm.ReplenishStrategy(cfg.LowStockStrategy),
					},
					Sink: jobs.FileSink{Path: cfg.LowStockLog},
				},
			},
			{
				Name: "report", Interval: cfg.ReportInterval,
				Job: &jobs.Report{Source: svc, Sink: jobs.FileSink{Path: cfg.ReportLog}},
			},
			{
				Name: "order_reminders", Interval: cfg.ReminderInterval,
				Job: &jobs.Reminders{Source: svc, Sink: jobs.FileSink{Path: cfg.ReminderLog}},
			},
		},
	}

	log.Printf("scheduler started: %d jobs", len(s.Entries))
	if err := s.Run(ctx); err != nil {
		log.Printf("scheduler exit: %v", err)
	}

	log.Println("shutting down scheduler...")
	prod.Close()
	prod.WaitClosed()
}
