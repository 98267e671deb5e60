package crm

import (
	"context"
	"log/slog"
	"time"
)

// Publisher receives domain events after a successful commit. Delivery is
// fire-and-forget; the write has already happened.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

const (
	EventCustomerCreated  = "CustomerCreated"
	EventProductCreated   = "ProductCreated"
	EventOrderCreated     = "OrderCreated"
	EventStockReplenished = "StockReplenished"
)

// Service is the mutation and validation engine.
type Service struct {
	Store  Store
	Events Publisher // optional
	Logger *slog.Logger
	Now    func() time.Time
}

func NewService(store Store, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Store: store, Events: events, Logger: logger, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Service) publish(ctx context.Context, eventType, key string, payload any) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(ctx, eventType, key, payload)
}
