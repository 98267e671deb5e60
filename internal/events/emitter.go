package events

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-crm.git/internal/kafka"
)

const eventVersion = 1

type Producer interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// Emitter wraps CRM events in an Envelope and hands them to a Producer.
// It satisfies crm.Publisher.
type Emitter struct {
	Producer Producer
	Service  string
	Logger   *slog.Logger
	Now      func() time.Time
}

func (e *Emitter) Publish(ctx context.Context, eventType, key string, payload any) {
	topic, ok := TopicFor(eventType)
	if !ok {
		e.logger().Warn("no topic for event", "event_type", eventType)
		return
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    now().UTC(),
		Producer:      e.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: key,
		Payload:       kafkax.MustMarshal(payload),
	}
	e.Producer.Publish(topic, PartitionKey(key), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(eventVersion))},
	)
}

func (e *Emitter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
