package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-crm.git/internal/crm"
	"github.com/ariefcatur/go-crm.git/internal/events"
	"github.com/ariefcatur/go-crm.git/internal/jobs"
	kafkax "github.com/ariefcatur/go-crm.git/internal/kafka"
)

type Deduper interface {
	FirstSeen(ctx context.Context, id string) (bool, error)
}

// Recorder appends one line per CRM event to an audit sink.
type Recorder struct {
	Sink   jobs.Sink
	Dedup  Deduper // optional
	Logger *slog.Logger
}

// HandleEvent is installed as the consumer handler. A nil return lets the
// consumer commit the offset.
func (r *Recorder) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, commit past it
		r.logger().Warn("undecodable event", "topic", m.Topic, "offset", m.Offset, "err", err)
		return nil
	}

	if r.Dedup != nil && env.EventID != "" {
		first, err := r.Dedup.FirstSeen(ctx, env.EventID)
		if err != nil {
			return fmt.Errorf("dedup %s: %w", env.EventID, err)
		}
		if !first {
			return nil
		}
	}

	return jobs.AppendLines(r.Sink, r.line(env))
}

func (r *Recorder) line(env events.Envelope) string {
	line := fmt.Sprintf("%s %s %s", env.OccurredAt.UTC().Format(time.RFC3339), env.EventType, env.CorrelationID)
	if env.EventType == crm.EventStockReplenished {
		u, err := kafkax.UnwrapPayload[crm.StockUpdate](env.Payload)
		if err != nil {
			r.logger().Warn("bad stock payload", "event_id", env.EventID, "err", err)
			return line
		}
		line += fmt.Sprintf(" stock=%d", u.Stock)
	}
	return line
}

func (r *Recorder) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
