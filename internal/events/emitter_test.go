package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-crm.git/internal/crm"
)

type published struct {
	topic   string
	key     []byte
	value   []byte
	headers []kafkago.Header
}

type fakeProducer struct{ msgs []published }

func (f *fakeProducer) Publish(topic string, key, value []byte, headers ...kafkago.Header) {
	f.msgs = append(f.msgs, published{topic, key, value, headers})
}

func TestEmitterWrapsEnvelope(t *testing.T) {
	prod := &fakeProducer{}
	at := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	e := &Emitter{Producer: prod, Service: "crm-api", Now: func() time.Time { return at }}

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	e.Publish(ctx, crm.EventOrderCreated, "order-1", crm.StockUpdate{ID: "p1", Name: "Pen", Stock: 3})

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, TopicOrderCreated, msg.topic)
	assert.Equal(t, "order-1", string(msg.key))
	assert.Equal(t, "x-event-type", msg.headers[0].Key)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.value, &env))
	assert.Equal(t, crm.EventOrderCreated, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "crm-api", env.Producer)
	assert.Equal(t, "req-1", env.TraceID)
	assert.Equal(t, "order-1", env.CorrelationID)
	assert.True(t, at.Equal(env.OccurredAt))
	assert.JSONEq(t, `{"id":"p1","name":"Pen","stock":3}`, string(env.Payload))
}

func TestEmitterDropsUnknownEvent(t *testing.T) {
	prod := &fakeProducer{}
	e := &Emitter{Producer: prod}
	e.Publish(context.Background(), "Unknown", "k", nil)
	assert.Empty(t, prod.msgs)
}

func TestAllTopicsCoverEveryEvent(t *testing.T) {
	for _, ev := range []string{crm.EventCustomerCreated, crm.EventProductCreated, crm.EventOrderCreated, crm.EventStockReplenished} {
		topic, ok := TopicFor(ev)
		require.True(t, ok, ev)
		assert.Contains(t, AllTopics(), topic)
	}
}
