package events

import (
	"encoding/json"
	"time"

	"github.com/ariefcatur/go-crm.git/internal/crm"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // crm.Event*
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "crm-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // entity id
	Payload       json.RawMessage `json:"payload"`
}

const (
	TopicCustomerCreated  = "crm.customer.created"
	TopicProductCreated   = "crm.product.created"
	TopicOrderCreated     = "crm.order.created"
	TopicStockReplenished = "crm.product.stock_replenished"
)

var topics = map[string]string{
	crm.EventCustomerCreated:  TopicCustomerCreated,
	crm.EventProductCreated:   TopicProductCreated,
	crm.EventOrderCreated:     TopicOrderCreated,
	crm.EventStockReplenished: TopicStockReplenished,
}

func TopicFor(eventType string) (string, bool) {
	t, ok := topics[eventType]
	return t, ok
}

// AllTopics lists every topic the CRM publishes to.
func AllTopics() []string {
	return []string{TopicCustomerCreated, TopicProductCreated, TopicOrderCreated, TopicStockReplenished}
}

// PartitionKey is the entity id, so events of one entity stay ordered.
func PartitionKey(id string) []byte { return []byte(id) }
