package kafka

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in memory and writes them from one goroutine.
// Each message carries its own topic, so one Producer serves every CRM topic.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true, // fire-and-forget for throughput
	}, buf)
}

func newProducer(w messageWriter, buf int) *Producer {
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the write loop. Cancelling ctx has the same effect as Close.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		p.Close()
	}()
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			wctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(wctx, m); err != nil {
				log.Printf("kafka write topic=%s: %v", m.Topic, err)
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			log.Printf("kafka writer close: %v", err)
		}
	}()
}

// Publish never blocks the caller; a full inbox drops the message.
func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	m := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	select {
	case p.inbox <- m:
	default:
		log.Printf("kafka inbox full, dropping message topic=%s", topic)
	}
}

// Close stops accepting messages; the loop flushes what is queued and exits.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the write loop has flushed and closed the writer.
func (p *Producer) WaitClosed() { <-p.closeCh }
