package kafka

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message is fully processed and its offset
// may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       messageReader
	workers int

	retryMin time.Duration
	retryMax time.Duration
}

func NewConsumer(brokers []string, group string, workers int, topics ...string) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers)
}

func newConsumer(r messageReader, workers int) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, retryMin: 200 * time.Millisecond, retryMax: 30 * time.Second}
}

// lane pins a partition to one worker so its offsets are handled and
// committed in order.
func lane(m kafka.Message, n int) int {
	return int(xxhash.Sum64String(m.Topic+"/"+strconv.Itoa(m.Partition)) % uint64(n))
}

// Start fetches until ctx is cancelled or the reader fails. A failing message
// is retried with backoff and blocks its partition; nothing after it is
// committed until it succeeds.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 4)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if ctx.Err() != nil || !c.handle(ctx, h, m) {
					continue // shutting down, left uncommitted for redelivery
				}
				if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
					log.Printf("commit topic=%s partition=%d offset=%d: %v", m.Topic, m.Partition, m.Offset, err)
				}
			}
		}(lanes[i])
	}
	defer wg.Wait()
	defer func() {
		for _, l := range lanes {
			close(l)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			// quiet on shutdown
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		select {
		case lanes[lane(m, len(lanes))] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

// handle retries h until it succeeds or ctx is done.
func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) bool {
	wait := c.retryMin
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			return true
		}
		log.Printf("handler error topic=%s partition=%d offset=%d attempt=%d: %v", m.Topic, m.Partition, m.Offset, attempt, err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
		wait = min(wait*2, c.retryMax)
	}
}
