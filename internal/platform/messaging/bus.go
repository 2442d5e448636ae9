package messaging

import (
	"context"
	"log/slog"
	"sync"

	contractsv1 "ballotbox/contracts/gen/events/v1"
)

const subscriptionBuffer = 256

type subscription struct {
	group string
	ch    chan contractsv1.Envelope
}

// Bus is the in-process event bus behind the outbox relay. Each subscription
// receives every event of its topic in publish order; Publish blocks on a full
// subscriber instead of dropping, so a relay cycle never loses a ledger event.
type Bus struct {
	mu          sync.RWMutex
	brokers     []string
	subscribers map[string][]*subscription
	logger      *slog.Logger
}

func NewBus(brokers []string, logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		brokers:     append([]string(nil), brokers...),
		subscribers: make(map[string][]*subscription),
		logger:      logger,
	}, nil
}

// Brokers returns the configured broker list; the in-process bus only
// reports it.
func (b *Bus) Brokers() []string {
	return append([]string(nil), b.brokers...)
}

func (b *Bus) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			b.logger.Warn("event publish interrupted",
				"event", "bus_publish_interrupted",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", sub.group,
				"event_id", event.EventID,
			)
			return ctx.Err()
		case sub.ch <- event:
		}
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"partition_key", event.PartitionKey,
		"subscribers", len(subs),
	)
	return nil
}

// Subscribe registers handler until ctx is cancelled.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	sub := &subscription{
		group: consumerGroup,
		ch:    make(chan contractsv1.Envelope, subscriptionBuffer),
	}

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(topic, sub)
				return
			case event := <-sub.ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (b *Bus) removeSubscriber(topic string, target *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[topic]
	filtered := make([]*subscription, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	b.subscribers[topic] = filtered
}
