package workers

import (
	"context"
	"log/slog"
	"strings"

	application "ballotbox/contexts/governance/voting-ledger/application"
	"ballotbox/contexts/governance/voting-ledger/domain/entities"
	"ballotbox/contexts/governance/voting-ledger/ports"
)

const defaultObserverCG = "voting-ledger-observer-cg"

// NotificationObserver subscribes to every ledger topic, decodes the
// envelopes and hands them to Handle. Without a Handle it only logs.
type NotificationObserver struct {
	Subscriber    ports.EventSubscriber
	ConsumerGroup string
	Handle        func(context.Context, entities.LedgerEvent) error
	Logger        *slog.Logger
}

func (o NotificationObserver) Start(ctx context.Context) error {
	logger := application.ResolveLogger(o.Logger)
	group := strings.TrimSpace(o.ConsumerGroup)
	if group == "" {
		group = defaultObserverCG
	}
	for _, topic := range application.EventTopics {
		if err := o.Subscriber.Subscribe(ctx, topic, group, o.handle); err != nil {
			logger.Error("ledger observer subscribe failed",
				"event", "ledger_observer_subscribe_failed",
				"module", "governance/voting-ledger",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("ledger observer subscriptions active",
		"event", "ledger_observer_started",
		"module", "governance/voting-ledger",
		"layer", "worker",
		"consumer_group", group,
		"topics", len(application.EventTopics),
	)
	return nil
}

func (o NotificationObserver) handle(ctx context.Context, envelope ports.EventEnvelope) error {
	logger := application.ResolveLogger(o.Logger)
	event, err := application.DecodeEvent(envelope)
	if err != nil {
		logger.Error("ledger notification decode failed",
			"event", "ledger_observer_decode_failed",
			"module", "governance/voting-ledger",
			"layer", "worker",
			"event_id", envelope.EventID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("ledger notification observed",
		"event", "ledger_observer_notification",
		"module", "governance/voting-ledger",
		"layer", "worker",
		"event_type", string(event.Type),
		"ledger_address", event.LedgerAddress,
		"sequence", event.Sequence,
		"args", event.Args(),
	)
	if o.Handle == nil {
		return nil
	}
	return o.Handle(ctx, event)
}
