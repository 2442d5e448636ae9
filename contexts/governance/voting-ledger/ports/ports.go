package ports

import (
	"context"
	"time"

	contractsv1 "ballotbox/contracts/gen/events/v1"
	"ballotbox/contexts/governance/voting-ledger/domain/entities"
)

type EventEnvelope = contractsv1.Envelope

// LedgerRepository is the storage port of the ledger. Reads are plain
// lookups; every mutation of an existing ledger goes through WithLedger so it
// is serialized against other mutations of the same ledger and applied
// all-or-nothing.
type LedgerRepository interface {
	// CreateLedger allocates admin's next deploy nonce (the number of ledgers
	// admin already owns) and stores the draft build returns for it, as one
	// atomic step. build runs while the allocation is held and must not call
	// back into the repository.
	CreateLedger(ctx context.Context, admin string, build func(nonce uint64) (LedgerDraft, error)) (LedgerDraft, error)
	GetLedger(ctx context.Context, address string) (entities.Ledger, error)
	ListCandidates(ctx context.Context, address string) ([]entities.Candidate, error)
	GetCandidate(ctx context.Context, address string, candidateID uint64) (entities.Candidate, error)
	GetVoteCount(ctx context.Context, address string, session uint64, candidateID uint64) (uint64, error)
	ListEvents(ctx context.Context, address string, afterSequence uint64, limit int) ([]EventEnvelope, error)
	WithLedger(ctx context.Context, address string, fn func(tx LedgerTx) error) error
}

// LedgerDraft is a ledger about to be deployed, with its seed candidates and
// the events announcing them.
type LedgerDraft struct {
	Ledger     entities.Ledger
	Candidates []entities.Candidate
	Events     []EventEnvelope
}

// LedgerTx is the unit of work handed to WithLedger callbacks. Changes made
// through it become visible only if the callback returns nil.
type LedgerTx interface {
	// Ledger returns the ledger as seen inside the unit of work, including
	// changes already staged by this transaction.
	Ledger() entities.Ledger
	AppendCandidate(ctx context.Context, name string) (entities.Candidate, error)
	// IncrementVote adds one vote to (current session, candidateID) and
	// returns the new tally.
	IncrementVote(ctx context.Context, candidateID uint64) (uint64, error)
	AdvanceSession(ctx context.Context) (uint64, error)
	// AppendOutbox stores an event; envelope.Sequence must be exactly one
	// past the ledger's current event sequence.
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID      string
	LedgerAddress string
	Sequence      uint64
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// AddressBook normalizes account addresses and derives ledger addresses.
type AddressBook interface {
	Normalize(raw string) (string, error)
	LedgerAddress(admin string, nonce uint64) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
