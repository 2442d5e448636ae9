package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"ballotbox/contexts/governance/voting-ledger/domain/entities"
	domainerrors "ballotbox/contexts/governance/voting-ledger/domain/errors"
	"ballotbox/contexts/governance/voting-ledger/ports"

	"github.com/google/uuid"
)

type tallyKey struct {
	session     uint64
	candidateID uint64
}

type ledgerRecord struct {
	ledger     entities.Ledger
	candidates []entities.Candidate
	tallies    map[tallyKey]uint64
	events     []ports.EventEnvelope
}

type outboxRecord struct {
	message   ports.OutboxMessage
	order     uint64
	published bool
}

// Store keeps ledgers in process memory. A single mutex serializes every
// WithLedger call, which is the whole concurrency contract of the ledger.
type Store struct {
	mu sync.RWMutex

	ledgers     map[string]*ledgerRecord
	outbox      map[string]outboxRecord
	outboxOrder uint64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		ledgers: make(map[string]*ledgerRecord),
		outbox:  make(map[string]outboxRecord),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// SetClock pins Now for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) CreateLedger(
	_ context.Context,
	admin string,
	build func(nonce uint64) (ports.LedgerDraft, error),
) (ports.LedgerDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin = strings.TrimSpace(admin)
	var nonce uint64
	for _, record := range s.ledgers {
		if record.ledger.Admin == admin {
			nonce++
		}
	}

	draft, err := build(nonce)
	if err != nil {
		return ports.LedgerDraft{}, err
	}
	address := strings.TrimSpace(draft.Ledger.Address)
	if _, exists := s.ledgers[address]; exists {
		return ports.LedgerDraft{}, domainerrors.ErrLedgerExists
	}
	if err := s.checkEventsLocked(0, draft.Events); err != nil {
		return ports.LedgerDraft{}, err
	}

	record := &ledgerRecord{
		ledger:     draft.Ledger,
		candidates: append([]entities.Candidate(nil), draft.Candidates...),
		tallies:    make(map[tallyKey]uint64),
	}
	for _, event := range draft.Events {
		if err := s.appendOutboxLocked(record, event); err != nil {
			return ports.LedgerDraft{}, err
		}
	}
	s.ledgers[address] = record
	return draft, nil
}

func (s *Store) GetLedger(_ context.Context, address string) (entities.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.ledgers[strings.TrimSpace(address)]
	if !ok {
		return entities.Ledger{}, domainerrors.ErrLedgerNotFound
	}
	return record.ledger, nil
}

func (s *Store) ListCandidates(_ context.Context, address string) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.ledgers[strings.TrimSpace(address)]
	if !ok {
		return nil, domainerrors.ErrLedgerNotFound
	}
	items := append([]entities.Candidate(nil), record.candidates...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (s *Store) GetCandidate(_ context.Context, address string, candidateID uint64) (entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.ledgers[strings.TrimSpace(address)]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrLedgerNotFound
	}
	// ids are dense, so the candidate with id n sits at index n-1
	if candidateID == 0 || candidateID > uint64(len(record.candidates)) {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return record.candidates[candidateID-1], nil
}

func (s *Store) GetVoteCount(_ context.Context, address string, session uint64, candidateID uint64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.ledgers[strings.TrimSpace(address)]
	if !ok {
		return 0, domainerrors.ErrLedgerNotFound
	}
	return record.tallies[tallyKey{session: session, candidateID: candidateID}], nil
}

func (s *Store) ListEvents(_ context.Context, address string, afterSequence uint64, limit int) ([]ports.EventEnvelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.ledgers[strings.TrimSpace(address)]
	if !ok {
		return nil, domainerrors.ErrLedgerNotFound
	}
	items := make([]ports.EventEnvelope, 0)
	for _, event := range record.events {
		if event.Sequence <= afterSequence {
			continue
		}
		items = append(items, event)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) WithLedger(ctx context.Context, address string, fn func(tx ports.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.ledgers[strings.TrimSpace(address)]
	if !ok {
		return domainerrors.ErrLedgerNotFound
	}
	tx := &memoryTx{
		record:  record,
		ledger:  record.ledger,
		tallies: make(map[tallyKey]uint64),
		now:     s.now().UTC(),
	}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commitLocked(tx)
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]outboxRecord, 0)
	for _, record := range s.outbox {
		if !record.published {
			pending = append(pending, record)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].order < pending[j].order
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(pending))
	for _, record := range pending {
		message := record.message
		message.Payload = append([]byte(nil), record.message.Payload...)
		items = append(items, message)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	record.published = true
	s.outbox[record.message.OutboxID] = record
	return nil
}

func (s *Store) commitLocked(tx *memoryTx) error {
	record := tx.record
	var last uint64
	if n := len(record.events); n > 0 {
		last = record.events[n-1].Sequence
	}
	if err := s.checkEventsLocked(last, tx.events); err != nil {
		return err
	}
	for _, event := range tx.events {
		if err := s.appendOutboxLocked(record, event); err != nil {
			return err
		}
	}
	record.candidates = append(record.candidates, tx.candidates...)
	for key, count := range tx.tallies {
		record.tallies[key] = count
	}
	tx.ledger.UpdatedAt = tx.now
	record.ledger = tx.ledger
	return nil
}

// checkEventsLocked rejects a batch that appendOutboxLocked would fail on
// halfway: a sequence gap after last, or an event id already in the outbox or
// repeated within the batch. Nothing is written.
func (s *Store) checkEventsLocked(last uint64, events []ports.EventEnvelope) error {
	seen := make(map[string]struct{}, len(events))
	for i, event := range events {
		if (i > 0 || last > 0) && event.Sequence != last+1 {
			return domainerrors.ErrConflict
		}
		last = event.Sequence
		if _, err := json.Marshal(event); err != nil {
			return err
		}
		id := strings.TrimSpace(event.EventID)
		if id == "" {
			continue
		}
		if _, exists := s.outbox[id]; exists {
			return domainerrors.ErrConflict
		}
		if _, dup := seen[id]; dup {
			return domainerrors.ErrConflict
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *Store) appendOutboxLocked(record *ledgerRecord, event ports.EventEnvelope) error {
	if n := len(record.events); n > 0 && event.Sequence != record.events[n-1].Sequence+1 {
		return domainerrors.ErrConflict
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(event.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return domainerrors.ErrConflict
	}
	s.outboxOrder++
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:      outboxID,
			LedgerAddress: record.ledger.Address,
			Sequence:      event.Sequence,
			EventType:     event.EventType,
			Payload:       payload,
			CreatedAt:     event.OccurredAt.UTC(),
		},
		order: s.outboxOrder,
	}
	record.events = append(record.events, event)
	return nil
}

// memoryTx stages changes against one ledger record until commit.
type memoryTx struct {
	record     *ledgerRecord
	ledger     entities.Ledger
	candidates []entities.Candidate
	tallies    map[tallyKey]uint64
	events     []ports.EventEnvelope
	now        time.Time
}

func (tx *memoryTx) Ledger() entities.Ledger {
	return tx.ledger
}

func (tx *memoryTx) AppendCandidate(_ context.Context, name string) (entities.Candidate, error) {
	tx.ledger.CandidatesCount++
	candidate := entities.Candidate{ID: tx.ledger.CandidatesCount, Name: name}
	tx.candidates = append(tx.candidates, candidate)
	return candidate, nil
}

func (tx *memoryTx) IncrementVote(_ context.Context, candidateID uint64) (uint64, error) {
	key := tallyKey{session: tx.ledger.CurrentSession, candidateID: candidateID}
	count, staged := tx.tallies[key]
	if !staged {
		count = tx.record.tallies[key]
	}
	count++
	tx.tallies[key] = count
	return count, nil
}

func (tx *memoryTx) AdvanceSession(_ context.Context) (uint64, error) {
	tx.ledger.CurrentSession++
	return tx.ledger.CurrentSession, nil
}

func (tx *memoryTx) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	if envelope.Sequence != tx.ledger.EventSequence+1 {
		return domainerrors.ErrConflict
	}
	tx.ledger.EventSequence = envelope.Sequence
	tx.events = append(tx.events, envelope)
	return nil
}

var _ ports.LedgerRepository = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
