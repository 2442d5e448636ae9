package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ballotbox/contexts/governance/voting-ledger/domain/entities"
	domainerrors "ballotbox/contexts/governance/voting-ledger/domain/errors"
	"ballotbox/contexts/governance/voting-ledger/ports"

	"github.com/stretchr/testify/require"
)

const (
	testLedger = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	testAdmin  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func envelope(id string, sequence uint64) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:      id,
		EventType:    string(entities.EventCandidateAdded),
		Sequence:     sequence,
		OccurredAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PartitionKey: testLedger,
		Data:         json.RawMessage(`{}`),
	}
}

func seedDraft(address string, nonce uint64, events ...ports.EventEnvelope) ports.LedgerDraft {
	return ports.LedgerDraft{
		Ledger: entities.Ledger{
			Address:         address,
			Admin:           testAdmin,
			DeployNonce:     nonce,
			CurrentSession:  entities.FirstSession,
			CandidatesCount: 2,
			EventSequence:   uint64(len(events)),
		},
		Candidates: []entities.Candidate{
			{ID: 1, Name: "Alice"},
			{ID: 2, Name: "Bob"},
		},
		Events: events,
	}
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	_, err := store.CreateLedger(context.Background(), testAdmin, func(nonce uint64) (ports.LedgerDraft, error) {
		require.Zero(t, nonce)
		return seedDraft(testLedger, nonce, envelope("event-1", 1), envelope("event-2", 2)), nil
	})
	require.NoError(t, err)
	return store
}

func TestCreateLedgerRejectsDuplicateAddress(t *testing.T) {
	store := seededStore(t)
	_, err := store.CreateLedger(context.Background(), testAdmin, func(nonce uint64) (ports.LedgerDraft, error) {
		require.Equal(t, uint64(1), nonce)
		return seedDraft(testLedger, nonce), nil
	})
	require.ErrorIs(t, err, domainerrors.ErrLedgerExists)

	_, err = store.CreateLedger(context.Background(), testAdmin, func(nonce uint64) (ports.LedgerDraft, error) {
		require.Equal(t, uint64(1), nonce)
		return seedDraft("0xsecond", nonce), nil
	})
	require.NoError(t, err)
}

func TestCreateLedgerLeavesNothingBehindOnBadEvent(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	broken := envelope("event-b2", 2)
	broken.Data = json.RawMessage(`{"name":`)
	cases := map[string][]ports.EventEnvelope{
		"unencodable": {envelope("event-b1", 1), broken},
		"gap":         {envelope("event-b1", 1), envelope("event-b3", 3)},
		"known id":    {envelope("event-b1", 1), envelope("event-1", 2)},
		"repeated id": {envelope("event-b1", 1), envelope("event-b1", 2)},
	}
	for name, events := range cases {
		_, err := store.CreateLedger(ctx, testAdmin, func(nonce uint64) (ports.LedgerDraft, error) {
			return seedDraft("0xbroken", nonce, events...), nil
		})
		require.Error(t, err, name)

		_, err = store.GetLedger(ctx, "0xbroken")
		require.ErrorIs(t, err, domainerrors.ErrLedgerNotFound, name)
		pending, err := store.ListPendingOutbox(ctx, 100)
		require.NoError(t, err)
		require.Len(t, pending, 2, name)
	}
}

func TestCreateLedgerPropagatesBuildError(t *testing.T) {
	store := NewStore()
	boom := errors.New("boom")
	_, err := store.CreateLedger(context.Background(), testAdmin, func(uint64) (ports.LedgerDraft, error) {
		return ports.LedgerDraft{}, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestCreateLedgerAllocatesDistinctNonces(t *testing.T) {
	store := NewStore()
	const deploys = 32

	var wg sync.WaitGroup
	nonces := make(chan uint64, deploys)
	errs := make(chan error, deploys)
	for i := 0; i < deploys; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			draft, err := store.CreateLedger(context.Background(), testAdmin, func(nonce uint64) (ports.LedgerDraft, error) {
				return seedDraft(fmt.Sprintf("ledger-%d", nonce), nonce), nil
			})
			errs <- err
			nonces <- draft.Ledger.DeployNonce
		}()
	}
	wg.Wait()
	close(errs)
	close(nonces)

	for err := range errs {
		require.NoError(t, err)
	}
	seen := make(map[uint64]bool, deploys)
	for nonce := range nonces {
		require.False(t, seen[nonce], "nonce %d allocated twice", nonce)
		seen[nonce] = true
	}
	require.Len(t, seen, deploys)
}

func TestWithLedgerDiscardsStagedChangesOnError(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithLedger(ctx, testLedger, func(tx ports.LedgerTx) error {
		if _, err := tx.AppendCandidate(ctx, "Calvin"); err != nil {
			return err
		}
		if _, err := tx.IncrementVote(ctx, 1); err != nil {
			return err
		}
		if _, err := tx.AdvanceSession(ctx); err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, envelope("event-3", 3)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ledger, err := store.GetLedger(ctx, testLedger)
	require.NoError(t, err)
	require.Equal(t, uint64(2), ledger.CandidatesCount)
	require.Equal(t, entities.FirstSession, ledger.CurrentSession)
	require.Equal(t, uint64(2), ledger.EventSequence)

	count, err := store.GetVoteCount(ctx, testLedger, 1, 1)
	require.NoError(t, err)
	require.Zero(t, count)

	events, err := store.ListEvents(ctx, testLedger, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestWithLedgerCommitsStagedChanges(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	err := store.WithLedger(ctx, testLedger, func(tx ports.LedgerTx) error {
		candidate, err := tx.AppendCandidate(ctx, "Calvin")
		require.NoError(t, err)
		require.Equal(t, uint64(3), candidate.ID)
		require.Equal(t, uint64(3), tx.Ledger().CandidatesCount)

		first, err := tx.IncrementVote(ctx, 3)
		require.NoError(t, err)
		second, err := tx.IncrementVote(ctx, 3)
		require.NoError(t, err)
		require.Equal(t, uint64(1), first)
		require.Equal(t, uint64(2), second)

		require.ErrorIs(t, tx.AppendOutbox(ctx, envelope("event-skip", 4)), domainerrors.ErrConflict)
		return tx.AppendOutbox(ctx, envelope("event-3", 3))
	})
	require.NoError(t, err)

	candidate, err := store.GetCandidate(ctx, testLedger, 3)
	require.NoError(t, err)
	require.Equal(t, "Calvin", candidate.Name)

	count, err := store.GetVoteCount(ctx, testLedger, 1, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	events, err := store.ListEvents(ctx, testLedger, 2, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "event-3", events[0].EventID)
}

func TestReadsOnUnknownLedgerAndCandidate(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	_, err := store.GetLedger(ctx, "0x0000000000000000000000000000000000000001")
	require.ErrorIs(t, err, domainerrors.ErrLedgerNotFound)
	err = store.WithLedger(ctx, "0x0000000000000000000000000000000000000001", func(ports.LedgerTx) error { return nil })
	require.ErrorIs(t, err, domainerrors.ErrLedgerNotFound)

	_, err = store.GetCandidate(ctx, testLedger, 0)
	require.ErrorIs(t, err, domainerrors.ErrCandidateNotFound)
	_, err = store.GetCandidate(ctx, testLedger, 3)
	require.ErrorIs(t, err, domainerrors.ErrCandidateNotFound)

	count, err := store.GetVoteCount(ctx, testLedger, 99, 99)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestOutboxPendingOrderAndPublish(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "event-1", pending[0].OutboxID)
	require.Equal(t, uint64(2), pending[1].Sequence)

	require.NoError(t, store.MarkOutboxPublished(ctx, "event-1", time.Now()))
	require.ErrorIs(t, store.MarkOutboxPublished(ctx, "missing", time.Now()), domainerrors.ErrConflict)

	pending, err = store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "event-2", pending[0].OutboxID)

	var decoded ports.EventEnvelope
	require.NoError(t, json.Unmarshal(pending[0].Payload, &decoded))
	require.Equal(t, uint64(2), decoded.Sequence)
}

func TestConcurrentVotesAreSerialized(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithLedger(ctx, testLedger, func(tx ports.LedgerTx) error {
				_, err := tx.IncrementVote(ctx, 1)
				return err
			})
		}()
	}
	wg.Wait()

	count, err := store.GetVoteCount(ctx, testLedger, 1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(voters), count)
}
