package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "ballotbox/contexts/governance/voting-ledger/application"
	"ballotbox/contexts/governance/voting-ledger/domain/entities"
	domainerrors "ballotbox/contexts/governance/voting-ledger/domain/errors"
	"ballotbox/contexts/governance/voting-ledger/ports"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// DeployLedgerCommand constructs a new ledger owned by Admin.
type DeployLedgerCommand struct {
	Admin string
}

type DeployLedgerResult struct {
	Ledger     entities.Ledger
	Candidates []entities.Candidate
	Events     []entities.LedgerEvent
}

type AddCandidateCommand struct {
	LedgerAddress string
	Caller        string
	Name          string
}

type AddCandidateResult struct {
	Candidate entities.Candidate
	Event     entities.LedgerEvent
}

type VoteCommand struct {
	LedgerAddress string
	Caller        string
	CandidateID   uint64
}

type VoteResult struct {
	CandidateID uint64
	Session     uint64
	Count       uint64
	Event       entities.LedgerEvent
}

type ResetVotesCommand struct {
	LedgerAddress string
	Caller        string
}

type ResetVotesResult struct {
	PreviousSession uint64
	Session         uint64
	Event           entities.LedgerEvent
}

// LedgerUseCase runs the mutating ledger operations. Authorization and range
// checks happen before anything is staged, and the state change plus its
// event are committed in one unit of work.
type LedgerUseCase struct {
	Ledgers   ports.LedgerRepository
	Addresses ports.AddressBook
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// DeployLedger creates a ledger with the seed candidates and session 1. The
// ledger address is derived from the admin and the admin's deploy count.
func (uc LedgerUseCase) DeployLedger(ctx context.Context, cmd DeployLedgerCommand) (DeployLedgerResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	admin, err := uc.Addresses.Normalize(cmd.Admin)
	if err != nil {
		logger.Warn("ledger deploy rejected: invalid admin",
			"event", "ledger_deploy_invalid_admin",
			"module", "governance/voting-ledger",
			"layer", "application",
			"admin", strings.TrimSpace(cmd.Admin),
		)
		return DeployLedgerResult{}, err
	}

	// The clock is read up front: build runs while the repository
	// holds the admin's nonce allocation.
	now := uc.now()
	var events []entities.LedgerEvent
	build := func(nonce uint64) (ports.LedgerDraft, error) {
		address, err := uc.Addresses.LedgerAddress(admin, nonce)
		if err != nil {
			return ports.LedgerDraft{}, err
		}
		draft, drafted, err := uc.draftLedger(ctx, admin, address, nonce, now)
		events = drafted
		return draft, err
	}
	draft, err := uc.Ledgers.CreateLedger(ctx, admin, build)
	if err != nil {
		logger.Error("ledger deploy failed",
			"event", "ledger_deploy_failed",
			"module", "governance/voting-ledger",
			"layer", "application",
			"admin", admin,
			"error", err.Error(),
		)
		return DeployLedgerResult{}, err
	}

	logger.Info("ledger deployed",
		"event", "ledger_deployed",
		"module", "governance/voting-ledger",
		"layer", "application",
		"ledger_address", draft.Ledger.Address,
		"admin", admin,
		"deploy_nonce", draft.Ledger.DeployNonce,
	)
	return DeployLedgerResult{Ledger: draft.Ledger, Candidates: draft.Candidates, Events: events}, nil
}

// draftLedger builds the deployed state: seed candidates, session 1 and the
// OwnershipTransferred + CandidateAdded events at sequences 1..n.
func (uc LedgerUseCase) draftLedger(
	ctx context.Context,
	admin string,
	address string,
	nonce uint64,
	now time.Time,
) (ports.LedgerDraft, []entities.LedgerEvent, error) {
	ledger := entities.Ledger{
		Address:        address,
		Admin:          admin,
		DeployNonce:    nonce,
		CurrentSession: entities.FirstSession,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	candidates := make([]entities.Candidate, 0, len(entities.SeedCandidates))
	events := make([]entities.LedgerEvent, 0, len(entities.SeedCandidates)+1)
	ownership, err := uc.newEvent(ctx, &ledger, entities.LedgerEvent{
		Type:          entities.EventOwnershipTransferred,
		PreviousOwner: zeroAddress,
		NewOwner:      admin,
		Caller:        admin,
	}, now)
	if err != nil {
		return ports.LedgerDraft{}, nil, err
	}
	events = append(events, ownership)
	for _, name := range entities.SeedCandidates {
		ledger.CandidatesCount++
		candidate := entities.Candidate{ID: ledger.CandidatesCount, Name: name}
		candidates = append(candidates, candidate)
		added, err := uc.newEvent(ctx, &ledger, entities.LedgerEvent{
			Type:          entities.EventCandidateAdded,
			CandidateID:   candidate.ID,
			CandidateName: candidate.Name,
			Caller:        admin,
		}, now)
		if err != nil {
			return ports.LedgerDraft{}, nil, err
		}
		events = append(events, added)
	}

	envelopes := make([]ports.EventEnvelope, 0, len(events))
	for _, event := range events {
		envelope, err := application.EncodeEvent(event)
		if err != nil {
			return ports.LedgerDraft{}, nil, err
		}
		envelopes = append(envelopes, envelope)
	}
	return ports.LedgerDraft{Ledger: ledger, Candidates: candidates, Events: envelopes}, events, nil
}

// AddCandidate registers a candidate under the next sequential id. Only the
// admin may call it; names are stored as given.
func (uc LedgerUseCase) AddCandidate(ctx context.Context, cmd AddCandidateCommand) (AddCandidateResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	address, caller, err := uc.resolveParties(cmd.LedgerAddress, cmd.Caller)
	if err != nil {
		return AddCandidateResult{}, err
	}

	var result AddCandidateResult
	err = uc.Ledgers.WithLedger(ctx, address, func(tx ports.LedgerTx) error {
		ledger := tx.Ledger()
		if !ledger.IsAdmin(caller) {
			return fmt.Errorf("%w: %s", domainerrors.ErrUnauthorized, caller)
		}
		candidate, err := tx.AppendCandidate(ctx, cmd.Name)
		if err != nil {
			return err
		}
		event, err := uc.appendEvent(ctx, tx, entities.LedgerEvent{
			Type:          entities.EventCandidateAdded,
			CandidateID:   candidate.ID,
			CandidateName: candidate.Name,
			Caller:        caller,
		})
		if err != nil {
			return err
		}
		result = AddCandidateResult{Candidate: candidate, Event: event}
		return nil
	})
	if err != nil {
		uc.logRejected(logger, "candidate add rejected", "ledger_candidate_add_rejected", address, caller, err)
		return AddCandidateResult{}, err
	}

	logger.Info("candidate added",
		"event", "ledger_candidate_added",
		"module", "governance/voting-ledger",
		"layer", "application",
		"ledger_address", address,
		"candidate_id", result.Candidate.ID,
		"caller", caller,
	)
	return result, nil
}

// Vote adds one vote for the candidate in the current session. Any caller may
// vote, any number of times.
func (uc LedgerUseCase) Vote(ctx context.Context, cmd VoteCommand) (VoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	address, caller, err := uc.resolveParties(cmd.LedgerAddress, cmd.Caller)
	if err != nil {
		return VoteResult{}, err
	}

	var result VoteResult
	err = uc.Ledgers.WithLedger(ctx, address, func(tx ports.LedgerTx) error {
		ledger := tx.Ledger()
		if !ledger.ValidCandidate(cmd.CandidateID) {
			return domainerrors.ErrInvalidCandidate
		}
		count, err := tx.IncrementVote(ctx, cmd.CandidateID)
		if err != nil {
			return err
		}
		event, err := uc.appendEvent(ctx, tx, entities.LedgerEvent{
			Type:        entities.EventVoteReceived,
			CandidateID: cmd.CandidateID,
			Count:       count,
			Session:     ledger.CurrentSession,
			Caller:      caller,
		})
		if err != nil {
			return err
		}
		result = VoteResult{
			CandidateID: cmd.CandidateID,
			Session:     ledger.CurrentSession,
			Count:       count,
			Event:       event,
		}
		return nil
	})
	if err != nil {
		uc.logRejected(logger, "vote rejected", "ledger_vote_rejected", address, caller, err,
			"candidate_id", cmd.CandidateID,
		)
		return VoteResult{}, err
	}

	logger.Info("vote received",
		"event", "ledger_vote_received",
		"module", "governance/voting-ledger",
		"layer", "application",
		"ledger_address", address,
		"candidate_id", result.CandidateID,
		"session", result.Session,
		"count", result.Count,
		"caller", caller,
	)
	return result, nil
}

// ResetVotes moves the ledger to the next session. Tallies of earlier
// sessions are left in place and stay readable by session number.
func (uc LedgerUseCase) ResetVotes(ctx context.Context, cmd ResetVotesCommand) (ResetVotesResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	address, caller, err := uc.resolveParties(cmd.LedgerAddress, cmd.Caller)
	if err != nil {
		return ResetVotesResult{}, err
	}

	var result ResetVotesResult
	err = uc.Ledgers.WithLedger(ctx, address, func(tx ports.LedgerTx) error {
		ledger := tx.Ledger()
		if !ledger.IsAdmin(caller) {
			return fmt.Errorf("%w: %s", domainerrors.ErrUnauthorized, caller)
		}
		session, err := tx.AdvanceSession(ctx)
		if err != nil {
			return err
		}
		event, err := uc.appendEvent(ctx, tx, entities.LedgerEvent{
			Type:    entities.EventVotesReset,
			Session: session,
			Caller:  caller,
		})
		if err != nil {
			return err
		}
		result = ResetVotesResult{
			PreviousSession: ledger.CurrentSession,
			Session:         session,
			Event:           event,
		}
		return nil
	})
	if err != nil {
		uc.logRejected(logger, "votes reset rejected", "ledger_votes_reset_rejected", address, caller, err)
		return ResetVotesResult{}, err
	}

	logger.Info("votes reset",
		"event", "ledger_votes_reset",
		"module", "governance/voting-ledger",
		"layer", "application",
		"ledger_address", address,
		"previous_session", result.PreviousSession,
		"session", result.Session,
		"caller", caller,
	)
	return result, nil
}

func (uc LedgerUseCase) resolveParties(ledgerAddress string, caller string) (string, string, error) {
	address, err := uc.Addresses.Normalize(ledgerAddress)
	if err != nil {
		return "", "", err
	}
	account, err := uc.Addresses.Normalize(caller)
	if err != nil {
		return "", "", err
	}
	return address, account, nil
}

// appendEvent stamps the event with the next log sequence of the ledger in tx
// and stages it in the outbox.
func (uc LedgerUseCase) appendEvent(ctx context.Context, tx ports.LedgerTx, event entities.LedgerEvent) (entities.LedgerEvent, error) {
	ledger := tx.Ledger()
	event, err := uc.newEvent(ctx, &ledger, event, uc.now())
	if err != nil {
		return entities.LedgerEvent{}, err
	}
	envelope, err := application.EncodeEvent(event)
	if err != nil {
		return entities.LedgerEvent{}, err
	}
	if err := tx.AppendOutbox(ctx, envelope); err != nil {
		return entities.LedgerEvent{}, err
	}
	return event, nil
}

// newEvent fills identity fields and advances ledger.EventSequence.
func (uc LedgerUseCase) newEvent(
	ctx context.Context,
	ledger *entities.Ledger,
	event entities.LedgerEvent,
	occurredAt time.Time,
) (entities.LedgerEvent, error) {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.LedgerEvent{}, err
	}
	ledger.EventSequence++
	event.EventID = eventID
	event.LedgerAddress = ledger.Address
	event.Sequence = ledger.EventSequence
	event.OccurredAt = occurredAt
	return event, nil
}

func (uc LedgerUseCase) logRejected(
	logger *slog.Logger,
	msg string,
	event string,
	address string,
	caller string,
	err error,
	attrs ...any,
) {
	fields := make([]any, 0, len(attrs)+12)
	fields = append(fields,
		"event", event,
		"module", "governance/voting-ledger",
		"layer", "application",
		"ledger_address", address,
		"caller", caller,
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	logger.Warn(msg, fields...)
}

func (uc LedgerUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
