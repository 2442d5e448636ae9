package queries

import (
	"context"

	application "ballotbox/contexts/governance/voting-ledger/application"
	"ballotbox/contexts/governance/voting-ledger/domain/entities"
	"ballotbox/contexts/governance/voting-ledger/ports"
)

const (
	defaultEventPageSize = 100
	maxEventPageSize     = 1000
)

// LedgerQueries serves the side-effect free read surface of a ledger.
type LedgerQueries struct {
	Ledgers   ports.LedgerRepository
	Addresses ports.AddressBook
}

func (uc LedgerQueries) Ledger(ctx context.Context, address string) (entities.Ledger, error) {
	normalized, err := uc.Addresses.Normalize(address)
	if err != nil {
		return entities.Ledger{}, err
	}
	return uc.Ledgers.GetLedger(ctx, normalized)
}

func (uc LedgerQueries) Owner(ctx context.Context, address string) (string, error) {
	ledger, err := uc.Ledger(ctx, address)
	if err != nil {
		return "", err
	}
	return ledger.Admin, nil
}

func (uc LedgerQueries) CandidatesCount(ctx context.Context, address string) (uint64, error) {
	ledger, err := uc.Ledger(ctx, address)
	if err != nil {
		return 0, err
	}
	return ledger.CandidatesCount, nil
}

func (uc LedgerQueries) CurrentSession(ctx context.Context, address string) (uint64, error) {
	ledger, err := uc.Ledger(ctx, address)
	if err != nil {
		return 0, err
	}
	return ledger.CurrentSession, nil
}

// GetCandidates returns every registered candidate in ascending id order.
func (uc LedgerQueries) GetCandidates(ctx context.Context, address string) ([]entities.Candidate, error) {
	ledger, err := uc.Ledger(ctx, address)
	if err != nil {
		return nil, err
	}
	return uc.Ledgers.ListCandidates(ctx, ledger.Address)
}

func (uc LedgerQueries) Candidate(ctx context.Context, address string, candidateID uint64) (entities.Candidate, error) {
	ledger, err := uc.Ledger(ctx, address)
	if err != nil {
		return entities.Candidate{}, err
	}
	return uc.Ledgers.GetCandidate(ctx, ledger.Address, candidateID)
}

// VoteCount returns the tally for (session, candidateID). Pairs that never
// received a vote read 0, whether or not they are in range.
func (uc LedgerQueries) VoteCount(ctx context.Context, address string, session uint64, candidateID uint64) (uint64, error) {
	ledger, err := uc.Ledger(ctx, address)
	if err != nil {
		return 0, err
	}
	return uc.Ledgers.GetVoteCount(ctx, ledger.Address, session, candidateID)
}

// GetCandidateData returns the candidate with its tally in the current session.
func (uc LedgerQueries) GetCandidateData(ctx context.Context, address string, candidateID uint64) (entities.CandidateData, error) {
	ledger, err := uc.Ledger(ctx, address)
	if err != nil {
		return entities.CandidateData{}, err
	}
	candidate, err := uc.Ledgers.GetCandidate(ctx, ledger.Address, candidateID)
	if err != nil {
		return entities.CandidateData{}, err
	}
	votes, err := uc.Ledgers.GetVoteCount(ctx, ledger.Address, ledger.CurrentSession, candidateID)
	if err != nil {
		return entities.CandidateData{}, err
	}
	return entities.CandidateData{
		Candidate: candidate,
		Session:   ledger.CurrentSession,
		Votes:     votes,
	}, nil
}

// ListEvents pages through the ledger's notification log in sequence order,
// starting after afterSequence.
func (uc LedgerQueries) ListEvents(ctx context.Context, address string, afterSequence uint64, limit int) ([]entities.LedgerEvent, error) {
	ledger, err := uc.Ledger(ctx, address)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultEventPageSize
	}
	if limit > maxEventPageSize {
		limit = maxEventPageSize
	}
	envelopes, err := uc.Ledgers.ListEvents(ctx, ledger.Address, afterSequence, limit)
	if err != nil {
		return nil, err
	}
	items := make([]entities.LedgerEvent, 0, len(envelopes))
	for _, envelope := range envelopes {
		event, err := application.DecodeEvent(envelope)
		if err != nil {
			return nil, err
		}
		items = append(items, event)
	}
	return items, nil
}
