package httpadapter

import (
	"context"
	"log/slog"

	"ballotbox/contexts/governance/voting-ledger/application/commands"
	"ballotbox/contexts/governance/voting-ledger/application/queries"
	"ballotbox/contexts/governance/voting-ledger/domain/entities"
	httptransport "ballotbox/contexts/governance/voting-ledger/transport/http"
)

type Handler struct {
	Commands commands.LedgerUseCase
	Queries  queries.LedgerQueries
	Logger   *slog.Logger
}

func (h Handler) DeployLedgerHandler(ctx context.Context, req httptransport.DeployLedgerRequest) (httptransport.DeployLedgerResponse, error) {
	result, err := h.Commands.DeployLedger(ctx, commands.DeployLedgerCommand{Admin: req.Admin})
	if err != nil {
		return httptransport.DeployLedgerResponse{}, err
	}
	return httptransport.DeployLedgerResponse{
		Ledger:     mapLedger(result.Ledger),
		Candidates: mapCandidates(result.Candidates),
	}, nil
}

func (h Handler) LedgerHandler(ctx context.Context, address string) (httptransport.LedgerResponse, error) {
	ledger, err := h.Queries.Ledger(ctx, address)
	if err != nil {
		return httptransport.LedgerResponse{}, err
	}
	return mapLedger(ledger), nil
}

func (h Handler) OwnerHandler(ctx context.Context, address string) (httptransport.OwnerResponse, error) {
	owner, err := h.Queries.Owner(ctx, address)
	if err != nil {
		return httptransport.OwnerResponse{}, err
	}
	return httptransport.OwnerResponse{Owner: owner}, nil
}

func (h Handler) CandidatesHandler(ctx context.Context, address string) (httptransport.CandidatesResponse, error) {
	items, err := h.Queries.GetCandidates(ctx, address)
	if err != nil {
		return httptransport.CandidatesResponse{}, err
	}
	return httptransport.CandidatesResponse{Items: mapCandidates(items)}, nil
}

func (h Handler) CandidateHandler(ctx context.Context, address string, candidateID uint64) (httptransport.CandidateResponse, error) {
	candidate, err := h.Queries.Candidate(ctx, address, candidateID)
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(candidate), nil
}

func (h Handler) CandidateDataHandler(ctx context.Context, address string, candidateID uint64) (httptransport.CandidateDataResponse, error) {
	data, err := h.Queries.GetCandidateData(ctx, address, candidateID)
	if err != nil {
		return httptransport.CandidateDataResponse{}, err
	}
	return httptransport.CandidateDataResponse{
		ID:      data.Candidate.ID,
		Name:    data.Candidate.Name,
		Session: data.Session,
		Votes:   data.Votes,
	}, nil
}

func (h Handler) CandidatesCountHandler(ctx context.Context, address string) (httptransport.CountResponse, error) {
	count, err := h.Queries.CandidatesCount(ctx, address)
	if err != nil {
		return httptransport.CountResponse{}, err
	}
	return httptransport.CountResponse{Count: count}, nil
}

func (h Handler) SessionHandler(ctx context.Context, address string) (httptransport.SessionResponse, error) {
	session, err := h.Queries.CurrentSession(ctx, address)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return httptransport.SessionResponse{Session: session}, nil
}

func (h Handler) VoteCountHandler(ctx context.Context, address string, session uint64, candidateID uint64) (httptransport.VoteCountResponse, error) {
	count, err := h.Queries.VoteCount(ctx, address, session, candidateID)
	if err != nil {
		return httptransport.VoteCountResponse{}, err
	}
	return httptransport.VoteCountResponse{
		Session:     session,
		CandidateID: candidateID,
		Count:       count,
	}, nil
}

func (h Handler) AddCandidateHandler(
	ctx context.Context,
	address string,
	caller string,
	req httptransport.AddCandidateRequest,
) (httptransport.AddCandidateResponse, error) {
	result, err := h.Commands.AddCandidate(ctx, commands.AddCandidateCommand{
		LedgerAddress: address,
		Caller:        caller,
		Name:          req.Name,
	})
	if err != nil {
		return httptransport.AddCandidateResponse{}, err
	}
	return httptransport.AddCandidateResponse{
		Candidate: mapCandidate(result.Candidate),
		Event:     mapEvent(result.Event),
	}, nil
}

func (h Handler) VoteHandler(
	ctx context.Context,
	address string,
	caller string,
	req httptransport.VoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Commands.Vote(ctx, commands.VoteCommand{
		LedgerAddress: address,
		Caller:        caller,
		CandidateID:   req.CandidateID,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		CandidateID: result.CandidateID,
		Session:     result.Session,
		Count:       result.Count,
		Event:       mapEvent(result.Event),
	}, nil
}

func (h Handler) ResetVotesHandler(ctx context.Context, address string, caller string) (httptransport.ResetVotesResponse, error) {
	result, err := h.Commands.ResetVotes(ctx, commands.ResetVotesCommand{
		LedgerAddress: address,
		Caller:        caller,
	})
	if err != nil {
		return httptransport.ResetVotesResponse{}, err
	}
	return httptransport.ResetVotesResponse{
		PreviousSession: result.PreviousSession,
		Session:         result.Session,
		Event:           mapEvent(result.Event),
	}, nil
}

func (h Handler) EventsHandler(ctx context.Context, address string, afterSequence uint64, limit int) (httptransport.EventsResponse, error) {
	events, err := h.Queries.ListEvents(ctx, address, afterSequence, limit)
	if err != nil {
		return httptransport.EventsResponse{}, err
	}
	items := make([]httptransport.EventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, mapEvent(event))
	}
	return httptransport.EventsResponse{Items: items}, nil
}

func mapLedger(ledger entities.Ledger) httptransport.LedgerResponse {
	return httptransport.LedgerResponse{
		Address:         ledger.Address,
		Owner:           ledger.Admin,
		CurrentSession:  ledger.CurrentSession,
		CandidatesCount: ledger.CandidatesCount,
		EventSequence:   ledger.EventSequence,
		CreatedAt:       ledger.CreatedAt,
		UpdatedAt:       ledger.UpdatedAt,
	}
}

func mapCandidate(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{ID: candidate.ID, Name: candidate.Name}
}

func mapCandidates(items []entities.Candidate) []httptransport.CandidateResponse {
	result := make([]httptransport.CandidateResponse, 0, len(items))
	for _, item := range items {
		result = append(result, mapCandidate(item))
	}
	return result
}

func mapEvent(event entities.LedgerEvent) httptransport.EventResponse {
	return httptransport.EventResponse{
		EventID:    event.EventID,
		Sequence:   event.Sequence,
		Type:       string(event.Type),
		OccurredAt: event.OccurredAt,
		Caller:     event.Caller,
		Args:       event.Args(),
	}
}
