package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DeployLedgerRequest struct {
	Admin string `json:"admin"`
}

type AddCandidateRequest struct {
	Name string `json:"name"`
}

type VoteRequest struct {
	CandidateID uint64 `json:"candidate_id"`
}

type LedgerResponse struct {
	Address         string    `json:"address"`
	Owner           string    `json:"owner"`
	CurrentSession  uint64    `json:"current_session"`
	CandidatesCount uint64    `json:"candidates_count"`
	EventSequence   uint64    `json:"event_sequence"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type DeployLedgerResponse struct {
	Ledger     LedgerResponse      `json:"ledger"`
	Candidates []CandidateResponse `json:"candidates"`
}

type OwnerResponse struct {
	Owner string `json:"owner"`
}

type CandidateResponse struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type CandidatesResponse struct {
	Items []CandidateResponse `json:"items"`
}

type CandidateDataResponse struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Session uint64 `json:"session"`
	Votes   uint64 `json:"votes"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type SessionResponse struct {
	Session uint64 `json:"session"`
}

type VoteCountResponse struct {
	Session     uint64 `json:"session"`
	CandidateID uint64 `json:"candidate_id"`
	Count       uint64 `json:"count"`
}

type VoteResponse struct {
	CandidateID uint64        `json:"candidate_id"`
	Session     uint64        `json:"session"`
	Count       uint64        `json:"count"`
	Event       EventResponse `json:"event"`
}

type AddCandidateResponse struct {
	Candidate CandidateResponse `json:"candidate"`
	Event     EventResponse     `json:"event"`
}

type ResetVotesResponse struct {
	PreviousSession uint64        `json:"previous_session"`
	Session         uint64        `json:"session"`
	Event           EventResponse `json:"event"`
}

type EventResponse struct {
	EventID    string         `json:"event_id"`
	Sequence   uint64         `json:"sequence"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Caller     string         `json:"caller,omitempty"`
	Args       map[string]any `json:"args"`
}

type EventsResponse struct {
	Items []EventResponse `json:"items"`
}
