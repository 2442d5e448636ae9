package entities

import "time"

type EventType string

const (
	EventOwnershipTransferred EventType = "ledger.ownership_transferred"
	EventCandidateAdded       EventType = "ledger.candidate_added"
	EventVoteReceived         EventType = "ledger.vote_received"
	EventVotesReset           EventType = "ledger.votes_reset"
)

// LedgerEvent is one entry of a ledger's append-only notification log.
// Only the fields relevant to Type are populated.
type LedgerEvent struct {
	EventID       string
	LedgerAddress string
	Sequence      uint64
	Type          EventType
	OccurredAt    time.Time

	CandidateID   uint64
	CandidateName string
	Count         uint64
	Session       uint64
	PreviousOwner string
	NewOwner      string
	Caller        string
}

// Args returns the event arguments as they are exposed to observers.
func (e LedgerEvent) Args() map[string]any {
	switch e.Type {
	case EventOwnershipTransferred:
		return map[string]any{
			"previous_owner": e.PreviousOwner,
			"new_owner":      e.NewOwner,
		}
	case EventCandidateAdded:
		return map[string]any{
			"id":   e.CandidateID,
			"name": e.CandidateName,
		}
	case EventVoteReceived:
		return map[string]any{
			"candidate_id": e.CandidateID,
			"count":        e.Count,
		}
	case EventVotesReset:
		return map[string]any{
			"session": e.Session,
		}
	default:
		return map[string]any{}
	}
}
