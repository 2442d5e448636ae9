package application

import (
	"encoding/json"
	"fmt"
	"time"

	"ballotbox/contexts/governance/voting-ledger/domain/entities"
	"ballotbox/contexts/governance/voting-ledger/ports"
)

const (
	SourceService = "voting-ledger"
	SchemaVersion = 1
)

// EventTopics lists every topic the ledger publishes to.
var EventTopics = []string{
	string(entities.EventOwnershipTransferred),
	string(entities.EventCandidateAdded),
	string(entities.EventVoteReceived),
	string(entities.EventVotesReset),
}

type eventData struct {
	LedgerAddress string  `json:"ledger_address"`
	Caller        string  `json:"caller,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
	ID            *uint64 `json:"id,omitempty"`
	Name          *string `json:"name,omitempty"`
	CandidateID   *uint64 `json:"candidate_id,omitempty"`
	Count         *uint64 `json:"count,omitempty"`
	Session       *uint64 `json:"session,omitempty"`
	PreviousOwner *string `json:"previous_owner,omitempty"`
	NewOwner      *string `json:"new_owner,omitempty"`
}

// EncodeEvent builds the canonical envelope for a ledger event. Events are
// partitioned by ledger address so consumers see one ledger's log in order.
func EncodeEvent(event entities.LedgerEvent) (ports.EventEnvelope, error) {
	data := map[string]any{
		"ledger_address": event.LedgerAddress,
		"occurred_at":    event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if event.Caller != "" {
		data["caller"] = event.Caller
	}
	for key, value := range event.Args() {
		data[key] = value
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        string(event.Type),
		Sequence:         event.Sequence,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    SourceService,
		TraceID:          event.EventID,
		SchemaVersion:    SchemaVersion,
		PartitionKeyPath: "ledger_address",
		PartitionKey:     event.LedgerAddress,
		Data:             payload,
	}, nil
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(envelope ports.EventEnvelope) (entities.LedgerEvent, error) {
	var data eventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return entities.LedgerEvent{}, fmt.Errorf("decode ledger event %s: %w", envelope.EventID, err)
	}
	event := entities.LedgerEvent{
		EventID:       envelope.EventID,
		LedgerAddress: envelope.PartitionKey,
		Sequence:      envelope.Sequence,
		Type:          entities.EventType(envelope.EventType),
		OccurredAt:    envelope.OccurredAt.UTC(),
		Caller:        data.Caller,
	}
	if data.LedgerAddress != "" {
		event.LedgerAddress = data.LedgerAddress
	}
	if data.ID != nil {
		event.CandidateID = *data.ID
	}
	if data.CandidateID != nil {
		event.CandidateID = *data.CandidateID
	}
	if data.Name != nil {
		event.CandidateName = *data.Name
	}
	if data.Count != nil {
		event.Count = *data.Count
	}
	if data.Session != nil {
		event.Session = *data.Session
	}
	if data.PreviousOwner != nil {
		event.PreviousOwner = *data.PreviousOwner
	}
	if data.NewOwner != nil {
		event.NewOwner = *data.NewOwner
	}
	return event, nil
}
