package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Envelope is the canonical, versioned shape of every ledger notification.
// Sequence is the per-ledger log index; consumers order by it, never by OccurredAt.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	Sequence         uint64          `json:"sequence"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Validate reports the first missing or malformed field. Relays call it
// before publishing so a broken row is never delivered.
func (e Envelope) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("%w: event_id is empty", ErrInvalidEnvelope)
	case e.EventType == "":
		return fmt.Errorf("%w: event_type is empty", ErrInvalidEnvelope)
	case e.Sequence == 0:
		return fmt.Errorf("%w: sequence starts at 1", ErrInvalidEnvelope)
	case e.SchemaVersion <= 0:
		return fmt.Errorf("%w: schema_version %d", ErrInvalidEnvelope, e.SchemaVersion)
	case e.PartitionKey == "":
		return fmt.Errorf("%w: partition_key is empty", ErrInvalidEnvelope)
	case !json.Valid(e.Data):
		return fmt.Errorf("%w: data is not json", ErrInvalidEnvelope)
	}
	return nil
}
