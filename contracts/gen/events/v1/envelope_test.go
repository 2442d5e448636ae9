package v1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeValidate(t *testing.T) {
	valid := Envelope{
		EventID:       "evt-1",
		EventType:     "ledger.vote_received",
		Sequence:      4,
		SchemaVersion: 1,
		PartitionKey:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Data:          json.RawMessage(`{"candidate_id":1,"count":1}`),
	}
	require.NoError(t, valid.Validate())

	broken := []func(*Envelope){
		func(e *Envelope) { e.EventID = "" },
		func(e *Envelope) { e.EventType = "" },
		func(e *Envelope) { e.Sequence = 0 },
		func(e *Envelope) { e.SchemaVersion = 0 },
		func(e *Envelope) { e.PartitionKey = "" },
		func(e *Envelope) { e.Data = json.RawMessage(`{"count":`) },
	}
	for _, mutate := range broken {
		envelope := valid
		mutate(&envelope)
		require.ErrorIs(t, envelope.Validate(), ErrInvalidEnvelope)
	}
}
