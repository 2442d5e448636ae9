package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemClock stamps ledger rows and events in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues event and outbox ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
