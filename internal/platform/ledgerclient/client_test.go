package ledgerclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	votingledger "ballotbox/contexts/governance/voting-ledger"
	"ballotbox/internal/platform/httpserver"

	"github.com/stretchr/testify/require"
)

const (
	owner = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	voter = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func newBackend(t *testing.T) *Client {
	t.Helper()
	server, err := httpserver.New(votingledger.NewInMemoryModule(slog.Default()), slog.Default(), ":0", "off")
	require.NoError(t, err)
	backend := httptest.NewServer(server.Handler())
	t.Cleanup(backend.Close)
	return New(backend.URL+"/", backend.Client())
}

func TestClientDrivesLedger(t *testing.T) {
	client := newBackend(t)
	ctx := context.Background()

	deployed, err := client.Deploy(ctx, owner)
	require.NoError(t, err)
	address := deployed.Ledger.Address

	gotOwner, err := client.Owner(ctx, address)
	require.NoError(t, err)
	require.Equal(t, owner, gotOwner)

	vote, err := client.Vote(ctx, address, voter, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(1), vote.Count)

	added, err := client.AddCandidate(ctx, address, owner, "Calvin")
	require.NoError(t, err)
	require.Equal(t, uint64(3), added.Candidate.ID)

	count, err := client.CandidatesCount(ctx, address)
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)

	candidate, err := client.Candidate(ctx, address, 3)
	require.NoError(t, err)
	require.Equal(t, "Calvin", candidate.Name)

	data, err := client.CandidateData(ctx, address, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(1), data.Votes)

	reset, err := client.ResetVotes(ctx, address, owner)
	require.NoError(t, err)
	require.Equal(t, uint64(2), reset.Session)

	session, err := client.CurrentSession(ctx, address)
	require.NoError(t, err)
	require.Equal(t, uint64(2), session)

	tally, err := client.VoteCount(ctx, address, 1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(1), tally)

	candidates, err := client.Candidates(ctx, address)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	events, err := client.Events(ctx, address, 4, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "ledger.candidate_added", events[0].Type)

	summary, err := client.Ledger(ctx, address)
	require.NoError(t, err)
	require.Equal(t, uint64(6), summary.EventSequence)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	client := newBackend(t)
	ctx := context.Background()

	deployed, err := client.Deploy(ctx, owner)
	require.NoError(t, err)

	_, err = client.ResetVotes(ctx, deployed.Ledger.Address, voter)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 403, apiErr.Status)
	require.Equal(t, "unauthorized", apiErr.Code)

	_, err = client.Vote(ctx, deployed.Ledger.Address, voter, 7)
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "invalid_candidate", apiErr.Code)
	require.Contains(t, err.Error(), "voting: invalid candidate id")
}
