package votingledger

import (
	"context"
	"strings"
	"sync"
	"testing"

	"ballotbox/contexts/governance/voting-ledger/adapters/ethaddr"
	"ballotbox/contexts/governance/voting-ledger/domain/entities"
	domainerrors "ballotbox/contexts/governance/voting-ledger/domain/errors"
	httptransport "ballotbox/contexts/governance/voting-ledger/transport/http"

	"github.com/stretchr/testify/require"
)

const (
	alice = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	bob   = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func deploy(t *testing.T, module Module, admin string) string {
	t.Helper()
	resp, err := module.Handler.DeployLedgerHandler(context.Background(), httptransport.DeployLedgerRequest{Admin: admin})
	require.NoError(t, err)
	return resp.Ledger.Address
}

func TestDeploySeedsLedger(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	resp, err := module.Handler.DeployLedgerHandler(ctx, httptransport.DeployLedgerRequest{Admin: strings.ToLower(alice)})
	require.NoError(t, err)
	require.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", resp.Ledger.Address)
	require.Equal(t, alice, resp.Ledger.Owner)
	require.Equal(t, uint64(1), resp.Ledger.CurrentSession)
	require.Equal(t, []httptransport.CandidateResponse{{ID: 1, Name: "Alice"}, {ID: 2, Name: "Bob"}}, resp.Candidates)

	address := resp.Ledger.Address
	owner, err := module.Handler.OwnerHandler(ctx, address)
	require.NoError(t, err)
	require.Equal(t, alice, owner.Owner)

	count, err := module.Handler.CandidatesCountHandler(ctx, address)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count.Count)

	session, err := module.Handler.SessionHandler(ctx, address)
	require.NoError(t, err)
	require.Equal(t, uint64(1), session.Session)

	events, err := module.Handler.EventsHandler(ctx, address, 0, 0)
	require.NoError(t, err)
	require.Len(t, events.Items, 3)
	require.Equal(t, string(entities.EventOwnershipTransferred), events.Items[0].Type)
	require.Equal(t, alice, events.Items[0].Args["new_owner"])
	require.Equal(t, string(entities.EventCandidateAdded), events.Items[2].Type)
	require.Equal(t, uint64(2), events.Items[2].Args["id"])
	require.Equal(t, "Bob", events.Items[2].Args["name"])
	for i, item := range events.Items {
		require.Equal(t, uint64(i+1), item.Sequence)
	}

	// Each deploy by the same admin lands on a fresh address.
	again := deploy(t, module, alice)
	require.NotEqual(t, address, again)
}

func TestVotingScenarioAcrossSessions(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()
	address := deploy(t, module, alice)

	vote, err := module.Handler.VoteHandler(ctx, address, bob, httptransport.VoteRequest{CandidateID: 1})
	require.NoError(t, err)
	require.Equal(t, uint64(1), vote.Count)
	require.Equal(t, string(entities.EventVoteReceived), vote.Event.Type)
	require.Equal(t, uint64(4), vote.Event.Sequence)

	tally, err := module.Handler.VoteCountHandler(ctx, address, 1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), tally.Count)

	added, err := module.Handler.AddCandidateHandler(ctx, address, alice, httptransport.AddCandidateRequest{Name: "Calvin"})
	require.NoError(t, err)
	require.Equal(t, uint64(3), added.Candidate.ID)
	require.Equal(t, "Calvin", added.Event.Args["name"])

	_, err = module.Handler.VoteHandler(ctx, address, bob, httptransport.VoteRequest{CandidateID: 3})
	require.NoError(t, err)
	tally, err = module.Handler.VoteCountHandler(ctx, address, 1, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(1), tally.Count)

	reset, err := module.Handler.ResetVotesHandler(ctx, address, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(1), reset.PreviousSession)
	require.Equal(t, uint64(2), reset.Session)
	require.Equal(t, uint64(2), reset.Event.Args["session"])

	for _, id := range []uint64{1, 3} {
		tally, err = module.Handler.VoteCountHandler(ctx, address, 2, id)
		require.NoError(t, err)
		require.Zero(t, tally.Count)
	}
	tally, err = module.Handler.VoteCountHandler(ctx, address, 1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), tally.Count)

	candidates, err := module.Handler.CandidatesHandler(ctx, address)
	require.NoError(t, err)
	require.Len(t, candidates.Items, 3)
}

func TestOwnerOnlyOperationsRejectOthers(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()
	address := deploy(t, module, alice)

	_, err := module.Handler.AddCandidateHandler(ctx, address, bob, httptransport.AddCandidateRequest{Name: "Mallory"})
	require.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	require.Contains(t, err.Error(), bob)

	_, err = module.Handler.ResetVotesHandler(ctx, address, bob)
	require.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	ledger, err := module.Handler.LedgerHandler(ctx, address)
	require.NoError(t, err)
	require.Equal(t, uint64(2), ledger.CandidatesCount)
	require.Equal(t, uint64(1), ledger.CurrentSession)
	require.Equal(t, uint64(3), ledger.EventSequence)
}

func TestVoteRejectsOutOfRangeCandidate(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()
	address := deploy(t, module, alice)

	for _, id := range []uint64{0, 3, 1 << 40} {
		_, err := module.Handler.VoteHandler(ctx, address, bob, httptransport.VoteRequest{CandidateID: id})
		require.ErrorIs(t, err, domainerrors.ErrInvalidCandidate)
		require.Equal(t, "voting: invalid candidate id", err.Error())
	}

	events, err := module.Handler.EventsHandler(ctx, address, 0, 0)
	require.NoError(t, err)
	require.Len(t, events.Items, 3)
}

func TestRepeatVotesAccumulate(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()
	address := deploy(t, module, alice)

	for i := 1; i <= 3; i++ {
		vote, err := module.Handler.VoteHandler(ctx, address, bob, httptransport.VoteRequest{CandidateID: 2})
		require.NoError(t, err)
		require.Equal(t, uint64(i), vote.Count)
	}

	data, err := module.Handler.CandidateDataHandler(ctx, address, 2)
	require.NoError(t, err)
	require.Equal(t, httptransport.CandidateDataResponse{ID: 2, Name: "Bob", Session: 1, Votes: 3}, data)
}

func TestResetTwiceKeepsEveryHistoricalTally(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()
	address := deploy(t, module, alice)

	_, err := module.Handler.VoteHandler(ctx, address, bob, httptransport.VoteRequest{CandidateID: 1})
	require.NoError(t, err)
	_, err = module.Handler.ResetVotesHandler(ctx, address, alice)
	require.NoError(t, err)
	_, err = module.Handler.VoteHandler(ctx, address, bob, httptransport.VoteRequest{CandidateID: 1})
	require.NoError(t, err)
	_, err = module.Handler.VoteHandler(ctx, address, alice, httptransport.VoteRequest{CandidateID: 1})
	require.NoError(t, err)
	reset, err := module.Handler.ResetVotesHandler(ctx, address, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(3), reset.Session)

	expected := map[uint64]uint64{1: 1, 2: 2, 3: 0}
	for session, want := range expected {
		tally, err := module.Handler.VoteCountHandler(ctx, address, session, 1)
		require.NoError(t, err)
		require.Equalf(t, want, tally.Count, "session %d", session)
	}
}

func TestNamesAreStoredVerbatim(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()
	address := deploy(t, module, alice)

	for _, name := range []string{"", "Alice", "  spaced  "} {
		_, err := module.Handler.AddCandidateHandler(ctx, address, alice, httptransport.AddCandidateRequest{Name: name})
		require.NoError(t, err)
	}
	candidates, err := module.Handler.CandidatesHandler(ctx, address)
	require.NoError(t, err)
	require.Len(t, candidates.Items, 5)
	require.Equal(t, "", candidates.Items[2].Name)
	require.Equal(t, "Alice", candidates.Items[3].Name)
	require.Equal(t, "  spaced  ", candidates.Items[4].Name)
}

func TestLookupErrors(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()
	address := deploy(t, module, alice)

	_, err := module.Handler.CandidateHandler(ctx, address, 9)
	require.ErrorIs(t, err, domainerrors.ErrCandidateNotFound)

	tally, err := module.Handler.VoteCountHandler(ctx, address, 7, 9)
	require.NoError(t, err)
	require.Zero(t, tally.Count)

	_, err = module.Handler.OwnerHandler(ctx, bob)
	require.ErrorIs(t, err, domainerrors.ErrLedgerNotFound)

	_, err = module.Handler.VoteHandler(ctx, address, "not-an-address", httptransport.VoteRequest{CandidateID: 1})
	require.ErrorIs(t, err, domainerrors.ErrInvalidAddress)

	_, err = module.Handler.DeployLedgerHandler(ctx, httptransport.DeployLedgerRequest{Admin: ""})
	require.ErrorIs(t, err, domainerrors.ErrInvalidAddress)
}

func TestEventsPageAfterSequence(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()
	address := deploy(t, module, alice)
	for i := 0; i < 4; i++ {
		_, err := module.Handler.VoteHandler(ctx, address, bob, httptransport.VoteRequest{CandidateID: 1})
		require.NoError(t, err)
	}

	page, err := module.Handler.EventsHandler(ctx, address, 3, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, uint64(4), page.Items[0].Sequence)
	require.Equal(t, uint64(1), page.Items[0].Args["count"])
	require.Equal(t, bob, page.Items[0].Caller)

	page, err = module.Handler.EventsHandler(ctx, address, 7, 0)
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestConcurrentVotersNeverLoseVotes(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()
	address := deploy(t, module, alice)

	const voters = 40
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, _ = module.Handler.VoteHandler(ctx, address, bob, httptransport.VoteRequest{CandidateID: id})
		}(uint64(i%2 + 1))
	}
	wg.Wait()

	for _, id := range []uint64{1, 2} {
		tally, err := module.Handler.VoteCountHandler(ctx, address, 1, id)
		require.NoError(t, err)
		require.Equal(t, uint64(voters/2), tally.Count)
	}
	events, err := module.Handler.EventsHandler(ctx, address, 0, 1000)
	require.NoError(t, err)
	require.Len(t, events.Items, 3+voters)
}

func TestConcurrentDeploysBySameAdminGetDistinctLedgers(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	const deploys = 24
	var wg sync.WaitGroup
	addresses := make(chan string, deploys)
	errs := make(chan error, deploys)
	for i := 0; i < deploys; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := module.Handler.DeployLedgerHandler(ctx, httptransport.DeployLedgerRequest{Admin: alice})
			errs <- err
			addresses <- resp.Ledger.Address
		}()
	}
	wg.Wait()
	close(errs)
	close(addresses)

	for err := range errs {
		require.NoError(t, err)
	}
	got := make(map[string]bool, deploys)
	for address := range addresses {
		got[address] = true
	}

	// The ledgers occupy exactly nonces 0..deploys-1 of the admin.
	want := make(map[string]bool, deploys)
	for nonce := uint64(0); nonce < deploys; nonce++ {
		address, err := ethaddr.AddressBook{}.LedgerAddress(alice, nonce)
		require.NoError(t, err)
		want[address] = true
	}
	require.Equal(t, want, got)
}
