package bootstrap

import (
	"context"
	"log/slog"
	"testing"
	"time"

	votingledger "ballotbox/contexts/governance/voting-ledger"
	ledgerhttp "ballotbox/contexts/governance/voting-ledger/transport/http"
	"ballotbox/internal/platform/config"

	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		ServiceName:    "ballotbox-test",
		HTTPPort:       "127.0.0.1:0",
		LedgerStore:    config.LedgerStoreMemory,
		KafkaBrokers:   []string{"localhost:9092"},
		RelayInProcess: true,
		RelayInterval:  10 * time.Millisecond,
		RelayBatchSize: 10,
		RateLimit:      "off",
	}
}

func TestRelayLoopDrainsMemoryOutbox(t *testing.T) {
	cfg := memoryConfig()
	store, err := openStorage(cfg, slog.Default())
	require.NoError(t, err)

	module := votingledger.NewModule(votingledger.Dependencies{
		Ledgers: store.ledgers,
		Clock:   store.clock,
		IDGen:   store.ids,
	})
	_, err = module.Handler.DeployLedgerHandler(context.Background(), ledgerhttp.DeployLedgerRequest{
		Admin: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	})
	require.NoError(t, err)

	pending, err := store.outbox.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	relay, err := newRelayLoop(cfg, store, slog.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		pending, err := store.outbox.ListPendingOutbox(context.Background(), 10)
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay loop did not stop after cancel")
	}
}

func TestAPIAppStopsOnCancel(t *testing.T) {
	app, err := NewAPI(memoryConfig())
	require.NoError(t, err)
	require.NotNil(t, app.relay)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("api app did not stop after cancel")
	}
	require.NoError(t, app.Close())
}

func TestAPIWithoutInProcessRelay(t *testing.T) {
	cfg := memoryConfig()
	cfg.RelayInProcess = false

	app, err := NewAPI(cfg)
	require.NoError(t, err)
	require.Nil(t, app.relay)
}

func TestNewAPIRejectsBadRateLimit(t *testing.T) {
	cfg := memoryConfig()
	cfg.RateLimit = "lots"

	_, err := NewAPI(cfg)
	require.Error(t, err)
}

func TestWorkerRequiresPostgres(t *testing.T) {
	_, err := NewWorker(memoryConfig())
	require.ErrorIs(t, err, config.ErrMissingConfiguration)
}

func TestOpenStorageRejectsUnknownStore(t *testing.T) {
	cfg := memoryConfig()
	cfg.LedgerStore = "redis"
	_, err := openStorage(cfg, slog.Default())
	require.Error(t, err)

	cfg.LedgerStore = config.LedgerStorePostgres
	_, err = openStorage(cfg, slog.Default())
	require.ErrorIs(t, err, config.ErrMissingConfiguration)
}

func TestNormalizeAddr(t *testing.T) {
	require.Equal(t, ":8080", normalizeAddr(""))
	require.Equal(t, ":9000", normalizeAddr(" 9000 "))
	require.Equal(t, "127.0.0.1:0", normalizeAddr("127.0.0.1:0"))
}
