package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	votingledger "ballotbox/contexts/governance/voting-ledger"
	"ballotbox/contexts/governance/voting-ledger/adapters/memory"
	postgresadapter "ballotbox/contexts/governance/voting-ledger/adapters/postgres"
	"ballotbox/contexts/governance/voting-ledger/application/workers"
	"ballotbox/contexts/governance/voting-ledger/ports"
	"ballotbox/internal/platform/config"
	"ballotbox/internal/platform/db"
	"ballotbox/internal/platform/httpserver"
	"ballotbox/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	relay    *relayLoop
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	relay    *relayLoop
	logger   *slog.Logger
}

// relayLoop drains the outbox on an interval and keeps the observer
// subscribed to the bus it publishes to.
type relayLoop struct {
	relay    workers.OutboxRelay
	observer workers.NotificationObserver
	interval time.Duration
	logger   *slog.Logger
}

type storage struct {
	ledgers  ports.LedgerRepository
	outbox   ports.OutboxRepository
	clock    ports.Clock
	ids      ports.IDGenerator
	postgres *db.Postgres
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewAPI(cfg)
}

// NewAPI wires the API process from an already loaded config.
func NewAPI(cfg config.Config) (*APIApp, error) {
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	store, err := openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	module := votingledger.NewModule(votingledger.Dependencies{
		Ledgers: store.ledgers,
		Clock:   store.clock,
		IDGen:   store.ids,
		Logger:  logger,
	})
	server, err := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort), cfg.RateLimit)
	if err != nil {
		_ = store.postgres.Close()
		return nil, err
	}

	app := &APIApp{
		server:   server,
		postgres: store.postgres,
		logger:   logger,
	}
	if cfg.RelayInProcess {
		relay, err := newRelayLoop(cfg, store, logger)
		if err != nil {
			_ = store.postgres.Close()
			return nil, err
		}
		app.relay = relay
	}
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWorker(cfg)
}

// NewWorker wires the standalone relay process. It needs Postgres because an
// in-memory outbox is private to the API process.
func NewWorker(cfg config.Config) (*WorkerApp, error) {
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if err := config.Require("POSTGRES_DSN", cfg.PostgresDSN); err != nil {
		return nil, err
	}
	cfg.LedgerStore = config.LedgerStorePostgres

	store, err := openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	relay, err := newRelayLoop(cfg, store, logger)
	if err != nil {
		_ = store.postgres.Close()
		return nil, err
	}
	return &WorkerApp{
		postgres: store.postgres,
		relay:    relay,
		logger:   logger,
	}, nil
}

func openStorage(cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.LedgerStore {
	case config.LedgerStoreMemory, "":
		store := memory.NewStore()
		logger.Warn("ledger state is kept in memory and lost on restart",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return storage{ledgers: store, outbox: store, clock: store, ids: store}, nil
	case config.LedgerStorePostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return storage{}, config.Require("POSTGRES_DSN", cfg.PostgresDSN)
		}
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return storage{}, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if cfg.AutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := repo.Migrate(ctx); err != nil {
				_ = pg.Close()
				return storage{}, err
			}
		}
		return storage{
			ledgers:  repo,
			outbox:   repo,
			clock:    postgresadapter.SystemClock{},
			ids:      postgresadapter.UUIDGenerator{},
			postgres: pg,
		}, nil
	default:
		return storage{}, fmt.Errorf("unsupported ledger store %q", cfg.LedgerStore)
	}
}

func newRelayLoop(cfg config.Config, store storage, logger *slog.Logger) (*relayLoop, error) {
	bus, err := messaging.NewBus(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}
	interval := cfg.RelayInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &relayLoop{
		relay: workers.OutboxRelay{
			Outbox:    store.outbox,
			Publisher: bus,
			Clock:     store.clock,
			BatchSize: cfg.RelayBatchSize,
			Logger:    logger,
		},
		observer: workers.NotificationObserver{
			Subscriber: bus,
			Logger:     logger,
		},
		interval: interval,
		logger:   logger,
	}, nil
}

func (l *relayLoop) Run(ctx context.Context) error {
	if err := l.observer.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("outbox relay loop started",
		"event", "bootstrap_relay_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", l.interval.String(),
	)

	for {
		// A failed cycle is retried on the next tick; RunOnce already logged it.
		if err := l.relay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			l.logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_relay_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"relay_in_process", a.relay != nil,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Run(groupCtx)
	})
	if a.relay != nil {
		group.Go(func() error {
			return a.relay.Run(groupCtx)
		})
	}
	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return w.relay.Run(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.Contains(value, ":") {
		return value
	}
	return ":" + value
}
