package votingledger

import (
	"log/slog"

	"ballotbox/contexts/governance/voting-ledger/adapters/ethaddr"
	httpadapter "ballotbox/contexts/governance/voting-ledger/adapters/http"
	"ballotbox/contexts/governance/voting-ledger/adapters/memory"
	"ballotbox/contexts/governance/voting-ledger/application/commands"
	"ballotbox/contexts/governance/voting-ledger/application/queries"
	"ballotbox/contexts/governance/voting-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Ledgers   ports.LedgerRepository
	Addresses ports.AddressBook
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	addresses := deps.Addresses
	if addresses == nil {
		addresses = ethaddr.AddressBook{}
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commands.LedgerUseCase{
				Ledgers:   deps.Ledgers,
				Addresses: addresses,
				Clock:     deps.Clock,
				IDGen:     deps.IDGen,
				Logger:    deps.Logger,
			},
			Queries: queries.LedgerQueries{
				Ledgers:   deps.Ledgers,
				Addresses: addresses,
			},
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledgers: store,
		Clock:   store,
		IDGen:   store,
		Logger:  logger,
	})
	module.Store = store
	return module
}
