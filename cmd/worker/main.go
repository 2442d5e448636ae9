package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ballotbox/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config (POSTGRES_DSN is required).
// 2) Build app wiring.
// 3) Relay the ledger outbox to the event bus until SIGINT/SIGTERM.
func main() {
	log.Println("ballotbox worker starting")
	if err := run(); err != nil {
		log.Printf("ballotbox worker stopped with error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app, err := bootstrap.BuildWorker()
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}
