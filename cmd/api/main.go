package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ballotbox/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (store, address book, use cases, http server).
// 3) Serve until SIGINT/SIGTERM; the outbox relay runs alongside when enabled.
func main() {
	log.Println("ballotbox api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Printf("bootstrap api failed: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := app.Run(ctx)
	stop()

	if err := app.Close(); err != nil {
		log.Printf("api shutdown close failed: %v", err)
	}
	if runErr != nil {
		log.Printf("ballotbox api stopped with error: %v", runErr)
		os.Exit(1)
	}
}
