// Package votingledger implements the session-scoped voting ledger inside the
// governance context.
//
// The module owns ledger deployment, the owner-gated candidate registry,
// per-session vote tallies and the owner-gated reset that advances the session
// counter. Every mutation appends ordered notifications to the ledger event log
// in the same unit of work, and an outbox relay publishes them to the bus.
// Business rules live in application/domain layers; storage, address handling
// and transport stay behind ports and adapters.
package votingledger
