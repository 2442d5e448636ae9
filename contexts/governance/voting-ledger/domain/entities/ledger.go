package entities

import "time"

// FirstSession is the session every ledger starts in.
const FirstSession uint64 = 1

// SeedCandidates are registered, in order, when a ledger is deployed.
var SeedCandidates = []string{"Alice", "Bob"}

type Ledger struct {
	Address         string
	Admin           string
	DeployNonce     uint64
	CurrentSession  uint64
	CandidatesCount uint64
	EventSequence   uint64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAdmin compares normalized account addresses.
func (l Ledger) IsAdmin(account string) bool {
	return account != "" && account == l.Admin
}

// ValidCandidate reports whether id addresses a registered candidate.
func (l Ledger) ValidCandidate(id uint64) bool {
	return id >= 1 && id <= l.CandidatesCount
}

type Candidate struct {
	ID   uint64
	Name string
}

// CandidateData is a candidate together with its tally in one session.
type CandidateData struct {
	Candidate Candidate
	Session   uint64
	Votes     uint64
}

type Tally struct {
	Session     uint64
	CandidateID uint64
	Count       uint64
}
