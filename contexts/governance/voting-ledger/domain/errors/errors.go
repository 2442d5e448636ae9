package errors

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized account")
	ErrInvalidCandidate   = errors.New("voting: invalid candidate id")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrLedgerNotFound     = errors.New("ledger not found")
	ErrLedgerExists       = errors.New("ledger already deployed at address")
	ErrInvalidAddress     = errors.New("invalid account address")
	ErrInvalidLedgerInput = errors.New("invalid ledger input")
	ErrConflict           = errors.New("ledger write conflict")
)
