package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity is not in the state the mutation expected
// - ErrAlreadyUsed: unique key (username, email, bank+group) already taken
// - ErrInsufficientUnits: ledger debit would drive a counter negative
// - ErrUnavailable: backing service temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyUsed       = errors.New("already used")
	ErrInsufficientUnits = errors.New("insufficient units")
	ErrUnavailable       = errors.New("unavailable")
)
