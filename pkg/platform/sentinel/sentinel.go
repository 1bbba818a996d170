package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and external clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store or on the ledger
// - ErrNotInitialized: ledger client never completed initialization
// - ErrNotConfigured: optional backend has no credentials on file
// - ErrConflict: write rejected because it would duplicate existing state
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound       = errors.New("not found")
	ErrNotInitialized = errors.New("not initialized")
	ErrNotConfigured  = errors.New("not configured")
	ErrConflict       = errors.New("conflict")
	ErrUnavailable    = errors.New("unavailable")
)
