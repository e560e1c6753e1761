package domain

import "errors"

// Sentinel errors shared across layers. Handlers map these to HTTP status
// codes; services wrap them with context via fmt.Errorf and %w.
var (
	// ErrValidation indicates invalid caller input (missing field, empty
	// item list, non-finite number).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an unknown client or invoice reference.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a retryable conflict such as a duplicate
	// invoice number. Callers are expected to re-derive and retry.
	ErrConflict = errors.New("conflict")

	// ErrIntegrity indicates an import payload referencing a foreign key
	// that does not exist within the payload.
	ErrIntegrity = errors.New("integrity violation")

	// ErrDelivery indicates an unreachable notification channel. Always
	// non-fatal: logged and swallowed, never aborts a state change.
	ErrDelivery = errors.New("delivery failed")
)
