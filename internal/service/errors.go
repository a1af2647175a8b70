package service

import "errors"

// Typed failures returned by the core. Storage errors never escape raw; they
// are classified into one of these and the detail is carried in the wrapped
// message for server-side logs.
var (
	// ErrInvalidRequest marks malformed caller input, rejected before any
	// storage access.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownFlight means the referenced flight does not exist.
	ErrUnknownFlight = errors.New("unknown flight")

	// ErrUnknownPrincipal means no principal of the requested kind exists
	// under the given identifier.
	ErrUnknownPrincipal = errors.New("unknown principal")

	// ErrWrongSecret means the principal exists but the secret did not match.
	// Callers deciding what to expose should consider that revealing the
	// distinction from ErrUnknownPrincipal confirms account existence.
	ErrWrongSecret = errors.New("wrong secret")

	// ErrUnauthorized means the caller is authenticated but lacks the
	// required grant or is the wrong principal kind for the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists means a uniqueness constraint rejected the write.
	ErrAlreadyExists = errors.New("already exists")

	// ErrTransactionFailed means a storage failure aborted a purchase batch.
	// The batch is fully rolled back; the caller must resubmit it whole.
	ErrTransactionFailed = errors.New("transaction failed")
)
