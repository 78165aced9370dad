package contract

import "errors"

// The ledger distinguishes three failure classes. Every failed mutating
// operation wraps exactly one of these, so callers can classify failures
// with errors.Is without parsing messages. All failures are synchronous
// and leave state untouched: guards run before any write.
var (
	// ErrUnauthorized is returned when the caller lacks a required role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotOwner is returned when a manufacturer who is not the product's
	// registering owner attempts to update it. Distinct from
	// ErrUnauthorized: the role check alone would have passed.
	ErrNotOwner = errors.New("caller is not the product owner")

	// ErrAlreadyCompleted is returned when a mutation targets a product
	// whose journey has been completed. Completion is one-way; nothing
	// unfreezes a completed product.
	ErrAlreadyCompleted = errors.New("product journey already completed")
)
