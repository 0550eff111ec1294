package errors

import "errors"

var (
	ErrNoRecipients       = errors.New("commitment requires at least one recipient")
	ErrDuplicateRecipient = errors.New("recipient address appears more than once")
	ErrZeroAllocation     = errors.New("recipient allocation must be greater than zero")
	ErrAllocationTooLarge = errors.New("recipient allocation exceeds 256 bits")
	ErrInvalidRecipient   = errors.New("recipient input is invalid")

	// ErrProofRoundTrip means a freshly generated proof failed verification
	// against its own root. That indicates a builder/verifier policy drift
	// and the commitment must not be published.
	ErrProofRoundTrip = errors.New("generated proof failed round-trip verification")
)
