package identity

import "errors"

// Sentinel errors for identity resolution.
var (
	ErrUnknownMode          = errors.New("unknown candidate mode")
	ErrIdentityOverflow     = errors.New("identity component does not fit two digits")
	ErrInvalidIdentity      = errors.New("invalid motor identity")
	ErrOverlappingIntervals = errors.New("overlapping identity intervals")
)
