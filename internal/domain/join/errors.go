package join

import "errors"

// Sentinel errors for the join stage.
var (
	ErrMissingRateExceeded = errors.New("missing rate exceeds limit")
	ErrNoIntervals         = errors.New("no identity intervals")
)
