package racing

import "errors"

// Sentinel errors for identifier normalization.
var (
	ErrInvalidVenue = errors.New("invalid venue code")
)
