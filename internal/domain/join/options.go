package join

import "github.com/okian/motorgen/pkg/logger"

// Option configures a Joiner.
type Option func(*Joiner)

// WithLogger sets the logger used for ambiguous match reports.
func WithLogger(l logger.Logger) Option {
	return func(j *Joiner) {
		if l != nil {
			j.log = l
		}
	}
}
