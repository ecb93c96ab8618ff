package identity

import "github.com/okian/motorgen/pkg/logger"

// Option configures a Resolver.
type Option func(*Resolver)

// WithGapDays sets the minimum spacing between accepted replacements.
func WithGapDays(days int) Option {
	return func(r *Resolver) {
		if days >= 0 {
			r.gapDays = days
		}
	}
}

// WithMode selects candidate detection.
func WithMode(m Mode) Option {
	return func(r *Resolver) {
		if m != "" {
			r.mode = m
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}
