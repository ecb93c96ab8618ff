package repository

import "github.com/okian/motorgen/pkg/logger"

// Option applies a configuration option to the IntervalStore.
type Option func(*IntervalStore)

// WithValidation toggles the interval table checks run by Replace.
func WithValidation(on bool) Option {
	return func(s *IntervalStore) {
		s.validate = on
	}
}

// WithLogger sets the logger used when a table is published.
func WithLogger(l logger.Logger) Option {
	return func(s *IntervalStore) {
		if l != nil {
			s.log = l
		}
	}
}
