// Package worker fans independent groups out to a fixed set of goroutines
// and collects their results in input order.
package worker

import (
	"github.com/okian/motorgen/pkg/logger"
)

// Option applies a configuration option to a Pool.
type Option func(*settings)

type settings struct {
	name   string
	logger logger.Logger
}

// WithName sets the pool name. It labels logs and the groups metric.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
