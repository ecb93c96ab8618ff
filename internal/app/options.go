package service

import (
	"github.com/okian/motorgen/internal/adapters/storage/sqlite"
	"github.com/okian/motorgen/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service and its stages.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithState records runs and output tables in st. The caller owns st.
func WithState(st *sqlite.Store) Option {
	return func(s *Service) {
		s.state = st
	}
}
