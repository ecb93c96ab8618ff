package snapshot

import "github.com/okian/motorgen/pkg/logger"

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for extraction misses.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}
