package dedupe

// Option configures a Merger.
type Option func(*settings)

type settings struct {
	policy   Policy
	capacity int
}

// WithPolicy selects which record survives a collision.
func WithPolicy(p Policy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithCapacity preallocates room for n distinct keys.
func WithCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}
