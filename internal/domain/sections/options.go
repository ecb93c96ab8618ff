package sections

import (
	"sort"

	"github.com/okian/motorgen/pkg/logger"
)

// Option configures a Builder.
type Option func(*Builder)

// WithWindows sets the trailing window sizes. Window 1 is always built as
// prev1 and is dropped from the list; duplicates are removed.
func WithWindows(ns ...int) Option {
	return func(b *Builder) {
		seen := map[int]bool{}
		var out []int
		for _, n := range ns {
			if n > 1 && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
		sort.Ints(out)
		b.windows = out
	}
}

// WithSumColumns sets the metrics aggregated by rolling sum.
func WithSumColumns(cols ...string) Option {
	return func(b *Builder) {
		b.sum = append([]string(nil), cols...)
	}
}

// WithMeanColumns sets the metrics aggregated by rolling mean.
func WithMeanColumns(cols ...string) Option {
	return func(b *Builder) {
		b.mean = append([]string(nil), cols...)
	}
}

// WithLogger sets the builder's logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}
