package join

import (
	"fmt"
	"sort"
)

// VenueStat counts joined and unresolved rows of one venue.
type VenueStat struct {
	Venue      string
	Rows       int
	Unresolved int
}

// MissingRate is Unresolved / Rows, or 0 for an empty venue.
func (v VenueStat) MissingRate() float64 { return rate(v.Unresolved, v.Rows) }

// Report summarizes a join stage.
type Report struct {
	Rows        int
	Unresolved  int
	Ambiguous   int
	InvalidKeys int
	ByVenue     map[string]VenueStat

	// snapshot point join
	SnapshotUnmatched int

	VoidRaces int
	VoidRows  int
}

// MissingRate is the share of rows left without an identity.
func (r Report) MissingRate() float64 { return rate(r.Unresolved, r.Rows) }

// SnapshotMissingRate is the share of rows without a snapshot row.
func (r Report) SnapshotMissingRate() float64 { return rate(r.SnapshotUnmatched, r.Rows) }

// Venues returns the per-venue counts ordered by venue code.
func (r Report) Venues() []VenueStat {
	out := make([]VenueStat, 0, len(r.ByVenue))
	for _, v := range r.ByVenue {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Venue < out[j].Venue })
	return out
}

// Check fails when the identity missing rate exceeds limit. A limit of 1
// or more never fails.
func (r Report) Check(limit float64) error {
	if limit >= 1 {
		return nil
	}
	if got := r.MissingRate(); got > limit {
		return fmt.Errorf("%w: %.4f > %.4f (%d of %d rows)", ErrMissingRateExceeded, got, limit, r.Unresolved, r.Rows)
	}
	return nil
}

func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
