package join

import (
	"sort"

	"github.com/okian/motorgen/internal/domain/model"
)

// Match is the outcome of looking up one date in a slot's intervals.
type Match struct {
	Interval model.MotorIdentityInterval
	Found    bool
	// Candidates counts every interval containing the date.
	Candidates int
}

// Ambiguous reports whether more than one interval contained the date.
func (m Match) Ambiguous() bool { return m.Candidates > 1 }

// MatchDate finds the interval of one slot containing d. ivs must be ordered
// by SortByStart. When several intervals contain d the most recently
// started one wins and Candidates reports how many matched.
func MatchDate(ivs []model.MotorIdentityInterval, d model.Date) Match {
	// first interval starting after d
	i := sort.Search(len(ivs), func(i int) bool { return ivs[i].ValidFrom > d })
	var m Match
	for j := i - 1; j >= 0; j-- {
		if ivs[j].ValidTo < d {
			continue
		}
		if !m.Found {
			m.Interval = ivs[j]
			m.Found = true
		}
		m.Candidates++
	}
	return m
}

// SortByStart orders one slot's intervals by start, then generation.
func SortByStart(ivs []model.MotorIdentityInterval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		if ivs[i].ValidFrom != ivs[j].ValidFrom {
			return ivs[i].ValidFrom < ivs[j].ValidFrom
		}
		return ivs[i].Generation < ivs[j].Generation
	})
}

// Source yields the intervals of a slot ordered by SortByStart.
type Source interface {
	Intervals(slot model.Slot) []model.MotorIdentityInterval
}

// Groups is an in-memory Source.
type Groups map[model.Slot][]model.MotorIdentityInterval

// GroupIntervals partitions an interval table per slot and orders each
// group for lookup.
func GroupIntervals(ivs []model.MotorIdentityInterval) Groups {
	g := Groups{}
	for _, iv := range ivs {
		g[iv.Slot()] = append(g[iv.Slot()], iv)
	}
	for _, group := range g {
		SortByStart(group)
	}
	return g
}

// Intervals implements Source.
func (g Groups) Intervals(slot model.Slot) []model.MotorIdentityInterval { return g[slot] }
