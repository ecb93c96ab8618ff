// Package join attaches motor identities and snapshot values to race rows.
package join

import (
	"context"
	"database/sql"
	"sort"

	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/pkg/logger"
)

// Joiner resolves race rows to motor identities by date. It is a left
// join: every input key yields exactly one assignment.
type Joiner struct {
	log logger.Logger
}

// NewJoiner creates a Joiner.
func NewJoiner(opts ...Option) *Joiner {
	j := &Joiner{log: logger.Nop()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// KeyGroup holds the race keys of one slot.
type KeyGroup struct {
	Slot model.Slot
	Keys []model.RaceKey
}

// Partition splits keys per slot. Keys that failed to parse come back
// separately. Groups are ordered by venue then motor number.
func Partition(keys []model.RaceKey) (groups []KeyGroup, invalid []model.RaceKey) {
	idx := map[model.Slot]int{}
	for _, k := range keys {
		if !k.Valid {
			invalid = append(invalid, k)
			continue
		}
		s := k.Slot()
		i, ok := idx[s]
		if !ok {
			i = len(groups)
			idx[s] = i
			groups = append(groups, KeyGroup{Slot: s})
		}
		groups[i].Keys = append(groups[i].Keys, k)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Slot, groups[j].Slot
		if a.Venue != b.Venue {
			return a.Venue < b.Venue
		}
		return a.MotorNumber < b.MotorNumber
	})
	return groups, invalid
}

// GroupResult is the join outcome of one slot.
type GroupResult struct {
	Slot        model.Slot
	Assignments []model.Assignment
	Unresolved  int
	Ambiguous   int
}

// JoinGroup resolves the keys of one slot against its sorted intervals.
func (j *Joiner) JoinGroup(ctx context.Context, g KeyGroup, ivs []model.MotorIdentityInterval) GroupResult {
	keys := append([]model.RaceKey(nil), g.Keys...)
	sort.SliceStable(keys, func(a, b int) bool { return keys[a].Date < keys[b].Date })

	res := GroupResult{Slot: g.Slot, Assignments: make([]model.Assignment, 0, len(keys))}
	for _, k := range keys {
		m := MatchDate(ivs, k.Date)
		a := model.Assignment{Row: k.Row}
		if m.Found {
			a.Identity = sql.NullString{String: m.Interval.Identity, Valid: true}
		} else {
			res.Unresolved++
		}
		if m.Ambiguous() {
			a.Ambiguous = true
			res.Ambiguous++
			j.log.Error(ctx, "ambiguous identity match",
				logger.String("race_id", k.RaceID),
				logger.String("slot", g.Slot.String()),
				logger.String("date", k.Date.String()),
				logger.Int("candidates", m.Candidates),
				logger.String("chosen", m.Interval.Identity))
		}
		res.Assignments = append(res.Assignments, a)
	}
	return res
}

// Result is the full join outcome. Assignments are ordered by row.
type Result struct {
	Assignments []model.Assignment
	Report      Report
}

// Collect merges per-slot results and unparseable keys into a Result.
func Collect(groups []GroupResult, invalid []model.RaceKey) Result {
	var out Result
	out.Report.ByVenue = map[string]VenueStat{}
	for _, g := range groups {
		out.Assignments = append(out.Assignments, g.Assignments...)
		out.Report.Ambiguous += g.Ambiguous
		vs := out.Report.ByVenue[g.Slot.Venue]
		vs.Venue = g.Slot.Venue
		vs.Rows += len(g.Assignments)
		vs.Unresolved += g.Unresolved
		out.Report.ByVenue[g.Slot.Venue] = vs
		out.Report.Rows += len(g.Assignments)
		out.Report.Unresolved += g.Unresolved
	}
	for _, k := range invalid {
		out.Assignments = append(out.Assignments, model.Assignment{Row: k.Row})
		vs := out.Report.ByVenue[k.Venue]
		vs.Venue = k.Venue
		vs.Rows++
		vs.Unresolved++
		out.Report.ByVenue[k.Venue] = vs
		out.Report.Rows++
		out.Report.Unresolved++
		out.Report.InvalidKeys++
	}
	sort.Slice(out.Assignments, func(i, j int) bool { return out.Assignments[i].Row < out.Assignments[j].Row })
	return out
}

// Join resolves every key sequentially.
func (j *Joiner) Join(ctx context.Context, keys []model.RaceKey, src Source) (Result, error) {
	groups, invalid := Partition(keys)
	results := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		results = append(results, j.JoinGroup(ctx, g, src.Intervals(g.Slot)))
	}
	return Collect(results, invalid), nil
}
