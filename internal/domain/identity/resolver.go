package identity

import (
	"context"
	"sort"

	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/pkg/logger"
)

// DefaultGapDays is the minimum spacing between accepted replacements.
const DefaultGapDays = 180

// Resolver turns a slot's snapshot history into generation intervals.
// It holds configuration only and may be shared between goroutines.
type Resolver struct {
	gapDays int
	mode    Mode
	log     logger.Logger
}

// NewResolver creates a Resolver in transition mode with a 180-day gap.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{gapDays: DefaultGapDays, mode: ModeTransition, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SlotResult is the resolution of one slot.
type SlotResult struct {
	Slot       model.Slot
	Intervals  []model.MotorIdentityInterval
	Candidates []model.Date // distinct candidate days, chronological
	Accepted   []model.Date // candidates that survived the gap rule
}

// Rejected counts candidates dropped by the gap rule.
func (s SlotResult) Rejected() int { return len(s.Candidates) - len(s.Accepted) }

// ResolveSlot computes the intervals of one slot. Records with a null
// rate are ignored; a slot without any rated record yields no interval.
func (r *Resolver) ResolveSlot(ctx context.Context, h SlotHistory) (SlotResult, error) {
	obs := make([]model.SnapshotRecord, 0, len(h.Records))
	for _, rec := range h.Records {
		if rec.TwoPlaceRate.Valid {
			obs = append(obs, rec)
		}
	}
	res := SlotResult{Slot: h.Slot}
	if len(obs) == 0 {
		return res, nil
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date < obs[j].Date })

	res.Candidates = Candidates(obs, r.mode)
	res.Accepted = FoldGap(res.Candidates, r.gapDays)

	ivs, err := Intervals(h.Slot, obs[0].Date, res.Accepted)
	if err != nil {
		return res, err
	}
	res.Intervals = ivs

	if res.Rejected() > 0 {
		r.log.Debug(ctx, "replacement candidates rejected by gap",
			logger.String("slot", h.Slot.String()),
			logger.Int("candidates", len(res.Candidates)),
			logger.Int("rejected", res.Rejected()))
	}
	return res, nil
}

// Resolve runs ResolveSlot over every slot sequentially and returns all
// intervals ordered by venue, motor number and start.
func (r *Resolver) Resolve(ctx context.Context, recs []model.SnapshotRecord) ([]model.MotorIdentityInterval, error) {
	var out []model.MotorIdentityInterval
	for _, h := range GroupBySlot(recs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.ResolveSlot(ctx, h)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Intervals...)
	}
	return out, nil
}

// Candidates returns the distinct replacement candidate days of a
// date-sorted, rated history.
func Candidates(obs []model.SnapshotRecord, mode Mode) []model.Date {
	var out []model.Date
	for i, rec := range obs {
		if rec.TwoPlaceRate.Float64 != 0 {
			continue
		}
		switch mode {
		case ModeAnyZero:
			out = append(out, rec.Date)
		default:
			if i > 0 && obs[i-1].TwoPlaceRate.Float64 > 0 {
				out = append(out, rec.Date)
			}
		}
	}
	return uniqueDates(out)
}

func uniqueDates(ds []model.Date) []model.Date {
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	out := ds[:0]
	for i, d := range ds {
		if i == 0 || d != ds[i-1] {
			out = append(out, d)
		}
	}
	return out
}

// FoldGap keeps the first candidate and then every candidate at least
// gapDays after the last kept one. cands must be chronological.
func FoldGap(cands []model.Date, gapDays int) []model.Date {
	type state struct {
		kept []model.Date
		last model.Date
	}
	st := state{}
	for _, d := range cands {
		if len(st.kept) == 0 || d.DaysSince(st.last) >= gapDays {
			st = state{kept: append(st.kept, d), last: d}
		}
	}
	return st.kept
}

// Intervals lays generations over a slot. Generation 1 starts at firstObs;
// each accepted boundary after it starts the next generation, and every
// generation ends the day before its successor. The last one is open.
func Intervals(slot model.Slot, firstObs model.Date, accepted []model.Date) ([]model.MotorIdentityInterval, error) {
	starts := []model.Date{firstObs}
	for _, d := range accepted {
		if d > firstObs {
			starts = append(starts, d)
		}
	}
	starts = uniqueDates(starts)

	out := make([]model.MotorIdentityInterval, 0, len(starts))
	for i, from := range starts {
		gen := i + 1
		id, err := FormatIdentity(slot.Venue, slot.MotorNumber, gen)
		if err != nil {
			return nil, err
		}
		to := model.FarFuture
		if i+1 < len(starts) {
			to = starts[i+1].AddDays(-1)
		}
		out = append(out, model.MotorIdentityInterval{
			Venue:       slot.Venue,
			MotorNumber: slot.MotorNumber,
			Generation:  gen,
			Identity:    id,
			ValidFrom:   from,
			ValidTo:     to,
		})
	}
	return out, nil
}
