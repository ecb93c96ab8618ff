package sections

import (
	"context"
	"database/sql"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/internal/domain/racing"
	"github.com/okian/motorgen/pkg/logger"
)

// Builder derives trailing features per motor identity. Every feature of
// a section is computed from strictly earlier sections of the same
// identity: the metric series is shifted by one before any window is
// applied. A window with fewer than n earlier sections, or with a null
// inside, yields null.
type Builder struct {
	windows []int
	sum     []string
	mean    []string
	log     logger.Logger
}

// NewBuilder creates a Builder with windows 3 and 5 over the default
// section metrics.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		windows: []int{3, 5},
		sum:     DefaultSumColumns(),
		mean:    DefaultMeanColumns(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Windows returns the configured sizes above one.
func (b *Builder) Windows() []int { return append([]int(nil), b.windows...) }

// ValueColumns lists the section metrics carried to the output: sum-type
// first, then mean-type.
func (b *Builder) ValueColumns() []string {
	out := make([]string, 0, len(b.sum)+len(b.mean))
	out = append(out, b.sum...)
	return append(out, b.mean...)
}

// FeatureColumns lists the derived columns in output order: prev1 for
// every value column, then per window the sums and means, then per window
// the deltas.
func (b *Builder) FeatureColumns() []string {
	var out []string
	for _, c := range b.ValueColumns() {
		out = append(out, "prev1_"+c)
	}
	for _, n := range b.windows {
		for _, c := range b.sum {
			out = append(out, fmt.Sprintf("prev%d_sum_%s", n, c))
		}
		for _, c := range b.mean {
			out = append(out, fmt.Sprintf("prev%d_mean_%s", n, c))
		}
	}
	for _, n := range b.windows {
		for _, c := range b.mean {
			out = append(out, fmt.Sprintf("delta_1_%d_%s", n, c))
		}
	}
	return out
}

// Check verifies that every row carries every value column and that no
// (motor_identity, section_id) key repeats.
func (b *Builder) Check(rows []model.SectionRow) error {
	cols := b.ValueColumns()
	if len(cols) == 0 {
		return ErrNoColumns
	}
	var missing []string
	seenMissing := map[string]bool{}
	for _, r := range rows {
		for _, c := range cols {
			if _, ok := r.Metrics[c]; !ok && !seenMissing[c] {
				seenMissing[c] = true
				missing = append(missing, c)
			}
		}
	}
	if len(missing) > 0 {
		return &model.MissingColumnsError{Table: "section base", Missing: missing}
	}

	count := map[model.SectionKey]int{}
	var dups []model.SectionKey
	for _, r := range rows {
		k := r.Key()
		count[k]++
		if count[k] == 2 {
			dups = append(dups, k)
		}
	}
	if len(dups) > 0 {
		ex := dups
		if len(ex) > maxExamples {
			ex = ex[:maxExamples]
		}
		return &KeyError{Keys: ex, Total: len(dups)}
	}
	return nil
}

// NormalizeKeys returns a copy of rows with identities zero-padded to six
// digits and section ids in YYYYMMDD_NN form.
func NormalizeKeys(rows []model.SectionRow) []model.SectionRow {
	out := make([]model.SectionRow, len(rows))
	for i, r := range rows {
		r.Identity = racing.NormalizeIdentity(r.Identity)
		r.SectionID = racing.NormalizeSectionID(r.SectionID)
		out[i] = r
	}
	return out
}

// Group is the ordered section history of one motor identity.
type Group struct {
	Identity string
	Rows     []model.SectionRow
}

// GroupByIdentity orders rows with SortRows and splits them per identity.
func GroupByIdentity(rows []model.SectionRow) []Group {
	sorted := append([]model.SectionRow(nil), rows...)
	SortRows(sorted)
	var groups []Group
	for _, r := range sorted {
		if n := len(groups); n == 0 || groups[n-1].Identity != r.Identity {
			groups = append(groups, Group{Identity: r.Identity})
		}
		g := &groups[len(groups)-1]
		g.Rows = append(g.Rows, r)
	}
	return groups
}

// BuildGroup computes the features of one identity's ordered history.
func (b *Builder) BuildGroup(g Group) []model.FeatureRow {
	out := make([]model.FeatureRow, len(g.Rows))
	for i, r := range g.Rows {
		out[i] = model.FeatureRow{SectionRow: r, Features: make([]sql.NullFloat64, 0, len(b.FeatureColumns()))}
	}
	series := func(c string) []sql.NullFloat64 {
		s := make([]sql.NullFloat64, len(g.Rows))
		for i, r := range g.Rows {
			s[i] = r.Metrics[c]
		}
		return s
	}
	prev1 := map[string][]sql.NullFloat64{}
	for _, c := range b.ValueColumns() {
		p := shift(series(c))
		prev1[c] = p
		for i := range out {
			out[i].Features = append(out[i].Features, p[i])
		}
	}
	means := map[int]map[string][]sql.NullFloat64{}
	for _, n := range b.windows {
		means[n] = map[string][]sql.NullFloat64{}
		for _, c := range b.sum {
			w := rolling(shift(series(c)), n, floats.Sum)
			for i := range out {
				out[i].Features = append(out[i].Features, w[i])
			}
		}
		for _, c := range b.mean {
			w := rolling(shift(series(c)), n, func(xs []float64) float64 { return stat.Mean(xs, nil) })
			means[n][c] = w
			for i := range out {
				out[i].Features = append(out[i].Features, w[i])
			}
		}
	}
	for _, n := range b.windows {
		for _, c := range b.mean {
			p, m := prev1[c], means[n][c]
			for i := range out {
				var d sql.NullFloat64
				if p[i].Valid && m[i].Valid {
					d = sql.NullFloat64{Float64: p[i].Float64 - m[i].Float64, Valid: true}
				}
				out[i].Features = append(out[i].Features, d)
			}
		}
	}
	return out
}

// Build checks, normalizes and groups rows, then computes every group in
// order.
func (b *Builder) Build(ctx context.Context, rows []model.SectionRow) ([]model.FeatureRow, error) {
	groups, err := b.Prepare(rows)
	if err != nil {
		return nil, err
	}
	var out []model.FeatureRow
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, b.BuildGroup(g)...)
	}
	b.log.Info(ctx, "section features built",
		logger.Int("identities", len(groups)),
		logger.Int("sections", len(out)),
		logger.Int("features", len(b.FeatureColumns())))
	return out, nil
}

// Prepare normalizes keys, runs Check and groups the rows.
func (b *Builder) Prepare(rows []model.SectionRow) ([]Group, error) {
	rows = NormalizeKeys(rows)
	if err := b.Check(rows); err != nil {
		return nil, err
	}
	return GroupByIdentity(rows), nil
}

// shift moves a series one step later; the first element becomes null.
func shift(s []sql.NullFloat64) []sql.NullFloat64 {
	out := make([]sql.NullFloat64, len(s))
	if len(s) > 1 {
		copy(out[1:], s[:len(s)-1])
	}
	return out
}

// rolling applies agg over each full window of n values ending at i.
func rolling(s []sql.NullFloat64, n int, agg func([]float64) float64) []sql.NullFloat64 {
	out := make([]sql.NullFloat64, len(s))
	buf := make([]float64, n)
	for i := n - 1; i < len(s); i++ {
		ok := true
		for j := 0; j < n; j++ {
			v := s[i-n+1+j]
			if !v.Valid {
				ok = false
				break
			}
			buf[j] = v.Float64
		}
		if ok {
			out[i] = sql.NullFloat64{Float64: agg(buf), Valid: true}
		}
	}
	return out
}
