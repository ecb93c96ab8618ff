// Package sections aggregates joined race rows into per-section motor
// metrics and derives trailing features from earlier sections.
package sections

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/internal/domain/racing"
	"github.com/okian/motorgen/internal/domain/scoring"
)

// Section metrics.
const (
	MetricRaceCount          = "motor_race_ct"
	MetricScoreSum           = "motor_score_sum"
	MetricRankingPointSum    = "motor_ranking_point_sum"
	MetricConditionPointSum  = "motor_condition_point_sum"
	MetricScoreRate          = "motor_score_rate"
	MetricRankingPointRate   = "motor_ranking_point_rate"
	MetricConditionPointRate = "motor_condition_point_rate"
)

// DefaultSumColumns are the metrics summed over trailing windows.
func DefaultSumColumns() []string {
	return []string{MetricRaceCount, MetricScoreSum, MetricRankingPointSum, MetricConditionPointSum}
}

// DefaultMeanColumns are the metrics averaged over trailing windows.
func DefaultMeanColumns() []string {
	return []string{MetricScoreRate, MetricRankingPointRate, MetricConditionPointRate}
}

// BaseColumns names the joined-table columns read by Aggregate.
type BaseColumns struct {
	Identity    string
	SectionID   string
	Date        string
	Entry       string
	Position    string
	IsStart     string
	FinishClass string
}

func (c BaseColumns) all() []string {
	return []string{c.Identity, c.SectionID, c.Date, c.Entry, c.Position, c.IsStart, c.FinishClass}
}

// BaseStats counts the rows dropped before aggregation.
type BaseStats struct {
	Rows       int
	MissingKey int
	Void       int
	NotStarted int
	BadDate    int
	Sections   int
}

type acc struct {
	key                      model.SectionKey
	start, end               model.Date
	count, score, rank, cond int
}

// Aggregate builds one SectionRow per (motor_identity, section_id) from
// the rows of boats that started. Rows without an identity or section,
// void rows and rows with an unparseable date are dropped and counted.
// Output is ordered by identity, section start, end and id.
func Aggregate(ctx context.Context, t *model.Table, c BaseColumns) ([]model.SectionRow, BaseStats, error) {
	st := BaseStats{Rows: t.Len()}
	if err := t.Require(c.all()...); err != nil {
		return nil, st, err
	}
	idx := map[model.SectionKey]*acc{}
	var order []*acc
	for r := range t.Rows {
		if r%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, st, err
			}
		}
		id := racing.NormalizeIdentity(t.Get(r, c.Identity))
		sid := racing.NormalizeSectionID(t.Get(r, c.SectionID))
		switch {
		case id == "" || sid == "":
			st.MissingKey++
			continue
		case racing.FinishClass(t.Get(r, c.FinishClass)) == racing.ClassVoid:
			st.Void++
			continue
		case !parseBool(t.Get(r, c.IsStart)):
			st.NotStarted++
			continue
		}
		d, err := model.ParseDate(t.Get(r, c.Date))
		if err != nil {
			st.BadDate++
			continue
		}
		k := model.SectionKey{Identity: id, SectionID: sid}
		a, ok := idx[k]
		if !ok {
			a = &acc{key: k, start: d, end: d}
			idx[k] = a
			order = append(order, a)
		}
		p := scoring.Race(course(t.Get(r, c.Entry)), course(t.Get(r, c.Position)))
		a.count++
		a.score += p.Score
		a.rank += p.Ranking
		a.cond += p.Condition
		a.start = min(a.start, d)
		a.end = max(a.end, d)
	}

	rows := make([]model.SectionRow, 0, len(order))
	for _, a := range order {
		n := float64(a.count)
		rows = append(rows, model.SectionRow{
			Identity:  a.key.Identity,
			SectionID: a.key.SectionID,
			Start:     a.start,
			End:       a.end,
			Metrics: map[string]sql.NullFloat64{
				MetricRaceCount:          valid(n),
				MetricScoreSum:           valid(float64(a.score)),
				MetricRankingPointSum:    valid(float64(a.rank)),
				MetricConditionPointSum:  valid(float64(a.cond)),
				MetricScoreRate:          valid(float64(a.score) / n),
				MetricRankingPointRate:   valid(float64(a.rank) / n),
				MetricConditionPointRate: valid(float64(a.cond) / n),
			},
		})
	}
	SortRows(rows)
	st.Sections = len(rows)
	return rows, st, nil
}

// SortRows orders rows by identity, then section start, end and id.
func SortRows(rows []model.SectionRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.Identity != b.Identity:
			return a.Identity < b.Identity
		case a.Start != b.Start:
			return a.Start < b.Start
		case a.End != b.End:
			return a.End < b.End
		default:
			return a.SectionID < b.SectionID
		}
	})
}

// course reads an entry course or finishing position, rounding numeric
// text and mapping anything outside 1..6 to 0.
func course(s string) int {
	f, err := strconv.ParseFloat(racing.Fold(s), 64)
	if err != nil {
		return 0
	}
	n := int(f + 0.5)
	if n < 1 || n > scoring.Courses {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "t", "yes", "y":
		return true
	}
	return false
}

func valid(f float64) sql.NullFloat64 { return sql.NullFloat64{Float64: f, Valid: true} }
