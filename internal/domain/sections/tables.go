package sections

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"

	"github.com/okian/motorgen/internal/domain/model"
)

// Key and ordering columns of the section tables.
const (
	ColIdentity  = "motor_identity"
	ColSectionID = "section_id"
	ColStart     = "section_start"
	ColEnd       = "section_end"
)

// BaseTable renders section rows with the given metric columns.
func BaseTable(name string, rows []model.SectionRow, metrics []string) *model.Table {
	t := model.NewTable(name, append([]string{ColIdentity, ColSectionID, ColStart, ColEnd}, metrics...)...)
	for _, r := range rows {
		t.Append(sectionCells(r, metrics))
	}
	return t
}

// FeatureTable renders feature rows: keys, value columns, then features.
func FeatureTable(name string, rows []model.FeatureRow, values, features []string) *model.Table {
	head := append([]string{ColIdentity, ColSectionID, ColStart, ColEnd}, values...)
	t := model.NewTable(name, append(head, features...)...)
	for _, r := range rows {
		cells := sectionCells(r.SectionRow, values)
		for _, f := range r.Features {
			cells = append(cells, FormatValue(f))
		}
		t.Append(cells)
	}
	return t
}

func sectionCells(r model.SectionRow, metrics []string) []string {
	cells := []string{r.Identity, r.SectionID, r.Start.String(), r.End.String()}
	for _, m := range metrics {
		cells = append(cells, FormatValue(r.Metrics[m]))
	}
	return cells
}

// RowsFromTable reads section rows back from a base table. Metric cells
// that are empty or not numeric become null.
func RowsFromTable(t *model.Table, metrics []string) ([]model.SectionRow, error) {
	if err := t.Require(append([]string{ColIdentity, ColSectionID, ColStart, ColEnd}, metrics...)...); err != nil {
		return nil, err
	}
	rows := make([]model.SectionRow, 0, t.Len())
	for r := range t.Rows {
		start, err := model.ParseDate(t.Get(r, ColStart))
		if err != nil {
			return nil, fmt.Errorf("row %d %s: %w", r+1, ColStart, err)
		}
		end, err := model.ParseDate(t.Get(r, ColEnd))
		if err != nil {
			return nil, fmt.Errorf("row %d %s: %w", r+1, ColEnd, err)
		}
		row := model.SectionRow{
			Identity:  t.Get(r, ColIdentity),
			SectionID: t.Get(r, ColSectionID),
			Start:     start,
			End:       end,
			Metrics:   make(map[string]sql.NullFloat64, len(metrics)),
		}
		for _, m := range metrics {
			row.Metrics[m] = ParseValue(t.Get(r, m))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FormatValue renders a nullable metric; null is the empty string.
func FormatValue(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

// ParseValue reads a nullable metric.
func ParseValue(s string) sql.NullFloat64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
