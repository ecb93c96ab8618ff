package service

import (
	"strconv"

	"github.com/okian/motorgen/internal/adapters/table"
	"github.com/okian/motorgen/internal/domain/join"
	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/internal/domain/sections"
)

// QC report files under out_dir/qc.
const (
	QCJoinSummary  = "join_summary.csv"
	QCJoinByVenue  = "join_unresolved_by_venue.csv"
	QCSectionDrops = "section_base_drops.csv"
)

// JoinSummaryTable renders the join report as metric/value rows.
func JoinSummaryTable(rep join.Report) *model.Table {
	t := model.NewTable("join_summary", "metric", "value")
	add := func(k, v string) { t.Append([]string{k, v}) }
	add("rows", strconv.Itoa(rep.Rows))
	add("unresolved", strconv.Itoa(rep.Unresolved))
	add("missing_rate", formatRate(rep.MissingRate()))
	add("invalid_keys", strconv.Itoa(rep.InvalidKeys))
	add("ambiguous", strconv.Itoa(rep.Ambiguous))
	add("snapshot_unmatched", strconv.Itoa(rep.SnapshotUnmatched))
	add("snapshot_missing_rate", formatRate(rep.SnapshotMissingRate()))
	add("void_races", strconv.Itoa(rep.VoidRaces))
	add("void_rows", strconv.Itoa(rep.VoidRows))
	return t
}

// JoinVenueTable renders unresolved counts per venue.
func JoinVenueTable(rep join.Report) *model.Table {
	t := model.NewTable("join_unresolved_by_venue", "venue", "rows", "unresolved", "missing_rate")
	for _, v := range rep.Venues() {
		t.Append([]string{v.Venue, strconv.Itoa(v.Rows), strconv.Itoa(v.Unresolved), formatRate(v.MissingRate())})
	}
	return t
}

// SectionDropTable renders the rows dropped before aggregation.
func SectionDropTable(st sections.BaseStats) *model.Table {
	t := model.NewTable("section_base_drops", "metric", "value")
	for _, kv := range []struct {
		k string
		v int
	}{
		{"rows", st.Rows},
		{"missing_key", st.MissingKey},
		{"void", st.Void},
		{"not_started", st.NotStarted},
		{"bad_date", st.BadDate},
		{"sections", st.Sections},
	} {
		t.Append([]string{kv.k, strconv.Itoa(kv.v)})
	}
	return t
}

func (s *Service) writeJoinQC(rep join.Report) error {
	if err := table.Write(s.qcPath(QCJoinSummary), JoinSummaryTable(rep)); err != nil {
		return err
	}
	return table.Write(s.qcPath(QCJoinByVenue), JoinVenueTable(rep))
}

func (s *Service) writeSectionQC(st sections.BaseStats) error {
	return table.Write(s.qcPath(QCSectionDrops), SectionDropTable(st))
}

func formatRate(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) }
