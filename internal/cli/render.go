package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	service "github.com/okian/motorgen/internal/app"
	"github.com/okian/motorgen/internal/domain/join"
	"github.com/okian/motorgen/internal/domain/sections"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func renderCounts(w io.Writer, title string, rows ...table.Row) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows(rows)
	t.Render()
}

func renderExtract(w io.Writer, s service.ExtractSummary) {
	renderCounts(w, service.StageExtract,
		table.Row{"documents", s.Documents},
		table.Row{"misses", s.Misses},
		table.Row{"rows", s.Rows},
		table.Row{"duplicates", s.Duplicates},
	)
}

func renderResolve(w io.Writer, s service.ResolveSummary) {
	renderCounts(w, service.StageResolve,
		table.Row{"slots", s.Slots},
		table.Row{"intervals", s.Intervals},
		table.Row{"replaced slots", s.Replaced},
		table.Row{"gap rejected", s.GapRejected},
	)
}

func renderJoin(w io.Writer, r join.Report) {
	renderCounts(w, service.StageJoin,
		table.Row{"rows", r.Rows},
		table.Row{"unresolved", r.Unresolved},
		table.Row{"ambiguous", r.Ambiguous},
		table.Row{"invalid keys", r.InvalidKeys},
		table.Row{"missing rate", fmt.Sprintf("%.6f", r.MissingRate())},
		table.Row{"snapshot unmatched", r.SnapshotUnmatched},
		table.Row{"void races", r.VoidRaces},
		table.Row{"void rows", r.VoidRows},
	)
	venues := r.Venues()
	if len(venues) == 0 {
		return
	}
	t := newTable(w, "by venue")
	t.AppendHeader(table.Row{"Venue", "Rows", "Unresolved", "Missing rate"})
	for _, v := range venues {
		t.AppendRow(table.Row{v.Venue, v.Rows, v.Unresolved, fmt.Sprintf("%.6f", v.MissingRate())})
	}
	t.Render()
}

func renderSections(w io.Writer, s sections.BaseStats) {
	renderCounts(w, service.StageSections,
		table.Row{"rows", s.Rows},
		table.Row{"missing key", s.MissingKey},
		table.Row{"void", s.Void},
		table.Row{"not started", s.NotStarted},
		table.Row{"bad date", s.BadDate},
		table.Row{"sections", s.Sections},
	)
}

func renderFeatures(w io.Writer, s service.FeatureSummary) {
	renderCounts(w, service.StageFeatures,
		table.Row{"identities", s.Identities},
		table.Row{"sections", s.Sections},
		table.Row{"feature columns", s.Columns},
	)
}

func renderSummary(w io.Writer, s service.Summary) {
	renderExtract(w, s.Extract)
	renderResolve(w, s.Resolve)
	renderJoin(w, s.Join)
	renderSections(w, s.Sections)
	renderFeatures(w, s.Features)
	if len(s.Parquet) == 0 {
		return
	}
	t := newTable(w, "parquet")
	t.AppendHeader(table.Row{"File"})
	for _, p := range s.Parquet {
		t.AppendRow(table.Row{p})
	}
	t.Render()
}
