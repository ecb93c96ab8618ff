// Package snapshot extracts motor ranking snapshots from archived HTML
// ranking pages.
package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/okian/motorgen/internal/domain/dedupe"
	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/internal/domain/racing"
	"github.com/okian/motorgen/pkg/logger"
)

// Extractor turns ranking pages into SnapshotRecords.
type Extractor struct {
	log logger.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFile reads and parses one document from disk.
func (e *Extractor) ExtractFile(ctx context.Context, doc Document) ([]model.SnapshotRecord, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadDocument, doc.Name, err)
	}
	return e.Extract(ctx, bytes.NewReader(data), doc)
}

// Extract parses one ranking page covering doc.Date at doc.Venue. A page
// without a usable table yields zero rows and a warning, not an error.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, doc Document) ([]model.SnapshotRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadDocument, doc.Name, err)
	}
	root, err := html.Parse(decode(data))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadDocument, doc.Name, err)
	}

	var out []model.SnapshotRecord
	usable := false
	for _, g := range parseTables(root) {
		rl, ok := detectRoles(g.header)
		if !ok {
			continue
		}
		usable = true
		for _, row := range g.rows {
			if rec, ok := toRecord(row, rl, doc); ok {
				out = append(out, rec)
			}
		}
	}

	if len(out) == 0 {
		reason := "no usable table"
		if usable {
			reason = "usable table without complete rows"
		}
		e.log.Warn(ctx, "extraction miss",
			logger.String("document", doc.Name),
			logger.String("snapshot_id", doc.ID()),
			logger.String("reason", reason))
	}
	return out, nil
}

// decode converts the page to UTF-8. The charset comes from a BOM or
// <meta> when present. Pages that would fall back to windows-1252 are
// read as Shift_JIS, the encoding of the ranking archive.
func decode(data []byte) io.Reader {
	enc, name, certain := charset.DetermineEncoding(data, "")
	if !certain && name == "windows-1252" {
		enc = japanese.ShiftJIS
	}
	if enc == encoding.Nop {
		return bytes.NewReader(data)
	}
	return transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
}

func toRecord(row []string, rl roles, doc Document) (model.SnapshotRecord, bool) {
	motor, ok := racing.FirstInt(row[rl.motor])
	if !ok {
		return model.SnapshotRecord{}, false
	}
	rate, ok := racing.ParseRate(row[rl.rate])
	if !ok {
		return model.SnapshotRecord{}, false
	}
	pre, ok := racing.FirstFloat(row[rl.time])
	if !ok {
		return model.SnapshotRecord{}, false
	}
	rec := model.SnapshotRecord{
		Date:         doc.Date,
		Venue:        doc.Venue,
		MotorNumber:  motor,
		TwoPlaceRate: sql.NullFloat64{Float64: rate, Valid: true},
		PrecheckTime: sql.NullFloat64{Float64: pre, Valid: true},
	}
	if rl.rank >= 0 {
		if rank, ok := racing.FirstInt(row[rl.rank]); ok {
			rec.Rank = sql.NullInt64{Int64: int64(rank), Valid: true}
		}
	}
	return rec, true
}

// MergeResult is the deduplicated snapshot table.
type MergeResult struct {
	Records    []model.SnapshotRecord
	Duplicates int
}

// Merge combines per-document batches given in processing order. For a
// repeated (date, venue, motor_number) the later batch wins. Output is
// sorted by date, venue and motor number.
func Merge(batches [][]model.SnapshotRecord) (MergeResult, error) {
	m := dedupe.NewMerger(model.SnapshotRecord.Key)
	for _, b := range batches {
		m.AddAll(b)
	}
	recs := m.Values()
	if len(recs) == 0 {
		return MergeResult{}, ErrNoDocuments
	}
	SortRecords(recs)
	return MergeResult{Records: recs, Duplicates: m.Collisions()}, nil
}

// SortRecords orders records by date, venue and motor number.
func SortRecords(recs []model.SnapshotRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Venue != b.Venue {
			return a.Venue < b.Venue
		}
		return a.MotorNumber < b.MotorNumber
	})
}

// ExtractAll reads docs in order and merges the result. It is the
// sequential form of the extract stage.
func (e *Extractor) ExtractAll(ctx context.Context, docs []Document) (MergeResult, error) {
	batches := make([][]model.SnapshotRecord, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return MergeResult{}, err
		}
		recs, err := e.ExtractFile(ctx, doc)
		if err != nil {
			return MergeResult{}, err
		}
		batches = append(batches, recs)
	}
	return Merge(batches)
}
