package table

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/okian/motorgen/internal/domain/model"
)

// Snapshot table columns.
var snapshotColumns = []string{"snapshot_id", "date", "venue", "motor_number", "rank", "precheck_time", "two_place_rate"}

// Interval table columns.
var intervalColumns = []string{"venue", "motor_number", "generation_index", "motor_identity", "valid_from", "valid_to"}

// SnapshotTable renders snapshot records.
func SnapshotTable(recs []model.SnapshotRecord) *model.Table {
	t := model.NewTable("motor_snapshot", snapshotColumns...)
	for _, r := range recs {
		t.Append([]string{
			r.SnapshotID(), r.Date.String(), r.Venue, strconv.Itoa(r.MotorNumber),
			nullInt(r.Rank), nullFloat(r.PrecheckTime), nullFloat(r.TwoPlaceRate),
		})
	}
	return t
}

// Snapshots parses a snapshot table.
func Snapshots(t *model.Table) ([]model.SnapshotRecord, error) {
	if err := t.Require(snapshotColumns[1:]...); err != nil {
		return nil, err
	}
	out := make([]model.SnapshotRecord, 0, t.Len())
	for r := range t.Rows {
		d, err := model.ParseDate(t.Get(r, "date"))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrBadRecord, r+1, err)
		}
		n, err := strconv.Atoi(t.Get(r, "motor_number"))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d motor_number: %w", ErrBadRecord, r+1, err)
		}
		out = append(out, model.SnapshotRecord{
			Date:         d,
			Venue:        t.Get(r, "venue"),
			MotorNumber:  n,
			Rank:         parseNullInt(t.Get(r, "rank")),
			PrecheckTime: parseNullFloat(t.Get(r, "precheck_time")),
			TwoPlaceRate: parseNullFloat(t.Get(r, "two_place_rate")),
		})
	}
	return out, nil
}

// IntervalTable renders identity intervals. An open interval has an
// empty valid_to.
func IntervalTable(ivs []model.MotorIdentityInterval) *model.Table {
	t := model.NewTable("motor_identity_map", intervalColumns...)
	for _, iv := range ivs {
		to := ""
		if !iv.Open() {
			to = iv.ValidTo.String()
		}
		t.Append([]string{
			iv.Venue, strconv.Itoa(iv.MotorNumber), strconv.Itoa(iv.Generation),
			iv.Identity, iv.ValidFrom.String(), to,
		})
	}
	return t
}

// Intervals parses an interval table. An empty valid_from becomes
// model.FarPast and an empty valid_to model.FarFuture, so every interval
// compares as a closed range.
func Intervals(t *model.Table) ([]model.MotorIdentityInterval, error) {
	if err := t.Require(intervalColumns...); err != nil {
		return nil, err
	}
	out := make([]model.MotorIdentityInterval, 0, t.Len())
	for r := range t.Rows {
		motor, err := strconv.Atoi(t.Get(r, "motor_number"))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d motor_number: %w", ErrBadRecord, r+1, err)
		}
		gen, err := strconv.Atoi(t.Get(r, "generation_index"))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d generation_index: %w", ErrBadRecord, r+1, err)
		}
		from, err := parseBound(t.Get(r, "valid_from"), model.FarPast)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d valid_from: %w", ErrBadRecord, r+1, err)
		}
		to, err := parseBound(t.Get(r, "valid_to"), model.FarFuture)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d valid_to: %w", ErrBadRecord, r+1, err)
		}
		out = append(out, model.MotorIdentityInterval{
			Venue:       t.Get(r, "venue"),
			MotorNumber: motor,
			Generation:  gen,
			Identity:    t.Get(r, "motor_identity"),
			ValidFrom:   from,
			ValidTo:     to,
		})
	}
	return out, nil
}

func parseBound(s string, missing model.Date) (model.Date, error) {
	if s == "" {
		return missing, nil
	}
	return model.ParseDate(s)
}

func nullInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func nullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

func parseNullInt(s string) sql.NullInt64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func parseNullFloat(s string) sql.NullFloat64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
