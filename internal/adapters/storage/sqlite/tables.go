package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/okian/motorgen/internal/domain/model"
)

// ReplaceSnapshots stores the snapshot table.
func (s *Store) ReplaceSnapshots(ctx context.Context, recs []model.SnapshotRecord) error {
	return s.replace(ctx, "snapshots",
		`INSERT INTO snapshots (date, venue, motor_number, rank, two_place_rate, precheck_time) VALUES (?, ?, ?, ?, ?, ?)`,
		len(recs), func(i int) []any {
			r := recs[i]
			return []any{r.Date.String(), r.Venue, r.MotorNumber, r.Rank, r.TwoPlaceRate, r.PrecheckTime}
		})
}

// CountSnapshots returns the number of stored snapshot rows.
func (s *Store) CountSnapshots(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// ReplaceIntervals stores the identity interval table. Open intervals
// have a NULL valid_to.
func (s *Store) ReplaceIntervals(ctx context.Context, ivs []model.MotorIdentityInterval) error {
	return s.replace(ctx, "intervals",
		`INSERT INTO intervals (motor_identity, venue, motor_number, generation_index, valid_from, valid_to) VALUES (?, ?, ?, ?, ?, ?)`,
		len(ivs), func(i int) []any {
			iv := ivs[i]
			to := sql.NullString{}
			if !iv.Open() {
				to = sql.NullString{String: iv.ValidTo.String(), Valid: true}
			}
			return []any{iv.Identity, iv.Venue, iv.MotorNumber, iv.Generation, iv.ValidFrom.String(), to}
		})
}

// Intervals loads the identity interval table ordered by slot and start.
// A NULL valid_to reads as model.FarFuture.
func (s *Store) Intervals(ctx context.Context) ([]model.MotorIdentityInterval, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT motor_identity, venue, motor_number, generation_index, valid_from, valid_to
		   FROM intervals ORDER BY venue, motor_number, valid_from`)
	if err != nil {
		return nil, fmt.Errorf("failed to load intervals: %w", err)
	}
	defer rows.Close()
	var out []model.MotorIdentityInterval
	for rows.Next() {
		var (
			iv   model.MotorIdentityInterval
			from string
			to   sql.NullString
		)
		if err := rows.Scan(&iv.Identity, &iv.Venue, &iv.MotorNumber, &iv.Generation, &from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		if iv.ValidFrom, err = model.ParseDate(from); err != nil {
			return nil, fmt.Errorf("interval %s: %w", iv.Identity, err)
		}
		iv.ValidTo = model.FarFuture
		if to.Valid {
			if iv.ValidTo, err = model.ParseDate(to.String); err != nil {
				return nil, fmt.Errorf("interval %s: %w", iv.Identity, err)
			}
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// FeatureRecord is a stored section row with every value keyed by column.
type FeatureRecord struct {
	Identity  string
	SectionID string
	Start     string
	End       string
	Values    map[string]*float64
}

// ReplaceFeatures stores section features. values lists the metric
// columns and features the FeatureRow.Features columns.
func (s *Store) ReplaceFeatures(ctx context.Context, rows []model.FeatureRow, values, features []string) error {
	docs := make([]string, len(rows))
	for i, r := range rows {
		m := make(map[string]*float64, len(values)+len(features))
		for _, c := range values {
			m[c] = ptr(r.Metrics[c])
		}
		for j, c := range features {
			if j < len(r.Features) {
				m[c] = ptr(r.Features[j])
			}
		}
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode features of %s/%s: %w", r.Identity, r.SectionID, err)
		}
		docs[i] = string(b)
	}
	return s.replace(ctx, "section_features",
		`INSERT INTO section_features (motor_identity, section_id, section_start, section_end, vals) VALUES (?, ?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			r := rows[i]
			return []any{r.Identity, r.SectionID, r.Start.String(), r.End.String(), docs[i]}
		})
}

// Features returns the sections of one motor identity in start order.
func (s *Store) Features(ctx context.Context, identity string) ([]FeatureRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT motor_identity, section_id, section_start, section_end, vals
		   FROM section_features WHERE motor_identity = ?
		  ORDER BY section_start, section_end, section_id`, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to load features: %w", err)
	}
	defer rows.Close()
	var out []FeatureRecord
	for rows.Next() {
		var (
			r   FeatureRecord
			doc string
		)
		if err := rows.Scan(&r.Identity, &r.SectionID, &r.Start, &r.End, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan features: %w", err)
		}
		if err := json.Unmarshal([]byte(doc), &r.Values); err != nil {
			return nil, fmt.Errorf("failed to decode features of %s/%s: %w", r.Identity, r.SectionID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
