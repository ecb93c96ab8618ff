// Package model contains the records passed between pipeline stages.
package model

import (
	"database/sql"
	"fmt"
)

// Slot is a numbered motor position at a venue. Different physical motors
// occupy the same slot over the years.
type Slot struct {
	Venue       string // 2-digit venue code
	MotorNumber int
}

func (s Slot) String() string { return fmt.Sprintf("%s/%d", s.Venue, s.MotorNumber) }

// SnapshotRecord is one motor row of a daily ranking page.
type SnapshotRecord struct {
	Date         Date
	Venue        string
	MotorNumber  int
	Rank         sql.NullInt64
	TwoPlaceRate sql.NullFloat64
	PrecheckTime sql.NullFloat64
}

// Slot returns the record's motor slot.
func (r SnapshotRecord) Slot() Slot { return Slot{Venue: r.Venue, MotorNumber: r.MotorNumber} }

// SnapshotID identifies the page the record came from: YYYYMMDD_VV.
func (r SnapshotRecord) SnapshotID() string { return SnapshotID(r.Date, r.Venue) }

// SnapshotKey is the uniqueness key of a snapshot row.
type SnapshotKey struct {
	Date        Date
	Venue       string
	MotorNumber int
}

// Key returns the record's uniqueness key.
func (r SnapshotRecord) Key() SnapshotKey {
	return SnapshotKey{Date: r.Date, Venue: r.Venue, MotorNumber: r.MotorNumber}
}

// SnapshotID formats a page identifier.
func SnapshotID(d Date, venue string) string { return d.Compact() + "_" + venue }

// MotorIdentityInterval is one generation of a slot. ValidTo is FarFuture
// for the current generation.
type MotorIdentityInterval struct {
	Venue       string
	MotorNumber int
	Generation  int
	Identity    string
	ValidFrom   Date
	ValidTo     Date
}

// Slot returns the interval's motor slot.
func (iv MotorIdentityInterval) Slot() Slot {
	return Slot{Venue: iv.Venue, MotorNumber: iv.MotorNumber}
}

// Open reports whether the interval has no end.
func (iv MotorIdentityInterval) Open() bool { return iv.ValidTo >= FarFuture }

// Contains reports whether d falls inside [ValidFrom, ValidTo].
func (iv MotorIdentityInterval) Contains(d Date) bool {
	return iv.ValidFrom <= d && d <= iv.ValidTo
}

// RaceKey carries the join fields of one race row. Row is the row's
// position in the source table.
type RaceKey struct {
	Row         int
	RaceID      string
	Date        Date
	Venue       string
	MotorNumber int
	// Valid is false when the key fields could not be parsed.
	Valid bool
}

// Slot returns the row's motor slot.
func (k RaceKey) Slot() Slot { return Slot{Venue: k.Venue, MotorNumber: k.MotorNumber} }

// Assignment is the join outcome for one race row.
type Assignment struct {
	Row       int
	Identity  sql.NullString
	Ambiguous bool
}

// SectionKey identifies one section of one motor identity.
type SectionKey struct {
	Identity  string
	SectionID string
}

// SectionRow is one section's own aggregates, keyed by SectionKey.
type SectionRow struct {
	Identity  string
	SectionID string
	Start     Date
	End       Date
	Metrics   map[string]sql.NullFloat64
}

// Key returns the row's section key.
func (r SectionRow) Key() SectionKey { return SectionKey{Identity: r.Identity, SectionID: r.SectionID} }

// FeatureRow is a SectionRow plus trailing features. Features holds values
// for FeatureColumns in the same order.
type FeatureRow struct {
	SectionRow
	Features []sql.NullFloat64
}
