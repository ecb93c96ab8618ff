// Package fixtures generates a synthetic ranking archive and a matching
// race table. Output depends only on Config, so tests can assert exact
// motor replacements.
package fixtures

import (
	"time"

	"github.com/okian/motorgen/internal/domain/model"
)

// Config describes the archive to generate.
type Config struct {
	Seed   uint64
	Venues []string
	// Motors is the number of motor slots per venue.
	Motors int
	Start  model.Date
	// Sections is the number of meetings per venue. A meeting starts every
	// SectionEvery days and lasts SectionDays days.
	Sections     int
	SectionEvery int
	SectionDays  int
	RacesPerDay  int
	// ReplaceProb is the chance that a slot gets one motor replacement.
	ReplaceProb float64
	// VoidProb is the chance that a race is declared void.
	VoidProb float64
	// ShiftJIS encodes documents as Shift_JIS instead of UTF-8.
	ShiftJIS bool
}

// DefaultConfig returns a small archive covering about a year and a half.
func DefaultConfig() Config {
	return Config{
		Seed:         42,
		Venues:       []string{"01", "07", "12"},
		Motors:       12,
		Start:        model.MustDate(2023, time.January, 5),
		Sections:     54,
		SectionEvery: 10,
		SectionDays:  4,
		RacesPerDay:  4,
		ReplaceProb:  0.5,
		VoidProb:     0.02,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if len(c.Venues) == 0 {
		c.Venues = d.Venues
	}
	if c.Motors < Boats {
		c.Motors = Boats
	}
	if c.Start == 0 {
		c.Start = d.Start
	}
	if c.Sections < 1 {
		c.Sections = d.Sections
	}
	if c.SectionEvery < 1 {
		c.SectionEvery = d.SectionEvery
	}
	if c.SectionDays < 1 || c.SectionDays > c.SectionEvery {
		c.SectionDays = min(d.SectionDays, c.SectionEvery)
	}
	if c.RacesPerDay < 1 {
		c.RacesPerDay = d.RacesPerDay
	}
	return c
}
