package model

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day stored as days since 1970-01-01 UTC.
// Integer days keep comparisons total and make "day before" a subtraction.
type Date int32

// Open-ended interval bounds.
var (
	FarPast   = MustDate(1900, time.January, 1)
	FarFuture = MustDate(2100, time.December, 31)
)

const secondsPerDay = 24 * 60 * 60

// NewDate builds a Date from calendar parts.
func NewDate(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return 0, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return FromTime(t), nil
}

// MustDate is NewDate for constants; it panics on an impossible date.
func MustDate(year int, month time.Month, day int) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime truncates t to its UTC calendar day.
func FromTime(t time.Time) Date {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Date(midnight.Unix() / secondsPerDay)
}

var dateLayouts = []string{ //nolint:gochecknoglobals // parse table
	"20060102",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate accepts YYYYMMDD (optionally with a trailing ".0" left by
// float columns), YYYY-MM-DD, YYYY/MM/DD and YYYY-MM-DD HH:MM:SS.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// AddDays shifts d by n days.
func (d Date) AddDays(n int) Date { return d + Date(n) }

// DaysSince returns d - o in days.
func (d Date) DaysSince(o Date) int { return int(d - o) }

// String formats d as YYYY-MM-DD.
func (d Date) String() string { return d.Time().Format("2006-01-02") }

// Compact formats d as YYYYMMDD.
func (d Date) Compact() string { return d.Time().Format("20060102") }
