// Package types contains the JSON shapes served by the lookup API.
package types

import "github.com/okian/motorgen/internal/domain/model"

// Interval is one generation of a motor slot.
type Interval struct {
	Identity    string `json:"motor_identity"`
	Venue       string `json:"venue"`
	MotorNumber int    `json:"motor_number"`
	Generation  int    `json:"generation_index"`
	ValidFrom   string `json:"valid_from"`
	// ValidTo is omitted for the current generation.
	ValidTo string `json:"valid_to,omitempty"`
}

// NewInterval converts a model interval.
func NewInterval(iv model.MotorIdentityInterval) Interval {
	out := Interval{
		Identity:    iv.Identity,
		Venue:       iv.Venue,
		MotorNumber: iv.MotorNumber,
		Generation:  iv.Generation,
		ValidFrom:   iv.ValidFrom.String(),
	}
	if !iv.Open() {
		out.ValidTo = iv.ValidTo.String()
	}
	return out
}

// IntervalsResponse lists a slot's generations.
type IntervalsResponse struct {
	Venue       string     `json:"venue"`
	MotorNumber int        `json:"motor_number"`
	Intervals   []Interval `json:"intervals"`
}

// IdentityResponse is the result of a date lookup on a slot.
type IdentityResponse struct {
	Venue       string    `json:"venue"`
	MotorNumber int       `json:"motor_number"`
	Date        string    `json:"date"`
	Found       bool      `json:"found"`
	Ambiguous   bool      `json:"ambiguous"`
	Interval    *Interval `json:"interval,omitempty"`
}

// Section is one section's values. Nil values are missing.
type Section struct {
	SectionID string              `json:"section_id"`
	Start     string              `json:"section_start"`
	End       string              `json:"section_end"`
	Values    map[string]*float64 `json:"values"`
}

// FeaturesResponse lists a motor identity's sections in start order.
type FeaturesResponse struct {
	Identity string    `json:"motor_identity"`
	Sections []Section `json:"sections"`
}

// HealthResponse reports liveness and what is loaded.
type HealthResponse struct {
	Status    string `json:"status"`
	Intervals int    `json:"intervals"`
	Version   uint64 `json:"version"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Run is one recorded stage execution.
type Run struct {
	ID         string `json:"id"`
	Stage      string `json:"stage"`
	Status     string `json:"status"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	RowsOut    int    `json:"rows_out"`
	Error      string `json:"error,omitempty"`
}

// RunsResponse lists recent runs, newest first.
type RunsResponse struct {
	Runs []Run `json:"runs"`
}
