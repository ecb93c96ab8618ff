package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/motorgen/internal/adapters/repository"
	"github.com/okian/motorgen/internal/domain/model"
	"github.com/okian/motorgen/internal/domain/racing"
	"github.com/okian/motorgen/internal/domain/types"
)

const defaultRunLimit = 20

func slotParam(r *http.Request) (model.Slot, error) {
	venue, err := racing.NormalizeVenue(chi.URLParam(r, "venue"))
	if err != nil {
		return model.Slot{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	motor, ok := racing.ParseMotorNumber(chi.URLParam(r, "motor"))
	if !ok {
		return model.Slot{}, fmt.Errorf("%w: motor %q", ErrBadRequest, chi.URLParam(r, "motor"))
	}
	return model.Slot{Venue: venue, MotorNumber: motor}, nil
}

// handleIntervals handles GET /v1/slots/{venue}/{motor}/intervals.
func (s *Server) handleIntervals(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ivs := s.index.Intervals(slot)
	if len(ivs) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: slot %s", repository.ErrNotFound, slot))
		return
	}
	resp := types.IntervalsResponse{Venue: slot.Venue, MotorNumber: slot.MotorNumber, Intervals: make([]types.Interval, len(ivs))}
	for i, iv := range ivs {
		resp.Intervals[i] = types.NewInterval(iv)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleIdentity handles GET /v1/slots/{venue}/{motor}/identity?date=.
// A date outside every interval answers 200 with found=false, like a
// null identity in the batch join.
func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	raw := r.URL.Query().Get("date")
	d, err := model.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: date %q", ErrBadRequest, raw))
		return
	}
	m, err := s.index.Lookup(r.Context(), slot, d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := types.IdentityResponse{
		Venue:       slot.Venue,
		MotorNumber: slot.MotorNumber,
		Date:        d.String(),
		Found:       m.Found,
		Ambiguous:   m.Ambiguous(),
	}
	if m.Found {
		iv := types.NewInterval(m.Interval)
		resp.Interval = &iv
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleInterval handles GET /v1/identities/{identity}.
func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	id := racing.NormalizeIdentity(chi.URLParam(r, "identity"))
	iv, err := s.index.Identity(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewInterval(iv))
}

// handleFeatures handles GET /v1/identities/{identity}/features.
func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	if s.features == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("features: %w", ErrUnavailable))
		return
	}
	id := racing.NormalizeIdentity(chi.URLParam(r, "identity"))
	recs, err := s.features.Features(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(recs) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: identity %s", repository.ErrNotFound, id))
		return
	}
	resp := types.FeaturesResponse{Identity: id, Sections: make([]types.Section, len(recs))}
	for i, rec := range recs {
		resp.Sections[i] = types.Section{SectionID: rec.SectionID, Start: rec.Start, End: rec.End, Values: rec.Values}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRuns handles GET /v1/runs?limit=.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("runs: %w", ErrUnavailable))
		return
	}
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: limit %q", ErrBadRequest, raw))
			return
		}
		limit = n
	}
	runs, err := s.runs.Runs(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := types.RunsResponse{Runs: make([]types.Run, len(runs))}
	for i, run := range runs {
		out := types.Run{
			ID:        run.ID,
			Stage:     run.Stage,
			Status:    run.Status,
			StartedAt: run.StartedAt.Format(time.RFC3339),
			RowsOut:   run.RowsOut,
			Error:     run.Error,
		}
		if !run.FinishedAt.IsZero() {
			out.FinishedAt = run.FinishedAt.Format(time.RFC3339)
		}
		resp.Runs[i] = out
	}
	writeJSON(w, http.StatusOK, resp)
}
