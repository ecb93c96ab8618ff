package api

import (
	"net/http"

	"github.com/okian/motorgen/internal/domain/types"
)

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{Status: "ok", Intervals: s.index.Count(r.Context())}
	if s.version != nil {
		resp.Version = s.version()
	}
	writeJSON(w, http.StatusOK, resp)
}
