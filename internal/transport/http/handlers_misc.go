package http

import (
	"net/http"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	overview, err := s.statsSvc.Get(r.Context())
	if err != nil {
		s.logger.Error("stats request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
