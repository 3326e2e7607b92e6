package callback

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

var startedAt = time.Now()

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
	})
}

// handleProgress handles POST /v1/commissions/{commissionID}/progress.
// Always 202: a report for an unknown or finalized commission is dropped,
// never an error the worker has to handle.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "commissionID")

	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Summary == "" {
		s.writeError(w, http.StatusBadRequest, "summary is required")
		return
	}

	s.reporter.ReportProgress(r.Context(), id, req.Summary)
	s.writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// handleResult handles POST /v1/commissions/{commissionID}/result.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "commissionID")

	var req ResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Summary == "" {
		s.writeError(w, http.StatusBadRequest, "summary is required")
		return
	}

	s.reporter.ReportResult(r.Context(), id, req.Summary, req.Artifacts)
	s.writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// handleQuestion handles POST /v1/commissions/{commissionID}/question.
func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "commissionID")

	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	s.reporter.ReportQuestion(r.Context(), id, req.Question)
	s.writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
