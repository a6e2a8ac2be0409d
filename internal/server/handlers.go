package server

import (
	"net/http"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/models"
)

// analyzeRequest is the body of POST /api/analyze.
type analyzeRequest struct {
	Intent models.Intent `json:"intent"`
	Page   int           `json:"page"`
}

// handleAnalyze runs a structured intent and returns one page of results.
// Collaborator failures come back as a 200 envelope with an error status;
// only a malformed request is an HTTP error.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req analyzeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Intent.Kind == "" {
		WriteError(w, http.StatusBadRequest, "intent.kind is required")
		return
	}

	result := s.app.Analysis.Analyze(r.Context(), &req.Intent, req.Page)
	WriteJSON(w, http.StatusOK, result)
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVersion reports build information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
