package web

import (
	"net/http"

	"github.com/JonMunkholm/gridreview/internal/grid"
	"github.com/JonMunkholm/gridreview/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handleGridPage renders the current snapshot as an HTML table.
func (s *Server) handleGridPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.GridPage(s.service.State()).Render(r.Context(), w); err != nil {
		respondError(w, r, err)
	}
}

// handleSnapshot returns the current snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.State())
}

// handleSummary returns aggregate counts for the current snapshot.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Summary())
}

// handleRow returns one row with its edit history.
func (s *Server) handleRow(w http.ResponseWriter, r *http.Request) {
	row, err := s.service.Row(chi.URLParam(r, "rowID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, row)
}

// handleValidate reports the status a value would receive without storing it.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	if column == "" {
		writeError(w, http.StatusBadRequest, "column is required")
		return
	}
	value := r.URL.Query().Get("value")

	status, err := s.service.Validate(column, value)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, struct {
		ColumnID string      `json:"columnId"`
		Value    string      `json:"value"`
		Status   grid.Status `json:"status"`
	}{column, value, status})
}
