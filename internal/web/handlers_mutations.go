package web

import (
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/gridreview/internal/core"
)

// handleUpdateCell updates a single cell value.
func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req core.UpdateCellRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RowID == "" || req.ColumnID == "" {
		writeError(w, http.StatusBadRequest, "rowId and columnId are required")
		return
	}

	result, err := s.service.UpdateCell(s.withActor(r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleBulkEdit updates a single column across multiple selected rows.
func (s *Server) handleBulkEdit(w http.ResponseWriter, r *http.Request) {
	var req core.BulkEditRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ColumnID == "" {
		writeError(w, http.StatusBadRequest, "columnId is required")
		return
	}

	result, err := s.service.BulkEdit(s.withActor(r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}
