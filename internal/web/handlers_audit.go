package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/gridreview/internal/logging"
)

// handleAuditLog returns a page of audit entries.
//
// Query parameters: row, column, actor, from, to (YYYY-MM-DD), limit, offset.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Audit(parseAuditFilter(r)))
}

// handleAuditLogExport streams matching audit entries as a CSV download.
func (s *Server) handleAuditLogExport(w http.ResponseWriter, r *http.Request) {
	filter := parseAuditFilter(r)

	filename := fmt.Sprintf("grid_audit_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	n, err := s.service.ExportAudit(w, filter)
	if err != nil {
		// Headers are already sent; the client sees a truncated file.
		logging.FromContext(r.Context()).Error("audit export failed", "error", err)
		return
	}
	logging.FromContext(r.Context()).Info("audit exported", "entries", n)
}

// handleAuditArchive lists audit entries from the persistent store.
func (s *Server) handleAuditArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "audit archive not configured")
		return
	}

	entries, err := s.archive.List(r.Context(), parseAuditFilter(r))
	if err != nil {
		logging.FromContext(r.Context()).Error("audit archive query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "audit archive unavailable")
		return
	}

	writeJSON(w, map[string]any{"entries": entries, "count": len(entries)})
}
