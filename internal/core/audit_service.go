package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// ExportLimit caps the number of audit entries written by one export.
const ExportLimit = 10000

// AuditPage is one page of audit entries with paging metadata.
type AuditPage struct {
	Entries []grid.AuditEntry `json:"entries"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
	HasMore bool              `json:"hasMore"`
}

// Audit returns audit entries of the latest snapshot matching filter,
// ordered by application time.
func (s *Service) Audit(filter grid.AuditFilter) AuditPage {
	if filter.Limit <= 0 {
		filter.Limit = grid.DefaultAuditLimit
	}
	st := s.State()

	// Ask for one extra entry to learn whether another page exists.
	ahead := filter
	ahead.Limit++
	entries := st.Audit(ahead)

	page := AuditPage{Limit: filter.Limit, Offset: filter.Offset}
	if len(entries) > filter.Limit {
		page.HasMore = true
		entries = entries[:filter.Limit]
	}
	page.Entries = entries
	return page
}

// ----------------------------------------------------------------------------
// Export Methods
// ----------------------------------------------------------------------------

var exportHeader = []string{
	"ID", "Seq", "Timestamp", "Action", "Severity", "Actor", "Row", "Column",
	"Old Value", "New Value", "Old Status", "New Status", "Message", "Batch ID",
}

// ExportAudit writes audit entries matching filter to w as CSV.
// Limit and Offset in filter are ignored; at most ExportLimit entries are written.
// Free-text fields that a spreadsheet would evaluate as a formula are
// prefixed with a single quote.
func (s *Service) ExportAudit(w io.Writer, filter grid.AuditFilter) (int, error) {
	filter.Limit = ExportLimit
	filter.Offset = 0
	entries := s.State().Audit(filter)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("write audit export: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.ID,
			strconv.FormatUint(e.Seq, 10),
			e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			string(e.Action),
			string(e.Severity),
			safeCSVField(e.ActorID),
			safeCSVField(e.RowID),
			safeCSVField(e.ColumnID),
			safeCSVField(e.PreviousValue),
			safeCSVField(e.NewValue),
			string(e.PreviousStatus.Kind),
			string(e.NewStatus.Kind),
			safeCSVField(e.NewStatus.Message),
			e.BatchID,
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("write audit export: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("write audit export: %w", err)
	}
	return len(entries), nil
}

// safeCSVField prefixes values starting with a formula trigger (=, +, -, @,
// tab or carriage return) with a single quote. Plain numbers such as "-3.5"
// are left alone.
func safeCSVField(s string) string {
	if s == "" || !strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return s
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s
	}
	return "'" + s
}
