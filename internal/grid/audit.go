package grid

import "time"

// AuditAction represents the type of edit being audited.
type AuditAction string

const (
	ActionCellEdit AuditAction = "cell_edit"
	ActionBulkEdit AuditAction = "bulk_edit"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionBulkEdit:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// AuditEntry records one accepted edit. Entries are never modified or removed.
type AuditEntry struct {
	ID             string        `json:"id"`
	Seq            uint64        `json:"seq"` // Engine-wide application order, starting at 1
	RowID          string        `json:"rowId"`
	ColumnID       string        `json:"columnId"`
	PreviousValue  string        `json:"previousValue"`
	NewValue       string        `json:"newValue"`
	PreviousStatus Status        `json:"previousStatus"`
	NewStatus      Status        `json:"newStatus"`
	ActorID        string        `json:"actorId"`
	Action         AuditAction   `json:"action"`
	Severity       AuditSeverity `json:"severity"`
	BatchID        string        `json:"batchId,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// AuditFilter contains filtering options for querying audit entries.
// Zero-valued fields do not filter.
type AuditFilter struct {
	RowID    string
	ColumnID string
	ActorID  string
	Since    time.Time // Inclusive
	Until    time.Time // Exclusive
	Limit    int
	Offset   int
}

// DefaultAuditLimit caps audit listings when no limit is given.
const DefaultAuditLimit = 100

func (f AuditFilter) matches(e AuditEntry) bool {
	if f.RowID != "" && e.RowID != f.RowID {
		return false
	}
	if f.ColumnID != "" && e.ColumnID != f.ColumnID {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !e.Timestamp.Before(f.Until) {
		return false
	}
	return true
}
