package core

import (
	"context"

	"github.com/JonMunkholm/gridreview/internal/grid"
	"github.com/JonMunkholm/gridreview/internal/logging"
)

// UpdateCellRequest represents a single cell edit.
type UpdateCellRequest struct {
	RowID    string `json:"rowId"`
	ColumnID string `json:"columnId"`
	Value    string `json:"value"`
}

// UpdateCellResult contains the result of a cell update.
type UpdateCellResult struct {
	Version uint64          `json:"version"`
	Cell    grid.Cell       `json:"cell"`
	Entry   grid.AuditEntry `json:"entry"`
}

// UpdateCell applies one edit attributed to the actor in ctx.
// A value that fails the column rules is accepted and flagged on the cell;
// only structural problems (unknown row or column, read-only column) return
// an error.
func (s *Service) UpdateCell(ctx context.Context, req UpdateCellRequest) (*UpdateCellResult, error) {
	actor := s.actor(ctx)
	log := logging.WithFields(ctx, "row_id", req.RowID, "column_id", req.ColumnID, "actor", actor)

	s.mu.Lock()
	st, err := s.engine.UpdateCell(req.RowID, req.ColumnID, req.Value, actor)
	s.mu.Unlock()
	if err != nil {
		log.Warn("cell edit rejected", "error", err)
		return nil, err
	}

	row, _ := st.Row(req.RowID)
	cell, _ := row.Cell(req.ColumnID)
	changes := st.Changes()

	return &UpdateCellResult{
		Version: st.Version(),
		Cell:    cell,
		Entry:   changes[len(changes)-1],
	}, nil
}

// BulkEditRequest represents a request to write one value into many rows.
type BulkEditRequest struct {
	RowIDs   []string `json:"rowIds"`
	ColumnID string   `json:"columnId"`
	Value    string   `json:"value"`
}

// BulkEditResult contains the result of a bulk edit operation.
type BulkEditResult struct {
	Version uint64      `json:"version"`
	Updated int         `json:"updated"`
	Skipped int         `json:"skipped"` // Rows that already held the value
	BatchID string      `json:"batchId,omitempty"`
	Status  grid.Status `json:"status"`
}

// BulkEdit writes the same value into one column of several rows as a single
// transition. Any unknown row aborts the whole edit.
func (s *Service) BulkEdit(ctx context.Context, req BulkEditRequest) (*BulkEditResult, error) {
	actor := s.actor(ctx)
	log := logging.WithFields(ctx, "column_id", req.ColumnID, "rows", len(req.RowIDs), "actor", actor)

	s.mu.Lock()
	before := s.engine.State().Version()
	st, err := s.engine.BulkUpdate(req.RowIDs, req.ColumnID, req.Value, actor)
	s.mu.Unlock()
	if err != nil {
		log.Warn("bulk edit rejected", "error", err)
		return nil, err
	}

	col, _ := st.Column(req.ColumnID)
	result := &BulkEditResult{
		Version: st.Version(),
		Status:  col.Evaluate(req.Value),
	}
	if st.Version() != before {
		changes := st.Changes()
		result.Updated = len(changes)
		result.BatchID = changes[0].BatchID
	}
	result.Skipped = uniqueCount(req.RowIDs) - result.Updated
	return result, nil
}

func uniqueCount(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
