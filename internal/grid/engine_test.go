package grid

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// Fixtures
// ----------------------------------------------------------------------------

var testBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	t time.Time
}

// Now advances one second per call so entries get distinct timestamps.
func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func testColumns() []ColumnDefinition {
	return []ColumnDefinition{
		{ID: "sample", Label: "Sample", Width: 10, Rules: []Rule{RequiredRule{}}},
		{ID: "analyte", Label: "Analyte", Width: 10, Editable: true,
			Rules: []Rule{EnumRule{Values: []string{"assay", "pH", "moisture"}}}},
		{ID: "result", Label: "Result", Width: 8, Editable: true,
			Rules: []Rule{Between(13, 16, "OOS")}},
		{ID: "comment", Label: "Comment", Field: "notes", Width: 20, Editable: true},
	}
}

func testRecords() []Record {
	return []Record{
		{"sample": "row1", "analyte": "assay", "result": "", "notes": nil},
		{"sample": "row2", "analyte": "pH", "result": 14.0, "notes": "retest"},
		{"sample": "row3", "analyte": "moisture", "result": "20", "notes": ""},
	}
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: testBase}
	base := []Option{
		WithRowIDField("sample"),
		WithClock(clock.Now),
		WithIDGenerator(sequentialIDs("id")),
	}
	e, err := NewEngine(testRecords(), testColumns(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e, clock
}

func mustRow(t *testing.T, s GridState, id string) *Row {
	t.Helper()
	row, ok := s.Row(id)
	if !ok {
		t.Fatalf("row %q not found", id)
	}
	return row
}

func mustCell(t *testing.T, s GridState, rowID, colID string) Cell {
	t.Helper()
	c, ok := mustRow(t, s, rowID).Cell(colID)
	if !ok {
		t.Fatalf("cell %s/%s not found", rowID, colID)
	}
	return c
}

// recorder collects published snapshots.
type recorder struct {
	states []GridState
}

func (r *recorder) OnStateChange(s GridState) { r.states = append(r.states, s) }

// ----------------------------------------------------------------------------
// Construction
// ----------------------------------------------------------------------------

func TestNewEngine_BuildsInitialState(t *testing.T) {
	e, _ := newTestEngine(t)
	s := e.State()

	if s.Version() != 1 {
		t.Errorf("Version() = %d, want 1", s.Version())
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for _, row := range s.Rows() {
		if got := len(row.Cells()); got != len(testColumns()) {
			t.Errorf("row %s has %d cells, want %d", row.ID(), got, len(testColumns()))
		}
		if row.HistoryLen() != 0 {
			t.Errorf("row %s history = %d, want 0", row.ID(), row.HistoryLen())
		}
	}

	if c := mustCell(t, s, "row2", "result"); c.Value != "14" || !c.Status.IsValid() {
		t.Errorf("row2/result = %+v, want 14 valid", c)
	}
	if c := mustCell(t, s, "row3", "result"); c.Status != Invalid("OOS") {
		t.Errorf("row3/result status = %v, want invalid(OOS)", c.Status)
	}
	if c := mustCell(t, s, "row2", "comment"); c.Value != "retest" {
		t.Errorf("row2/comment = %q, want value read through Field", c.Value)
	}
	if c := mustCell(t, s, "row1", "comment"); c.Value != "" || !c.Status.IsValid() {
		t.Errorf("row1/comment = %+v, want empty valid", c)
	}
	if len(s.Changes()) != 0 {
		t.Errorf("initial Changes() = %d, want 0", len(s.Changes()))
	}
}

func TestNewEngine_RowOrderFollowsRecords(t *testing.T) {
	e, _ := newTestEngine(t)
	want := []string{"row1", "row2", "row3"}
	for i, row := range e.State().Rows() {
		if row.ID() != want[i] {
			t.Errorf("Rows()[%d] = %q, want %q", i, row.ID(), want[i])
		}
	}
}

func TestNewEngine_GeneratedRowIDs(t *testing.T) {
	records := []Record{{"result": "14"}, {"result": "15"}}
	e, err := NewEngine(records, testColumns(), WithIDGenerator(sequentialIDs("gen")))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, ok := e.State().Row("gen-1"); !ok {
		t.Error("expected generated row id gen-1")
	}
	if _, ok := e.State().Row("gen-2"); !ok {
		t.Error("expected generated row id gen-2")
	}
}

func TestNewEngine_DefaultIDsAreUnique(t *testing.T) {
	records := make([]Record, 50)
	for i := range records {
		records[i] = Record{"result": i}
	}
	e, err := NewEngine(records, testColumns())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if e.State().Len() != 50 {
		t.Errorf("Len() = %d, want 50", e.State().Len())
	}
}

func TestNewEngine_AccessorOverridesField(t *testing.T) {
	cols := []ColumnDefinition{{
		ID:    "total",
		Field: "ignored",
		Accessor: func(r Record) any {
			a, _ := r["a"].(int)
			b, _ := r["b"].(int)
			return a + b
		},
	}}
	e, err := NewEngine([]Record{{"a": 2, "b": 3, "ignored": "x"}}, cols, WithIDGenerator(sequentialIDs("r")))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if got := mustCell(t, e.State(), "r-1", "total").Value; got != "5" {
		t.Errorf("total = %q, want %q", got, "5")
	}
}

func TestNewEngine_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		columns []ColumnDefinition
		wantErr error
	}{
		{
			name:    "empty column id",
			columns: []ColumnDefinition{{ID: ""}},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "duplicate column id",
			columns: []ColumnDefinition{{ID: "a"}, {ID: "a"}},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "negative width",
			columns: []ColumnDefinition{{ID: "a", Width: -1}},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "duplicate row id",
			records: []Record{{"sample": "x"}, {"sample": "x"}},
			columns: testColumns(),
			wantErr: ErrDuplicateRow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.records, tt.columns, WithRowIDField("sample"))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewEngine() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewEngine_PublishInitial(t *testing.T) {
	rec := &recorder{}
	newTestEngine(t, WithListener(rec), WithPublishInitial())
	if len(rec.states) != 1 || rec.states[0].Version() != 1 {
		t.Fatalf("published %d states, want the initial one", len(rec.states))
	}

	quiet := &recorder{}
	newTestEngine(t, WithListener(quiet))
	if len(quiet.states) != 0 {
		t.Errorf("published %d states without WithPublishInitial, want 0", len(quiet.states))
	}
}

func TestNewEngine_CopiesColumns(t *testing.T) {
	cols := testColumns()
	e, err := NewEngine(testRecords(), cols, WithRowIDField("sample"))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	cols[2].Editable = false
	cols[2].Rules[0] = RequiredRule{}

	col, _ := e.State().Column("result")
	if !col.Editable {
		t.Error("caller mutation of columns leaked into engine")
	}
	if col.Rules[0].Kind() != KindRange {
		t.Errorf("rule kind = %s, want %s", col.Rules[0].Kind(), KindRange)
	}
}

func TestState_ColumnsDoNotShareRules(t *testing.T) {
	e, _ := newTestEngine(t)
	before := e.State()

	leaked := before.Columns()
	leaked[2].Rules[0] = RequiredRule{}
	leaked[1].Rules[0].(EnumRule).Values[0] = "zinc"
	col, _ := before.Column("result")
	*col.Rules[0].(RangeRule).Max = 100

	s, err := e.UpdateCell("row1", "result", "20", "user-1")
	if err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	if got := mustCell(t, s, "row1", "result").Status; got != Invalid("OOS") {
		t.Errorf("status = %v, want %v", got, Invalid("OOS"))
	}

	if col, _ := before.Column("result"); col.Rules[0].Kind() != KindRange {
		t.Errorf("published snapshot rule kind = %s, want %s", col.Rules[0].Kind(), KindRange)
	}
	if got := e.State().Columns()[1].Evaluate("assay"); !got.IsValid() {
		t.Errorf("Evaluate(assay) = %v, want valid", got)
	}
}

// ----------------------------------------------------------------------------
// UpdateCell
// ----------------------------------------------------------------------------

func TestUpdateCell_OOSScenario(t *testing.T) {
	e, _ := newTestEngine(t)

	s, err := e.UpdateCell("row1", "result", "14.5", "user-1")
	if err != nil {
		t.Fatalf("UpdateCell(14.5) error = %v", err)
	}
	if c := mustCell(t, s, "row1", "result"); !c.Status.IsValid() {
		t.Errorf("status after 14.5 = %v, want valid", c.Status)
	}
	if got := mustRow(t, s, "row1").HistoryLen(); got != 1 {
		t.Fatalf("history after first edit = %d, want 1", got)
	}

	s, err = e.UpdateCell("row1", "result", "20", "user-1")
	if err != nil {
		t.Fatalf("UpdateCell(20) error = %v", err)
	}
	c := mustCell(t, s, "row1", "result")
	if c.Value != "20" {
		t.Errorf("value = %q, want %q", c.Value, "20")
	}
	if c.Status != Invalid("OOS") {
		t.Errorf("status = %v, want invalid(OOS)", c.Status)
	}

	history := mustRow(t, s, "row1").History()
	if len(history) != 2 {
		t.Fatalf("history = %d, want 2", len(history))
	}
	if history[1].PreviousValue != "14.5" || history[1].NewValue != "20" {
		t.Errorf("second entry = %q -> %q, want 14.5 -> 20", history[1].PreviousValue, history[1].NewValue)
	}
}

func TestUpdateCell_WriteRead(t *testing.T) {
	values := []string{"13", "16", "15.25", "", "  ", "abc", "$14.00", "1e1"}
	for _, v := range values {
		t.Run(fmt.Sprintf("%q", v), func(t *testing.T) {
			e, _ := newTestEngine(t)
			s, err := e.UpdateCell("row2", "result", v, "user-1")
			if err != nil {
				t.Fatalf("UpdateCell() error = %v", err)
			}
			if got := mustCell(t, s, "row2", "result").Value; got != v {
				t.Errorf("value = %q, want %q", got, v)
			}
			if got := mustCell(t, e.State(), "row2", "result").Value; got != v {
				t.Errorf("State() value = %q, want %q", got, v)
			}
		})
	}
}

func TestUpdateCell_AuditGrowth(t *testing.T) {
	e, _ := newTestEngine(t)
	before := mustRow(t, e.State(), "row2")
	prev, _ := before.Cell("result")

	s, err := e.UpdateCell("row2", "result", "17", "user-7")
	if err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	after := mustRow(t, s, "row2")
	if after.HistoryLen() != before.HistoryLen()+1 {
		t.Fatalf("history = %d, want %d", after.HistoryLen(), before.HistoryLen()+1)
	}

	got := after.History()[after.HistoryLen()-1]
	want := AuditEntry{
		ID:             "id-1",
		Seq:            1,
		RowID:          "row2",
		ColumnID:       "result",
		PreviousValue:  prev.Value,
		NewValue:       "17",
		PreviousStatus: prev.Status,
		NewStatus:      Invalid("OOS"),
		ActorID:        "user-7",
		Action:         ActionCellEdit,
		Severity:       SeverityMedium,
		Timestamp:      testBase.Add(time.Second),
	}
	if got != want {
		t.Errorf("entry = %+v\nwant    %+v", got, want)
	}

	changes := s.Changes()
	if len(changes) != 1 || changes[0] != want {
		t.Errorf("Changes() = %+v, want the new entry", changes)
	}
	if s.Version() != 2 {
		t.Errorf("Version() = %d, want 2", s.Version())
	}
}

func TestUpdateCell_Isolation(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.UpdateCell("row3", "comment", "seen", "user-1"); err != nil {
		t.Fatalf("setup edit: %v", err)
	}
	before := e.State()

	after, err := e.UpdateCell("row1", "result", "15", "user-1")
	if err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}

	for _, id := range []string{"row2", "row3"} {
		b := mustRow(t, before, id)
		a := mustRow(t, after, id)
		if a != b {
			t.Errorf("row %s was rebuilt, want the untouched row to be shared", id)
		}
		for col, cell := range b.Cells() {
			if got, _ := a.Cell(col); got != cell {
				t.Errorf("row %s/%s = %+v, want %+v", id, col, got, cell)
			}
		}
		if a.HistoryLen() != b.HistoryLen() {
			t.Errorf("row %s history = %d, want %d", id, a.HistoryLen(), b.HistoryLen())
		}
	}
}

func TestUpdateCell_InvalidValueIsStored(t *testing.T) {
	e, _ := newTestEngine(t)
	rec := &recorder{}
	e.Subscribe(rec)

	s, err := e.UpdateCell("row1", "analyte", "lead", "user-1")
	if err != nil {
		t.Fatalf("UpdateCell() error = %v, want nil for a rule failure", err)
	}
	c := mustCell(t, s, "row1", "analyte")
	if c.Value != "lead" {
		t.Errorf("value = %q, want %q", c.Value, "lead")
	}
	if c.Status.IsValid() || c.Status.Message != "value must be one of: assay, pH, moisture" {
		t.Errorf("status = %v, want enum failure", c.Status)
	}
	if len(rec.states) != 1 {
		t.Errorf("published %d states, want 1", len(rec.states))
	}
}

func TestUpdateCell_StructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		rowID    string
		columnID string
		wantErr  error
	}{
		{"unknown row", "row9", "result", ErrUnknownRow},
		{"unknown column", "row1", "mass", ErrUnknownColumn},
		{"non-editable column", "row1", "sample", ErrNotEditable},
		{"unknown row and column", "row9", "mass", ErrUnknownColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			rec := &recorder{}
			e.Subscribe(rec)
			before := e.State()

			s, err := e.UpdateCell(tt.rowID, tt.columnID, "15", "user-1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UpdateCell() error = %v, want %v", err, tt.wantErr)
			}
			var editErr *EditError
			if !errors.As(err, &editErr) {
				t.Fatalf("error %T is not *EditError", err)
			}
			if editErr.ColumnID != tt.columnID {
				t.Errorf("EditError.ColumnID = %q, want %q", editErr.ColumnID, tt.columnID)
			}
			if s.Version() != 0 {
				t.Errorf("returned state version = %d, want zero state", s.Version())
			}

			after := e.State()
			if after.Version() != before.Version() {
				t.Errorf("Version() = %d, want %d", after.Version(), before.Version())
			}
			if got := after.Summary().Edits; got != 0 {
				t.Errorf("audit entries = %d, want 0", got)
			}
			if len(rec.states) != 0 {
				t.Errorf("published %d states, want 0", len(rec.states))
			}
		})
	}
}

func TestUpdateCell_PublishedSnapshotsNeverChange(t *testing.T) {
	e, _ := newTestEngine(t)
	first, err := e.UpdateCell("row1", "result", "14.5", "user-1")
	if err != nil {
		t.Fatalf("first edit: %v", err)
	}
	if _, err := e.UpdateCell("row1", "result", "20", "user-2"); err != nil {
		t.Fatalf("second edit: %v", err)
	}

	if got := mustCell(t, first, "row1", "result").Value; got != "14.5" {
		t.Errorf("earlier snapshot value = %q, want %q", got, "14.5")
	}
	if got := mustRow(t, first, "row1").HistoryLen(); got != 1 {
		t.Errorf("earlier snapshot history = %d, want 1", got)
	}

	// Mutating returned copies must not reach the snapshot.
	cells := mustRow(t, first, "row1").Cells()
	cells["result"] = Cell{Value: "tampered"}
	history := mustRow(t, first, "row1").History()
	history[0].NewValue = "tampered"
	rows := first.Rows()
	rows[0] = nil

	if got := mustCell(t, first, "row1", "result").Value; got != "14.5" {
		t.Errorf("snapshot value after tampering = %q", got)
	}
	if got := mustRow(t, first, "row1").History()[0].NewValue; got != "14.5" {
		t.Errorf("snapshot history after tampering = %q", got)
	}
	if first.Rows()[0] == nil {
		t.Error("snapshot rows changed through Rows() copy")
	}
}

func TestUpdateCell_StatusTransitions(t *testing.T) {
	tests := []struct {
		name  string
		from  string
		to    string
		valid bool
	}{
		{"valid to valid", "14", "15", true},
		{"valid to invalid", "14", "12", false},
		{"invalid to invalid", "20", "21", false},
		{"invalid to valid", "20", "13", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			if _, err := e.UpdateCell("row1", "result", tt.from, "user-1"); err != nil {
				t.Fatalf("setup edit: %v", err)
			}
			s, err := e.UpdateCell("row1", "result", tt.to, "user-1")
			if err != nil {
				t.Fatalf("UpdateCell() error = %v", err)
			}
			if got := mustCell(t, s, "row1", "result").Status.IsValid(); got != tt.valid {
				t.Errorf("valid = %v, want %v", got, tt.valid)
			}
			last := s.Changes()[0]
			if last.PreviousValue != tt.from || last.NewValue != tt.to {
				t.Errorf("entry = %q -> %q, want %q -> %q", last.PreviousValue, last.NewValue, tt.from, tt.to)
			}
		})
	}
}

func TestUpdateCell_RestoreAppendsAndReplays(t *testing.T) {
	e, _ := newTestEngine(t)
	original := mustCell(t, e.State(), "row2", "result").Value

	edits := []struct{ value, actor string }{
		{"18", "analyst-1"},
		{"15.5", "reviewer-1"},
		{original, "reviewer-2"},
	}
	for _, ed := range edits {
		if _, err := e.UpdateCell("row2", "result", ed.value, ed.actor); err != nil {
			t.Fatalf("UpdateCell(%q) error = %v", ed.value, err)
		}
	}
	if _, err := e.UpdateCell("row2", "comment", "ok", "reviewer-2"); err != nil {
		t.Fatalf("comment edit: %v", err)
	}

	row := mustRow(t, e.State(), "row2")
	if row.HistoryLen() != 4 {
		t.Fatalf("history = %d, want 4", row.HistoryLen())
	}
	if got := row.OriginalValue("result"); got != original {
		t.Errorf("OriginalValue() = %q, want %q", got, original)
	}
	if got := row.OriginalValue("analyte"); got != "pH" {
		t.Errorf("OriginalValue(unedited) = %q, want %q", got, "pH")
	}

	// Replaying the column history from the original value yields the current value.
	value := row.OriginalValue("result")
	for i, entry := range row.CellHistory("result") {
		if entry.PreviousValue != value {
			t.Fatalf("entry %d previous = %q, want %q", i, entry.PreviousValue, value)
		}
		if entry.ActorID != edits[i].actor {
			t.Errorf("entry %d actor = %q, want %q", i, entry.ActorID, edits[i].actor)
		}
		value = entry.NewValue
	}
	if value != row.Value("result") {
		t.Errorf("replayed value = %q, want %q", value, row.Value("result"))
	}

	history := row.History()
	for i := 1; i < len(history); i++ {
		if history[i].Seq <= history[i-1].Seq || history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Errorf("entries %d and %d out of order", i-1, i)
		}
	}
}

// ----------------------------------------------------------------------------
// Listeners
// ----------------------------------------------------------------------------

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	e, _ := newTestEngine(t)

	var calls []string
	unsubA := e.Subscribe(ListenerFunc(func(GridState) { calls = append(calls, "a") }))
	e.Subscribe(ListenerFunc(func(GridState) { calls = append(calls, "b") }))

	if _, err := e.UpdateCell("row1", "result", "14", "user-1"); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	unsubA()
	unsubA() // Second call is a no-op
	if _, err := e.UpdateCell("row1", "result", "15", "user-1"); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}

	want := []string{"a", "b", "b"}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestSubscribe_ListenerSeesCommittedState(t *testing.T) {
	e, _ := newTestEngine(t)
	var seen GridState
	e.Subscribe(ListenerFunc(func(s GridState) {
		seen = e.State()
		if s.Version() != seen.Version() {
			t.Errorf("listener got version %d while engine is at %d", s.Version(), seen.Version())
		}
	}))

	s, err := e.UpdateCell("row1", "result", "14", "user-1")
	if err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	if seen.Version() != s.Version() {
		t.Errorf("listener saw version %d, want %d", seen.Version(), s.Version())
	}
}

func TestSubscribe_UnsubscribeDuringDelivery(t *testing.T) {
	e, _ := newTestEngine(t)
	count := 0
	var unsub func()
	unsub = e.Subscribe(ListenerFunc(func(GridState) {
		count++
		unsub()
	}))
	other := &recorder{}
	e.Subscribe(other)

	for _, v := range []string{"14", "15"} {
		if _, err := e.UpdateCell("row1", "result", v, "user-1"); err != nil {
			t.Fatalf("UpdateCell() error = %v", err)
		}
	}
	if count != 1 {
		t.Errorf("self-removing listener called %d times, want 1", count)
	}
	if len(other.states) != 2 {
		t.Errorf("other listener called %d times, want 2", len(other.states))
	}
}

// ----------------------------------------------------------------------------
// BulkUpdate
// ----------------------------------------------------------------------------

func TestBulkUpdate_AppliesAsOneTransition(t *testing.T) {
	e, _ := newTestEngine(t)
	rec := &recorder{}
	e.Subscribe(rec)

	s, err := e.BulkUpdate([]string{"row1", "row3", "row1"}, "comment", "reviewed", "lead-1")
	if err != nil {
		t.Fatalf("BulkUpdate() error = %v", err)
	}
	if len(rec.states) != 1 {
		t.Fatalf("published %d states, want 1", len(rec.states))
	}
	if s.Version() != 2 {
		t.Errorf("Version() = %d, want 2", s.Version())
	}

	changes := s.Changes()
	if len(changes) != 2 {
		t.Fatalf("Changes() = %d, want 2", len(changes))
	}
	for _, c := range changes {
		if c.Action != ActionBulkEdit || c.Severity != SeverityHigh {
			t.Errorf("entry action/severity = %s/%s, want bulk_edit/high", c.Action, c.Severity)
		}
		if c.BatchID == "" || c.BatchID != changes[0].BatchID {
			t.Errorf("entry batch = %q, want shared non-empty batch id", c.BatchID)
		}
	}
	for _, id := range []string{"row1", "row3"} {
		if got := mustCell(t, s, id, "comment").Value; got != "reviewed" {
			t.Errorf("%s/comment = %q, want %q", id, got, "reviewed")
		}
	}
	if got := mustRow(t, s, "row2").HistoryLen(); got != 0 {
		t.Errorf("row2 history = %d, want 0", got)
	}
}

func TestBulkUpdate_SkipsUnchangedRows(t *testing.T) {
	e, _ := newTestEngine(t)
	s, err := e.BulkUpdate([]string{"row2", "row3"}, "comment", "retest", "lead-1")
	if err != nil {
		t.Fatalf("BulkUpdate() error = %v", err)
	}
	if got := len(s.Changes()); got != 1 {
		t.Errorf("Changes() = %d, want 1 (row2 already holds the value)", got)
	}

	rec := &recorder{}
	e.Subscribe(rec)
	again, err := e.BulkUpdate([]string{"row2", "row3"}, "comment", "retest", "lead-1")
	if err != nil {
		t.Fatalf("BulkUpdate() error = %v", err)
	}
	if len(rec.states) != 0 {
		t.Errorf("no-op bulk edit published %d states, want 0", len(rec.states))
	}
	if again.Version() != s.Version() {
		t.Errorf("Version() = %d, want unchanged %d", again.Version(), s.Version())
	}
}

func TestBulkUpdate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		rows     []string
		columnID string
		wantErr  error
	}{
		{"no rows", nil, "comment", ErrNoRows},
		{"unknown row", []string{"row1", "row9"}, "comment", ErrUnknownRow},
		{"unknown column", []string{"row1"}, "mass", ErrUnknownColumn},
		{"read-only column", []string{"row1"}, "sample", ErrNotEditable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			_, err := e.BulkUpdate(tt.rows, tt.columnID, "x", "lead-1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("BulkUpdate() error = %v, want %v", err, tt.wantErr)
			}
			if got := e.State().Summary().Edits; got != 0 {
				t.Errorf("audit entries = %d, want 0", got)
			}
			if got := mustCell(t, e.State(), "row1", "comment").Value; got != "" {
				t.Errorf("row1/comment = %q, want untouched", got)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

func TestValidateValue(t *testing.T) {
	e, _ := newTestEngine(t)

	st, err := e.ValidateValue("result", "12.9")
	if err != nil {
		t.Fatalf("ValidateValue() error = %v", err)
	}
	if st != Invalid("OOS") {
		t.Errorf("ValidateValue() = %v, want invalid(OOS)", st)
	}
	if _, err := e.ValidateValue("mass", "1"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("ValidateValue(unknown) error = %v, want %v", err, ErrUnknownColumn)
	}
	if e.State().Version() != 1 {
		t.Errorf("ValidateValue changed state")
	}
}

func TestGridState_SummaryAndInvalidCells(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.UpdateCell("row1", "analyte", "lead", "user-1"); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	s := e.State()

	sum := s.Summary()
	want := Summary{Version: 2, Rows: 3, Columns: 4, InvalidCells: 2, Edits: 1}
	if sum != want {
		t.Errorf("Summary() = %+v, want %+v", sum, want)
	}

	invalid := s.InvalidCells()
	if len(invalid) != 2 {
		t.Fatalf("InvalidCells() = %d, want 2", len(invalid))
	}
	if invalid[0].RowID != "row1" || invalid[0].ColumnID != "analyte" {
		t.Errorf("InvalidCells()[0] = %+v, want row1/analyte", invalid[0])
	}
	if invalid[1] != (CellRef{RowID: "row3", ColumnID: "result", Message: "OOS"}) {
		t.Errorf("InvalidCells()[1] = %+v, want row3/result OOS", invalid[1])
	}
}

func TestGridState_Audit(t *testing.T) {
	e, _ := newTestEngine(t)
	edits := []struct{ row, col, value, actor string }{
		{"row1", "result", "14", "a"},
		{"row2", "result", "15", "b"},
		{"row1", "comment", "x", "b"},
		{"row3", "result", "13", "a"},
		{"row1", "result", "16", "a"},
	}
	for _, ed := range edits {
		if _, err := e.UpdateCell(ed.row, ed.col, ed.value, ed.actor); err != nil {
			t.Fatalf("UpdateCell() error = %v", err)
		}
	}
	s := e.State()

	tests := []struct {
		name    string
		filter  AuditFilter
		wantSeq []uint64
	}{
		{"all in order", AuditFilter{}, []uint64{1, 2, 3, 4, 5}},
		{"by row", AuditFilter{RowID: "row1"}, []uint64{1, 3, 5}},
		{"by column", AuditFilter{ColumnID: "result"}, []uint64{1, 2, 4, 5}},
		{"by actor", AuditFilter{ActorID: "b"}, []uint64{2, 3}},
		{"since", AuditFilter{Since: testBase.Add(4 * time.Second)}, []uint64{4, 5}},
		{"until", AuditFilter{Until: testBase.Add(3 * time.Second)}, []uint64{1, 2}},
		{"paged", AuditFilter{Limit: 2, Offset: 1}, []uint64{2, 3}},
		{"offset past end", AuditFilter{Offset: 10}, nil},
		{"unknown row", AuditFilter{RowID: "row9"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Audit(tt.filter)
			if len(got) != len(tt.wantSeq) {
				t.Fatalf("Audit() returned %d entries, want %d", len(got), len(tt.wantSeq))
			}
			for i, e := range got {
				if e.Seq != tt.wantSeq[i] {
					t.Errorf("Audit()[%d].Seq = %d, want %d", i, e.Seq, tt.wantSeq[i])
				}
			}
		})
	}
}
