package schema

import "github.com/JonMunkholm/gridreview/internal/grid"

// LabResultsRowID is the record field identifying rows of LabResults.
const LabResultsRowID = "sample_id"

// LabResults is the built-in schema for laboratory result review, used when
// no schema file is configured. Results outside 13..16 are flagged OOS
// (out of specification).
var LabResults = File{
	RowID: LabResultsRowID,
	Columns: []ColumnSpec{
		{ID: "sample_id", Label: "Sample", Width: 12, Required: true},
		{ID: "batch", Label: "Batch", Width: 10, Required: true},
		{ID: "analyte", Label: "Analyte", Type: FieldEnum, Width: 10, Editable: true,
			Values: []string{"assay", "pH", "moisture", "impurity"}},
		{ID: "result", Label: "Result", Type: FieldNumeric, Width: 8, Editable: true,
			Rules: []grid.RuleSpec{{Kind: grid.KindRange, Min: floatPtr(13), Max: floatPtr(16), Message: "OOS"}}},
		{ID: "tested_on", Label: "Tested", Type: FieldDate, Width: 10, Editable: true},
		{ID: "retest", Label: "Retest", Type: FieldBool, Width: 6, Editable: true},
		{ID: "comment", Label: "Comment", Width: 24, Editable: true},
	},
}

func floatPtr(f float64) *float64 { return &f }
