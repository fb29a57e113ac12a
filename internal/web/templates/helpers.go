// Package templates renders the grid review HTML views.
//
// Components live in .templ files; the matching _templ.go files are
// produced by `templ generate`.
package templates

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

func formatVersion(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func summaryText(sum grid.Summary) string {
	return fmt.Sprintf("Version %d · %d rows · %d flagged · %d edits",
		sum.Version, sum.Rows, sum.InvalidCells, sum.Edits)
}

// cellClasses returns "invalid" for a flagged cell and "edited" once the
// cell has been changed.
func cellClasses(row *grid.Row, columnID string, cell grid.Cell) string {
	var classes []string
	if !cell.Status.IsValid() {
		classes = append(classes, "invalid")
	}
	if len(row.CellHistory(columnID)) > 0 {
		classes = append(classes, "edited")
	}
	return strings.Join(classes, " ")
}
