package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// parseIntParam parses a non-negative integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// parseDateParam parses a YYYY-MM-DD query parameter as midnight UTC.
func parseDateParam(r *http.Request, name string) time.Time {
	val := r.URL.Query().Get(name)
	if val == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseAuditFilter reads audit filters from the query string.
// "to" is inclusive of the whole day.
func parseAuditFilter(r *http.Request) grid.AuditFilter {
	q := r.URL.Query()
	f := grid.AuditFilter{
		RowID:    q.Get("row"),
		ColumnID: q.Get("column"),
		ActorID:  q.Get("actor"),
		Since:    parseDateParam(r, "from"),
		Limit:    parseIntParam(r, "limit", grid.DefaultAuditLimit),
		Offset:   parseIntParam(r, "offset", 0),
	}
	if to := parseDateParam(r, "to"); !to.IsZero() {
		f.Until = to.Add(24 * time.Hour)
	}
	if f.Limit > maxAuditPageSize {
		f.Limit = maxAuditPageSize
	}
	return f
}

// maxAuditPageSize caps the limit query parameter on audit listings.
const maxAuditPageSize = 1000
