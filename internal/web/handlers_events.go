package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// keepAliveInterval is how often an idle event stream sends a comment line.
var keepAliveInterval = 30 * time.Second

// stateEvent is the payload of a "state" server-sent event.
type stateEvent struct {
	Version uint64            `json:"version"`
	Summary grid.Summary      `json:"summary"`
	Changes []grid.AuditEntry `json:"changes,omitempty"`
}

// handleEvents streams grid snapshots via Server-Sent Events.
// The current state is sent first, then one event per published snapshot.
// A slow client skips intermediate versions but always receives the newest.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	updates, err := s.service.Watch(ctx)
	if err != nil {
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	current := s.service.State()
	writeStateEvent(w, current)
	flusher.Flush()
	lastVersion := current.Version()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case st := <-updates:
			// Snapshots queued before the initial event was written
			if st.Version() <= lastVersion {
				continue
			}
			lastVersion = st.Version()
			writeStateEvent(w, st)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-ctx.Done():
			return
		}
	}
}

// writeStateEvent writes one "state" event with the version as event ID.
func writeStateEvent(w http.ResponseWriter, st grid.GridState) {
	data, _ := json.Marshal(stateEvent{
		Version: st.Version(),
		Summary: st.Summary(),
		Changes: st.Changes(),
	})
	fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", st.Version(), data)
}
