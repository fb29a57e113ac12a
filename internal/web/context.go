package web

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/gridreview/internal/core"
)

// withActor adds the editing identity from the configured header to the
// request context. An identity already set by a named API key wins; a
// missing header leaves the service default in effect.
func (s *Server) withActor(r *http.Request) context.Context {
	if core.ActorFromContext(r.Context()) != "" {
		return r.Context()
	}
	actor := strings.TrimSpace(r.Header.Get(s.cfg.Grid.ActorHeader))
	if actor == "" {
		return r.Context()
	}
	return core.ContextWithActor(r.Context(), actor)
}

// clientIP returns the request source address without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
