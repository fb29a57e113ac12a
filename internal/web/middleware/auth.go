package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/gridreview/internal/config"
	"github.com/JonMunkholm/gridreview/internal/core"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// apiKey is one configured credential. Entries in API_KEYS are either
// "name:secret" or a bare secret; a named key edits as that name.
type apiKey struct {
	name   string
	secret string
}

func parseAPIKeys(entries []string) []apiKey {
	keys := make([]apiKey, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		name, secret, found := strings.Cut(e, ":")
		if !found {
			name, secret = "", e
		}
		if secret == "" {
			continue
		}
		keys = append(keys, apiKey{name: strings.TrimSpace(name), secret: secret})
	}
	return keys
}

// APIKeyAuth returns middleware that validates the X-API-Key header against
// the configured keys. If RequireAPIKey is false, all requests pass through.
// If RequireAPIKey is true but no keys are configured, all requests are rejected.
//
// A named key becomes the request's actor (core.ContextWithActor), so audit
// entries carry the authenticated identity rather than a client-supplied header.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	keys := parseAPIKeys(cfg.APIKeys)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			presented := r.Header.Get(APIKeyHeader)
			if presented == "" {
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
				return
			}

			key, ok := matchAPIKey(presented, keys)
			if !ok {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
				return
			}

			if key.name != "" {
				r = r.WithContext(core.ContextWithActor(r.Context(), key.name))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// matchAPIKey compares presented against every key in constant time per key,
// so the total time does not depend on which key matched.
func matchAPIKey(presented string, keys []apiKey) (apiKey, bool) {
	match := -1
	for i, k := range keys {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(k.secret)) == 1 {
			match = i
		}
	}
	if match < 0 {
		return apiKey{}, false
	}
	return keys[match], true
}

func writeAuthError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
