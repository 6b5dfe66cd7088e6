package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader is accepted as an alternative to "Authorization: Bearer <key>".
const APIKeyHeader = "X-API-Key"

// PublicPaths stay reachable without a key.
var PublicPaths = []string{"/", "/health", "/metrics"}

// APIKeyAuth rejects requests that carry none of keys. Empty keys are ignored;
// with no usable key the middleware is a pass-through. CORS preflight and
// the public paths are never checked.
func APIKeyAuth(keys []string, public ...string) func(http.Handler) http.Handler {
	var valid [][]byte
	for _, k := range keys {
		if k != "" {
			valid = append(valid, []byte(k))
		}
	}
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}

	return func(next http.Handler) http.Handler {
		if len(valid) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := presentedKey(r)
			if msg != "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
				return
			}
			if !matchesAny(valid, []byte(token)) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey extracts the key from X-API-Key or a Bearer Authorization header.
// A non-empty msg describes why no key could be read.
func presentedKey(r *http.Request) (token, msg string) {
	if k := r.Header.Get(APIKeyHeader); k != "" {
		return k, ""
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing api key"
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization header must use Bearer scheme"
	}
	return token, ""
}

// matchesAny compares against every key so timing does not reveal which one matched.
func matchesAny(keys [][]byte, token []byte) bool {
	hit := 0
	for _, k := range keys {
		hit |= subtle.ConstantTimeCompare(k, token)
	}
	return hit == 1
}
