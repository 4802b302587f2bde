package middleware

import (
	"net/http"
	"strings"
)

// SessionCookieName holds the signed session issued after a correct PIN.
const SessionCookieName = "access_pin"

type sessionValidator interface {
	ValidateSession(token string) error
}

// PINGate lets a request through only when it carries a valid session
// cookie. Rejected API calls get a 401 JSON body, everything else gets the
// front end so it can show the PIN prompt.
type PINGate struct {
	validator sessionValidator
	exempt    map[string]struct{}
	fallback  http.Handler
}

func NewPINGate(validator sessionValidator, fallback http.Handler, exemptPaths ...string) *PINGate {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = struct{}{}
	}

	return &PINGate{validator: validator, exempt: exempt, fallback: fallback}
}

func (g *PINGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.exempt[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err == nil && g.validator.ValidateSession(cookie.Value) == nil {
			next.ServeHTTP(w, r)
			return
		}

		if isAPIPath(r.URL.Path) || g.fallback == nil {
			writeUnauthorized(w)
			return
		}

		g.fallback.ServeHTTP(w, r)
	})
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "PIN required")
}
