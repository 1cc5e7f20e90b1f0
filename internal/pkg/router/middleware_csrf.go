package router

import (
	"net/http"
	"strings"
)

// HeaderCSRFToken carries the token minted by GET /api/v1/csrf-token.
const HeaderCSRFToken = "X-CSRF-Token"

// CSRFVerifier checks a CSRF token.
type CSRFVerifier interface {
	Verify(token string) error
}

var csrfSafeMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

func middlewareCSRF(verifier CSRFVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, safe := csrfSafeMethods[r.Method]; safe {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimSpace(r.Header.Get(HeaderCSRFToken))
			if token == "" {
				writeJSON(w, errorResponse{Message: "CSRF token required"}, http.StatusForbidden)
				return
			}

			if err := verifier.Verify(token); err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired CSRF token"}, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
