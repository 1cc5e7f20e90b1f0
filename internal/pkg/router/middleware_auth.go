package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/gootp/internal/pkg/jwt"
)

// endpoints maps an HTTP method to a set of route patterns.
type endpoints map[string]map[string]struct{}

func (e endpoints) has(method, route string) bool {
	_, ok := e[method][route]
	return ok
}

func middlewareAuthentication(verifier jwt.JWT, public endpoints) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.has(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				writeJSON(w, errorResponse{Message: "Authentication unavailable"}, http.StatusUnauthorized)
				return
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(p[1])
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			ctx := jwt.SetAuth(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
