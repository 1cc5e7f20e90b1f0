package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/gootp/internal/pkg/config"
)

func middlewareMaintenance(cfg config.Config) Middleware {
	// entries are "METHOD /route" or a bare "/route" for every method
	blocked := endpoints{}
	if cfg != nil {
		for _, entry := range cfg.GetArray("app.maintenance.endpoints") {
			method, route, ok := strings.Cut(entry, " ")
			if !ok {
				method, route = "*", entry
			}
			method = strings.ToUpper(strings.TrimSpace(method))
			if blocked[method] == nil {
				blocked[method] = map[string]struct{}{}
			}
			blocked[method][strings.TrimSpace(route)] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			if blocked.has(r.Method, route) || blocked.has("*", route) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
