package router

import (
	"net/http"

	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
)

// middlewareMaintenance answers 503 while app.maintenance is on. The flag is
// read per request so a config reload takes effect without a restart.
// Health checks stay reachable.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil && cfg.GetBool("app.maintenance") && routeOf(r) != "/health" {
				writeError(w, http.StatusServiceUnavailable, goerror.CodeInternal, "Service is under maintenance")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
