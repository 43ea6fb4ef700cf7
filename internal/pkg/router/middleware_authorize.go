package router

import (
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
)

// Enforcer decides whether a role may perform act on obj.
type Enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

// Authorize allows the request through only when the caller's role may
// perform act on obj. It must run after authentication.
func Authorize(enforcer Enforcer, obj, act string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clm := jwt.GetAuth(r.Context())
			if clm == nil {
				writeError(w, http.StatusUnauthorized, goerror.CodeUnauthorized, "Authentication required")
				return
			}

			ok, err := enforcer.Enforce(clm.Role, obj, act)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to enforce policy", "role", clm.Role, "obj", obj, "act", act, "error", err)
				writeError(w, http.StatusInternalServerError, goerror.CodeInternal, "Internal server error")
				return
			}
			if !ok {
				writeError(w, http.StatusForbidden, goerror.CodeForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
