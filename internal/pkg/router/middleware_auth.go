package router

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
)

func bearerToken(r *http.Request) (string, bool) {
	p := strings.Fields(r.Header.Get("Authorization"))
	if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
		return "", false
	}
	return p[1], true
}

func middlewareAuthentication(verifier jwt.JWT, revocation RevocationChecker, publicEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := routeOf(r)

			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, goerror.CodeUnauthorized, "Authentication required")
				return
			}

			claims, err := verifier.Verify(token, jwt.KindAccess)
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, goerror.CodeUnauthorized, "Token expired")
				return
			}
			if err != nil {
				writeError(w, http.StatusUnauthorized, goerror.CodeUnauthorized, "Invalid token")
				return
			}

			if revocation != nil {
				revoked, err := revocation.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					slog.ErrorContext(r.Context(), "failed to check token revocation", "error", err)
					writeError(w, http.StatusInternalServerError, goerror.CodeInternal, "Internal server error")
					return
				}
				if revoked {
					writeError(w, http.StatusUnauthorized, goerror.CodeUnauthorized, "Token revoked")
					return
				}
			}

			ctx := jwt.SetAuth(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
