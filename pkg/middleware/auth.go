package middleware

import (
	"net/http"
	"strings"

	"fitness-booking/internal/data/entity"
	"fitness-booking/pkg/utils"

	"go.uber.org/zap"
)

const (
	HeaderUserID     = "X-User-ID"
	HeaderUserName   = "X-User-Name"
	HeaderUserAvatar = "X-User-Avatar"
	HeaderUserRole   = "X-User-Role"
)

// Identity reads the caller set by the upstream auth layer and stores it on
// the request context. Requests without a user id are rejected.
func Identity(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := entity.Caller{
				ID:     strings.TrimSpace(r.Header.Get(HeaderUserID)),
				Name:   strings.TrimSpace(r.Header.Get(HeaderUserName)),
				Avatar: strings.TrimSpace(r.Header.Get(HeaderUserAvatar)),
				Role:   entity.UserRole(strings.TrimSpace(r.Header.Get(HeaderUserRole))),
			}

			if caller.IsAnonymous() {
				logger.Warn("Missing caller identity",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method))
				utils.ResponseUnauthorized(w, "Missing caller identity")
				return
			}
			if caller.Name == "" {
				caller.Name = caller.ID
			}

			next.ServeHTTP(w, r.WithContext(utils.SetCaller(r.Context(), caller)))
		})
	}
}
