package middleware

import (
	"context"
	"net/http"
	"strings"

	"medhistory/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccessTokenParser resolves a bearer access token to its user id.
type AccessTokenParser interface {
	ParseAccess(token string) (uuid.UUID, error)
}

// StaffChecker reports whether a user may use the admin routes.
type StaffChecker interface {
	IsStaff(ctx context.Context, userID uuid.UUID) (bool, error)
}

// AuthJWT requires a valid "Bearer <access token>" header.
func AuthJWT(tokens AccessTokenParser, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			token := parts[1]
			userID, err := tokens.ParseAccess(token)
			if err != nil {
				logger.Warn("Rejected access token", zap.Error(err), zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Token is invalid or expired")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID)
			ctx = utils.SetTokenContext(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Staff must run after AuthJWT.
func Staff(users StaffChecker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			staff, err := users.IsStaff(r.Context(), userID)
			if err != nil {
				logger.Error("Staff check: failed to get user",
					zap.Error(err), zap.String("user_id", userID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			if !staff {
				logger.Warn("Staff check: non-staff access attempt",
					zap.String("user_id", userID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Staff access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
