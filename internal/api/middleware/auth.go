package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api/response"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/auth"
)

const identityKey contextKey = "identity"

// Auth is middleware that extracts the Authorization bearer token and
// resolves it to an Identity via the auth service. Missing, malformed,
// expired or orphaned tokens return 401; a deactivated user returns 403.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			header := r.Header.Get("Authorization")
			if header == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", requestID)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header must be a bearer token", requestID)
				return
			}

			identity, err := authService.ResolveIdentity(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					response.Err(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", requestID)
				case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrUserNotFound):
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials", requestID)
				case errors.Is(err, auth.ErrUserInactive):
					response.Err(w, http.StatusForbidden, "INACTIVE_USER", "User account is inactive", requestID)
				default:
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}
