package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/permanentprinting/storefront-backend/api/responses"
	"github.com/permanentprinting/storefront-backend/internal/auth"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
)

// Authenticator resolves a bearer token into the caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// Auth validates a bearer token and seeds the request context with the identity.
func Auth(authenticator Authenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return authMiddleware(authenticator, logg, true)
}

// OptionalAuth attaches the identity when a token is supplied and lets guests through.
// A token that is present but invalid is still rejected.
func OptionalAuth(authenticator Authenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return authMiddleware(authenticator, logg, false)
}

func authMiddleware(authenticator Authenticator, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if authenticator == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "authenticator not configured"))
				return
			}

			identity, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUserID(r.Context(), identity.UserID.String())
			ctx = WithRole(ctx, string(identity.Role))
			ctx = context.WithValue(ctx, ctxAccessID, identity.AccessID)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    identity.UserID.String(),
					"actor_role": string(identity.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}
