package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/permanentprinting/storefront-backend/internal/cart"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
)

// CartSessionHeader carries the guest cart session between requests.
const CartSessionHeader = "X-Cart-Session"

const maxCartSessionLength = 64

// CartSession resolves the cart a request operates on. Authenticated callers use their
// user cart; guests use the X-Cart-Session header, minted when absent and echoed back.
// Must run after Auth or OptionalAuth.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if userID, err := uuid.Parse(UserIDFromContext(r.Context())); err == nil {
				sessionID = cart.UserSessionID(userID)
			} else {
				sessionID = GuestSessionFromRequest(r)
				if sessionID == "" {
					sessionID = cart.NewGuestSessionID()
				}
				w.Header().Set(CartSessionHeader, sessionID)
			}

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuestSessionFromRequest returns the client supplied guest session, or "" when the
// header is missing or malformed. User carts cannot be addressed through the header.
func GuestSessionFromRequest(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get(CartSessionHeader))
	if value == "" || len(value) > maxCartSessionLength {
		return ""
	}
	if strings.Contains(value, ":") {
		return ""
	}
	return value
}
