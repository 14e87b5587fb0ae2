package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/permanentprinting/storefront-backend/api/middleware"
	"github.com/permanentprinting/storefront-backend/api/responses"
	"github.com/permanentprinting/storefront-backend/api/validators"
	"github.com/permanentprinting/storefront-backend/internal/auth"
	"github.com/permanentprinting/storefront-backend/internal/cart"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
)

// CartMerger folds a guest cart into the signed-in user's cart.
type CartMerger interface {
	Merge(ctx context.Context, fromSessionID, toSessionID string) (*cart.View, error)
}

// AuthRegister creates a customer account and signs it in.
func AuthRegister(svc auth.Service, carts CartMerger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mergeGuestCart(r, carts, result, logg)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, carts CartMerger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mergeGuestCart(r, carts, result, logg)
		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the session behind the caller's access token. Requires Auth.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Refresh(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AuthVerify resolves the bearer token into the caller's profile.
func AuthVerify(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		user, err := svc.Verify(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"user": user})
	}
}

// mergeGuestCart never fails the sign-in; the guest cart stays in place on error.
func mergeGuestCart(r *http.Request, carts CartMerger, result *auth.AuthResponse, logg *logger.Logger) {
	if carts == nil || result == nil || result.User == nil || result.User.ID == uuid.Nil {
		return
	}
	guest := middleware.GuestSessionFromRequest(r)
	if guest == "" {
		return
	}
	ctx := r.Context()
	if _, err := carts.Merge(ctx, guest, cart.UserSessionID(result.User.ID)); err != nil && logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"guest_session": guest,
			"error":         err.Error(),
		}), "cart.merge_failed")
	}
}
