package middleware

import (
	"context"
	"net/http"

	"github.com/mkorobov/jobwatch/internal/handlers/authz"
	"github.com/mkorobov/jobwatch/internal/handlers/render"
	"github.com/mkorobov/jobwatch/internal/handlers/userctx"
	"github.com/mkorobov/jobwatch/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.Principal, error)
}

// Authenticate establishes the request principal from the bearer access
// token. It never rejects by itself: requests without a usable token are
// forwarded unauthenticated and the authorization stage decides.
func Authenticate(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := as.Auth(r.Context(), r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := userctx.New(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize enforces the policy table: 401 without a principal on a
// protected path, 403 when the principal lacks a required role
func Authorize(policy *authz.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var principal *models.Principal
			if p, ok := userctx.FromContext(r.Context()); ok {
				principal = &p
			}

			switch policy.Authorize(r.URL.Path, principal) {
			case authz.DecisionUnauthorized:
				render.Unauthorized(w, r, "Full authentication is required to access this resource")
			case authz.DecisionForbidden:
				render.Forbidden(w, r, "Access is denied")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
