package middleware

import (
	"context"
	"net/http"

	"github.com/eventforge/server/internal/api/problem"
	"github.com/eventforge/server/internal/auth"
)

type contextKeyIdentity struct{}

// IdentityResolver maps a verified token subject to a live identity.
// A token whose subject no longer resolves is treated as unauthorized.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID int64) (*auth.Identity, error)
}

// Authenticate requires a valid bearer access token and loads the
// caller's identity into the request context. Every failure mode,
// missing token, bad signature, expiry, unknown subject, produces the
// same 401 response so nothing about the credential is disclosed.
func Authenticate(manager *auth.TokenManager, resolver IdentityResolver, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := resolve(r, manager, resolver)
			if !ok {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithIdentity(r.Context(), identity)))
		})
	}
}

// MaybeAuthenticate resolves an identity when a bearer token is present
// but lets anonymous requests through. Endpoints with visibility rules
// use it so the same route serves public and authenticated views.
func MaybeAuthenticate(manager *auth.TokenManager, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			if identity, ok := resolve(r, manager, resolver); ok {
				r = r.WithContext(contextWithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route on a minimum role. It must run after
// Authenticate.
func RequireRole(min auth.Role, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFrom(r.Context())
			if identity == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
				return
			}
			if !identity.Role.AtLeast(min) {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", problem.ErrForbidden, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolve(r *http.Request, manager *auth.TokenManager, resolver IdentityResolver) (*auth.Identity, bool) {
	if manager == nil || resolver == nil {
		return nil, false
	}

	token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return nil, false
	}

	claims, err := manager.VerifyAccess(token)
	if err != nil {
		return nil, false
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, false
	}

	identity, err := resolver.ResolveIdentity(r.Context(), userID)
	if err != nil {
		return nil, false
	}
	return identity, true
}

func contextWithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, identity)
}

// IdentityFrom returns the authenticated caller, or nil for anonymous
// requests.
func IdentityFrom(ctx context.Context) *auth.Identity {
	if identity, ok := ctx.Value(contextKeyIdentity{}).(*auth.Identity); ok {
		return identity
	}
	return nil
}
