package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"taskhive.org/internal/auth"
	"taskhive.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Authenticate resolves the bearer secret from the Authorization header and
// attaches the owning identity to the request context. It is idempotent: an
// identity already attached by an enclosing gate passes through without a
// second store lookup, so nested authentication requirements are harmless.
func (a *API) Authenticate() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.IdentityFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			secret, err := extractBearerToken(r.Header.Get(authHeader))
			if err != nil {
				obs.AuthFailure("unauthenticated")
				unauthenticated(w, r, "Authentication required")
				return
			}

			identity, tokenID, err := a.auth.Resolve(r.Context(), secret)
			if err != nil {
				obs.AuthFailure("unauthenticated")
				// The caller proved knowledge of a once-valid token, so
				// deactivation may be disclosed; every other failure stays
				// indistinguishable.
				if errors.Is(err, auth.ErrAccountDeactivated) {
					unauthenticated(w, r, "Account is deactivated. Please contact support.")
					return
				}
				unauthenticated(w, r, "Authentication required")
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), *identity)
			ctx = auth.ContextWithTokenID(ctx, tokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole builds a gate enforcing the role requirement. The returned
// stage carries its own authentication stage at construction time, so a role
// check can never run without a resolved identity in context.
func (a *API) RequireRole(req auth.Requirement) Middleware {
	check := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				unauthenticated(w, r, "Authentication required")
				return
			}
			if !req.Satisfied(identity.Role) {
				obs.AuthFailure("forbidden")
				forbidden(w, r, req, identity.Role)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	authenticate := a.Authenticate()
	return func(next http.Handler) http.Handler {
		return authenticate(check(next))
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func unauthenticated(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="taskhive"`)
	writeError(w, r, http.StatusUnauthorized, msg)
}

func forbidden(w http.ResponseWriter, r *http.Request, req auth.Requirement, role auth.Role) {
	writeError(w, r, http.StatusForbidden,
		fmt.Sprintf("Access denied. Required roles: %s. Your role: %s", req, role))
}
