package auth

import "context"

type identityContextKey struct{}
type tokenIDContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to the context.
// The attachment lives only as long as the request context it derives from.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &identity)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || v == nil {
		return Identity{}, false
	}
	return *v, true
}

// ContextWithTokenID stores the identifier of the token the request
// authenticated with; refresh and logout revoke by this identifier.
func ContextWithTokenID(ctx context.Context, tokenID string) context.Context {
	if tokenID == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenIDContextKey{}, tokenID)
}

// TokenIDFromContext returns the current token identifier if attached.
func TokenIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenIDContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
