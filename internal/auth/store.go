package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Identities(ctx context.Context) IdentityStore
	Tokens(ctx context.Context) TokenStore
}

// IdentityStore manages identities.
type IdentityStore interface {
	Create(ctx context.Context, identity *Identity) error
	Find(ctx context.Context, id string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	Update(ctx context.Context, identity *Identity) error
	UpdatePassword(ctx context.Context, identityID, passwordHash string) error
}

// TokenStore manages access token lifecycle. Creates and deletes are atomic
// single-record operations; concurrent issue/revoke for one identity must not
// corrupt the identity's token set.
type TokenStore interface {
	Create(ctx context.Context, tok *AccessToken) error
	FindBySecretHash(ctx context.Context, hash string) (*AccessToken, error)
	// Delete removes the token only when it belongs to the identity.
	// Deleting an absent record is not an error.
	Delete(ctx context.Context, identityID, tokenID string) error
	DeleteByIdentity(ctx context.Context, identityID string) error
}
