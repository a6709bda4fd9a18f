package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskhive.org/internal/ids"
)

// dummyHash is a syntactically valid bcrypt hash compared against when the
// email lookup finds nothing, so the two invalid-credential paths cost the
// same amount of time. The compare result is discarded.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service issues and verifies credentials and opaque access tokens.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the auth service over a persistence store.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth store is required")
	}
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register creates an identity and issues its first token. The role defaults
// to "user"; an unknown role string fails before anything is persisted.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Identity, IssuedToken, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, IssuedToken{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, IssuedToken{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	role := RoleUser
	if strings.TrimSpace(in.Role) != "" {
		parsed, err := ParseRole(in.Role)
		if err != nil {
			return nil, IssuedToken{}, err
		}
		role = parsed
	}

	identities := s.store.Identities(ctx)
	if existing, err := identities.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, IssuedToken{}, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, IssuedToken{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, IssuedToken{}, err
	}

	now := s.now().UTC()
	identity := &Identity{
		ID:           ids.New(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := identities.Create(ctx, identity); err != nil {
		return nil, IssuedToken{}, err
	}

	issued, err := s.Issue(ctx, identity)
	if err != nil {
		return nil, IssuedToken{}, err
	}
	return identity, issued, nil
}

// Verify checks email and password against the stored hash. It reports
// ErrInvalidCredentials for unknown email and wrong password alike, and does
// NOT check the active flag; that distinction belongs to the caller.
func (s *Service) Verify(ctx context.Context, email, password string) (*Identity, error) {
	identity, err := s.store.Identities(ctx).FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = VerifyPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := VerifyPassword(identity.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return identity, nil
}

// Login verifies credentials, rejects deactivated accounts and issues a
// fresh token. ErrAccountDeactivated stays internal; the HTTP layer collapses
// it with ErrInvalidCredentials for remote clients.
func (s *Service) Login(ctx context.Context, email, password string) (*Identity, IssuedToken, error) {
	identity, err := s.Verify(ctx, email, password)
	if err != nil {
		return nil, IssuedToken{}, err
	}
	if !identity.Active {
		return nil, IssuedToken{}, ErrAccountDeactivated
	}
	issued, err := s.Issue(ctx, identity)
	if err != nil {
		return nil, IssuedToken{}, err
	}
	return identity, issued, nil
}

// Issue mints a new access token bound to the identity. The returned secret
// is visible exactly once; storage keeps only its digest.
func (s *Service) Issue(ctx context.Context, identity *Identity) (IssuedToken, error) {
	if identity == nil || identity.ID == "" {
		return IssuedToken{}, fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	secret, err := newSecret()
	if err != nil {
		return IssuedToken{}, err
	}
	tok := &AccessToken{
		ID:         ids.New(),
		IdentityID: identity.ID,
		SecretHash: HashSecret(secret),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Tokens(ctx).Create(ctx, tok); err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{ID: tok.ID, Secret: secret, CreatedAt: tok.CreatedAt}, nil
}

// Revoke deletes the token when it belongs to the identity. Revoking an
// absent or already-revoked identifier is a no-op.
func (s *Service) Revoke(ctx context.Context, identityID, tokenID string) error {
	return s.store.Tokens(ctx).Delete(ctx, identityID, tokenID)
}

// RevokeAll removes every token of the identity (administrative action).
func (s *Service) RevokeAll(ctx context.Context, identityID string) error {
	return s.store.Tokens(ctx).DeleteByIdentity(ctx, identityID)
}

// Resolve maps a presented secret to its owning identity and the token
// identifier. Unknown, revoked and malformed secrets all fail with
// ErrInvalidToken; a resolvable token of a deactivated identity fails with
// ErrAccountDeactivated.
func (s *Service) Resolve(ctx context.Context, secret string) (*Identity, string, error) {
	if !wellFormedSecret(secret) {
		return nil, "", ErrInvalidToken
	}
	tok, err := s.store.Tokens(ctx).FindBySecretHash(ctx, HashSecret(secret))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidToken
		}
		return nil, "", err
	}
	identity, err := s.store.Identities(ctx).Find(ctx, tok.IdentityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidToken
		}
		return nil, "", err
	}
	if !identity.Active {
		return nil, "", ErrAccountDeactivated
	}
	return identity, tok.ID, nil
}

// Refresh replaces the presented token: issue first, then revoke the old one.
// A failed issue leaves the old token valid and untouched; a failed revoke
// rolls the fresh token back so at most one credential of the replaced kind
// survives.
func (s *Service) Refresh(ctx context.Context, identity *Identity, currentTokenID string) (IssuedToken, error) {
	issued, err := s.Issue(ctx, identity)
	if err != nil {
		return IssuedToken{}, err
	}
	if err := s.Revoke(ctx, identity.ID, currentTokenID); err != nil {
		_ = s.Revoke(ctx, identity.ID, issued.ID)
		return IssuedToken{}, err
	}
	return issued, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, identity *Identity, current, next string) error {
	if identity == nil {
		return fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	if err := VerifyPassword(identity.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	if len(next) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.Identities(ctx).UpdatePassword(ctx, identity.ID, hash)
}

// UpdateProfile applies partial updates; a changed email must stay unique.
func (s *Service) UpdateProfile(ctx context.Context, identity *Identity, upd ProfileUpdate) (*Identity, error) {
	if identity == nil {
		return nil, fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	identities := s.store.Identities(ctx)
	updated := *identity

	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		if email != identity.Email {
			existing, err := identities.FindByEmail(ctx, email)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			if existing != nil && existing.ID != identity.ID {
				return nil, ErrEmailTaken
			}
		}
		updated.Email = email
	}
	if upd.FullName != nil {
		updated.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.Phone != nil {
		updated.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Role != nil {
		role, err := ParseRole(*upd.Role)
		if err != nil {
			return nil, err
		}
		updated.Role = role
	}

	updated.UpdatedAt = s.now().UTC()
	if err := identities.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
