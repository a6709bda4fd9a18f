package auth

import "time"

// Identity represents an authenticated principal.
type Identity struct {
	ID           string
	Email        string
	FullName     string
	Phone        string
	Role         Role
	Active       bool
	PasswordHash string // bcrypt; never leaves this package's callers in responses
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccessToken is one persisted opaque bearer credential. The raw secret is
// never stored; only its SHA-256 digest.
type AccessToken struct {
	ID         string // public identifier, used for revocation
	IdentityID string
	SecretHash string
	CreatedAt  time.Time
}

// IssuedToken carries the one-time-visible secret returned at issue time.
type IssuedToken struct {
	ID        string
	Secret    string
	CreatedAt time.Time
}

// RegisterInput collects the fields accepted at registration.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Role     string // optional; defaults to "user"
}

// ProfileUpdate applies partial identity updates. Nil fields are untouched.
type ProfileUpdate struct {
	FullName *string
	Email    *string
	Phone    *string
	Role     *string
}
