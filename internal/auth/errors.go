package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers must not distinguish the two for remote clients.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrAccountDeactivated marks a valid credential for an inactive identity.
	ErrAccountDeactivated = errors.New("auth: account deactivated")

	// ErrInvalidToken marks an unknown, revoked or malformed token secret.
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrNotFound     = errors.New("auth: not found")
	ErrEmailTaken   = errors.New("auth: email already taken")
	ErrInvalidInput = errors.New("auth: invalid input")
)
