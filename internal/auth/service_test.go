package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc, err := NewService(store, WithClock(func() time.Time {
		return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func register(t *testing.T, svc *Service, email, password, role string) (*Identity, IssuedToken) {
	t.Helper()
	identity, issued, err := svc.Register(context.Background(), RegisterInput{
		FullName: "Test User",
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return identity, issued
}

func TestRegisterDefaultsToUserRole(t *testing.T) {
	svc, store := newTestService(t)

	identity, issued := register(t, svc, "Alice@Example.COM ", "hunter2-hunter2", "")
	if identity.Role != RoleUser {
		t.Fatalf("expected default role user, got %v", identity.Role)
	}
	if identity.Email != "alice@example.com" {
		t.Fatalf("email was not normalized: %s", identity.Email)
	}
	if !identity.Active {
		t.Fatal("new identities start active")
	}
	if issued.Secret == "" || issued.ID == "" {
		t.Fatal("registration must issue a first token")
	}
	if store.tokenCount() != 1 {
		t.Fatalf("expected 1 stored token, got %d", store.tokenCount())
	}

	resolved, tokenID, err := svc.Resolve(context.Background(), issued.Secret)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ID != identity.ID || tokenID != issued.ID {
		t.Fatal("resolved token does not map back to the registering identity")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "", Password: "long-enough-pw"},
		{Email: "not-an-email", Password: "long-enough-pw"},
		{Email: "a@b.io", Password: "short"},
		{Email: "a@b.io", Password: "long-enough-pw", Role: "superadmin"},
	}
	for i, in := range cases {
		if _, _, err := svc.Register(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "dup@example.com", "hunter2-hunter2", "")

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "DUP@example.com",
		Password: "another-long-pw",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "bob@example.com", "hunter2-hunter2", "")

	if _, _, err := svc.Login(context.Background(), "bob@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "hunter2-hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, store := newTestService(t)
	identity, _ := register(t, svc, "gone@example.com", "hunter2-hunter2", "")

	store.mu.Lock()
	store.identities[identity.ID].Active = false
	store.mu.Unlock()

	_, _, err := svc.Login(context.Background(), "gone@example.com", "hunter2-hunter2")
	if !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestResolveRejectsMalformedAndUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	for _, secret := range []string{"", "garbage", "thv_short"} {
		if _, _, err := svc.Resolve(context.Background(), secret); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Resolve(%q): expected ErrInvalidToken, got %v", secret, err)
		}
	}

	// well formed but never issued
	unknown := "thv_" + fmt.Sprintf("%064x", 0)
	if _, _, err := svc.Resolve(context.Background(), unknown); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown secret, got %v", err)
	}
}

func TestResolveDeactivatedIdentity(t *testing.T) {
	svc, store := newTestService(t)
	identity, issued := register(t, svc, "off@example.com", "hunter2-hunter2", "")

	store.mu.Lock()
	store.identities[identity.ID].Active = false
	store.mu.Unlock()

	if _, _, err := svc.Resolve(context.Background(), issued.Secret); !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	identity, issued := register(t, svc, "rev@example.com", "hunter2-hunter2", "")
	ctx := context.Background()

	if err := svc.Revoke(ctx, identity.ID, issued.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, _, err := svc.Resolve(ctx, issued.Secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked token still resolves: %v", err)
	}
	// second revocation of the same identifier is a no-op
	if err := svc.Revoke(ctx, identity.ID, issued.ID); err != nil {
		t.Fatalf("repeat Revoke: %v", err)
	}
	if err := svc.Revoke(ctx, identity.ID, "never-issued"); err != nil {
		t.Fatalf("Revoke of absent identifier: %v", err)
	}
}

func TestTokensAreIndependent(t *testing.T) {
	svc, _ := newTestService(t)
	identity, first := register(t, svc, "multi@example.com", "hunter2-hunter2", "")
	ctx := context.Background()

	second, err := svc.Issue(ctx, identity)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first.Secret == second.Secret || first.ID == second.ID {
		t.Fatal("token issuance reused a secret or identifier")
	}

	if err := svc.Revoke(ctx, identity.ID, first.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, _, err := svc.Resolve(ctx, second.Secret); err != nil {
		t.Fatalf("revoking one token broke the other: %v", err)
	}
}

func TestRevokeAll(t *testing.T) {
	svc, store := newTestService(t)
	identity, _ := register(t, svc, "all@example.com", "hunter2-hunter2", "")
	ctx := context.Background()

	if _, err := svc.Issue(ctx, identity); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := svc.RevokeAll(ctx, identity.ID); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	if store.tokenCount() != 0 {
		t.Fatalf("expected no tokens left, got %d", store.tokenCount())
	}
}

func TestRefreshReplacesToken(t *testing.T) {
	svc, store := newTestService(t)
	identity, old := register(t, svc, "fresh@example.com", "hunter2-hunter2", "")
	ctx := context.Background()

	fresh, err := svc.Refresh(ctx, identity, old.ID)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if fresh.Secret == old.Secret {
		t.Fatal("refresh returned the old secret")
	}
	if _, _, err := svc.Resolve(ctx, old.Secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("old token survived refresh: %v", err)
	}
	if _, _, err := svc.Resolve(ctx, fresh.Secret); err != nil {
		t.Fatalf("fresh token does not resolve: %v", err)
	}
	if store.tokenCount() != 1 {
		t.Fatalf("expected exactly one live token, got %d", store.tokenCount())
	}
}

func TestRefreshRollsBackWhenRevokeFails(t *testing.T) {
	svc, store := newTestService(t)
	identity, old := register(t, svc, "rollback@example.com", "hunter2-hunter2", "")
	ctx := context.Background()

	boom := errors.New("storage down")
	store.mu.Lock()
	store.tokenDeleteErr = func(_, tokenID string) error {
		if tokenID == old.ID {
			return boom
		}
		return nil
	}
	store.mu.Unlock()

	if _, err := svc.Refresh(ctx, identity, old.ID); !errors.Is(err, boom) {
		t.Fatalf("expected revoke failure to surface, got %v", err)
	}

	store.mu.Lock()
	store.tokenDeleteErr = nil
	store.mu.Unlock()

	// the old token is still the only live credential
	if _, _, err := svc.Resolve(ctx, old.Secret); err != nil {
		t.Fatalf("old token must survive a failed refresh: %v", err)
	}
	if store.tokenCount() != 1 {
		t.Fatalf("rolled-back refresh left %d tokens", store.tokenCount())
	}
}

func TestRefreshFailsWhenIssueFails(t *testing.T) {
	svc, store := newTestService(t)
	identity, old := register(t, svc, "noissue@example.com", "hunter2-hunter2", "")
	ctx := context.Background()

	boom := errors.New("insert failed")
	store.mu.Lock()
	store.tokenCreateErr = boom
	store.mu.Unlock()

	if _, err := svc.Refresh(ctx, identity, old.ID); !errors.Is(err, boom) {
		t.Fatalf("expected issue failure to surface, got %v", err)
	}

	store.mu.Lock()
	store.tokenCreateErr = nil
	store.mu.Unlock()

	if _, _, err := svc.Resolve(ctx, old.Secret); err != nil {
		t.Fatalf("old token must remain valid when issue fails: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, store := newTestService(t)
	identity, _ := register(t, svc, "pw@example.com", "original-password", "")
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, identity, "wrong-current", "replacement-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, identity, "original-password", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, identity, "original-password", "replacement-pw"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	store.mu.Lock()
	hash := store.identities[identity.ID].PasswordHash
	store.mu.Unlock()
	if err := VerifyPassword(hash, "replacement-pw"); err != nil {
		t.Fatalf("stored hash does not match the new password: %v", err)
	}
	if err := VerifyPassword(hash, "original-password"); err == nil {
		t.Fatal("old password still matches after the change")
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	identity, _ := register(t, svc, "profile@example.com", "hunter2-hunter2", "")
	register(t, svc, "taken@example.com", "hunter2-hunter2", "")
	ctx := context.Background()

	name := "  New Name  "
	email := "Profile2@Example.com"
	role := "moderator"
	updated, err := svc.UpdateProfile(ctx, identity, ProfileUpdate{
		FullName: &name,
		Email:    &email,
		Role:     &role,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FullName != "New Name" {
		t.Fatalf("name not trimmed: %q", updated.FullName)
	}
	if updated.Email != "profile2@example.com" {
		t.Fatalf("email not normalized: %q", updated.Email)
	}
	if updated.Role != RoleModerator {
		t.Fatalf("role not updated: %v", updated.Role)
	}

	taken := "taken@example.com"
	if _, err := svc.UpdateProfile(ctx, updated, ProfileUpdate{Email: &taken}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	bad := "nobody-home"
	if _, err := svc.UpdateProfile(ctx, updated, ProfileUpdate{Email: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
