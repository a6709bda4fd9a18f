package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskhive.org/internal/audit"
	"taskhive.org/internal/auth"
	"taskhive.org/internal/obs"
)

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	Password        string `json:"password"`
}

type identityPayload struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      auth.Role `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type tokenPayload struct {
	Type       string `json:"type"`
	Token      string `json:"token"`
	Identifier string `json:"identifier"`
}

func presentIdentity(identity *auth.Identity) identityPayload {
	return identityPayload{
		ID:        identity.ID,
		FullName:  identity.FullName,
		Email:     identity.Email,
		Phone:     identity.Phone,
		Role:      identity.Role,
		Active:    identity.Active,
		CreatedAt: identity.CreatedAt,
		UpdatedAt: identity.UpdatedAt,
	}
}

func presentToken(issued auth.IssuedToken) tokenPayload {
	return tokenPayload{Type: "bearer", Token: issued.Secret, Identifier: issued.ID}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	identity, issued, err := a.auth.Register(r.Context(), auth.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": identity.ID,
		"email":   identity.Email,
		"role":    identity.Role.String(),
	})
	writeSuccess(w, http.StatusCreated, "User registered successfully", map[string]any{
		"user":  presentIdentity(identity),
		"token": presentToken(issued),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	identity, issued, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Wrong password and deactivated account answer identically so a
		// probing client cannot tell which credential part was valid.
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAccountDeactivated) {
			obs.AuthFailure("invalid_credentials")
			writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Login failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":  identity.ID,
		"token_id": issued.ID,
	})
	writeSuccess(w, http.StatusOK, "Login successful", map[string]any{
		"user":  presentIdentity(identity),
		"token": presentToken(issued),
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"user": presentIdentity(&identity),
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	tokenID, _ := auth.TokenIDFromContext(r.Context())
	issued, err := a.auth.Refresh(r.Context(), &identity, tokenID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to refresh token")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.token.refreshed", map[string]any{
		"old_token_id": tokenID,
		"token_id":     issued.ID,
	})
	writeSuccess(w, http.StatusOK, "Token refreshed successfully", map[string]any{
		"token": presentToken(issued),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	tokenID, _ := auth.TokenIDFromContext(r.Context())
	if err := a.auth.Revoke(r.Context(), identity.ID, tokenID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to logout")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"token_id": tokenID,
	})
	writeSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	updated, err := a.auth.UpdateProfile(r.Context(), &identity, auth.ProfileUpdate{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.profile.updated", nil)
	writeSuccess(w, http.StatusOK, "Profile updated successfully", map[string]any{
		"user": presentIdentity(updated),
	})
}

func (a *API) handlePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := a.auth.ChangePassword(r.Context(), &identity, req.CurrentPassword, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password.changed", nil)
	writeSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	writeSuccess(w, http.StatusOK,
		fmt.Sprintf("Welcome to dashboard, your role is: %s!", identity.Role), nil)
}

func (a *API) handleModeratorArea(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeSuccess(w, http.StatusOK, "Moderator area", nil)
}

func (a *API) handleUserArea(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeSuccess(w, http.StatusOK, "User area", nil)
}

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, r, http.StatusBadRequest, "Email already exists")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "Internal error")
	}
}
