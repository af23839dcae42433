// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"listora/internal/entitlement"
	"listora/internal/middleware"
	"listora/internal/models"
	"listora/internal/session"
	"listora/internal/store"
)

// Auth groups the authentication handlers: JSON login/logout plus the
// current-viewer endpoint the frontend bootstraps from.
type Auth struct {
	sessions *session.Store
	users    *store.UserStore
	grants   *store.GrantStore
	unlocks  *entitlement.ValkeyUnlockStore
}

// NewAuth creates the auth handler group. unlocks may be nil when running
// without Valkey-backed unlock tracking.
func NewAuth(sessions *session.Store, users *store.UserStore, grants *store.GrantStore, unlocks *entitlement.ValkeyUnlockStore) *Auth {
	return &Auth{
		sessions: sessions,
		users:    users,
		grants:   grants,
		unlocks:  unlocks,
	}
}

// loginRequest is the POST /api/auth/login payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and starts a session. Unknown emails and
// wrong passwords get the same response.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.users.FindByEmail(req.Email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		ViewerID:    user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	slog.Info("viewer logged in", "viewer", user.ID, "email", user.Email)
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout destroys the session and drops the viewer's unlock markers, so
// the next login starts with a clean slate.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && a.unlocks != nil {
		a.unlocks.Clear(r.Context(), sess.ViewerID)
	}

	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated viewer, their entitlement snapshot, and
// the CSRF token for subsequent mutating requests.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	user, err := a.users.FindByID(sess.ViewerID)
	if err != nil {
		slog.Error("viewer lookup failed", "viewer", sess.ViewerID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load viewer")
		return
	}
	if user == nil {
		// Account deleted while the session was alive.
		a.sessions.Destroy(r.Context(), w, r)
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	perms, err := a.grants.PermissionsFor(user.ID)
	if err != nil {
		slog.Error("load permissions failed", "viewer", user.ID, "error", err)
		perms = &models.Permissions{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user":        user,
		"permissions": perms,
		"csrf_token":  middleware.CSRFTokenFromCtx(r.Context()),
	})
}
