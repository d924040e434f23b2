package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/estuda/plannerd/internal/auth"
	httperr "github.com/estuda/plannerd/internal/http/errors"
	"github.com/estuda/plannerd/internal/store"
)

type userView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func viewUser(u *store.User) userView {
	return userView{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt, LastLoginAt: u.LastLoginAt}
}

// Register creates an email/password account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := h.decode(w, r, &in); err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Register(r.Context(), in.Email, in.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		httperr.Client(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrEmailTaken):
		httperr.Client(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		httperr.Internal(w, r, err, "register failed")
		return
	}

	httperr.JSON(w, http.StatusCreated, viewUser(user))
}

// Login checks credentials and returns a bearer token. A session cookie is
// set as well so browser clients can use the same endpoint.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := h.decode(w, r, &in); err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auth.SignIn(r.Context(), in.Email, in.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		httperr.Client(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		httperr.Internal(w, r, err, "login failed")
		return
	}

	if err := h.auth.IssueSession(w, user.ID); err != nil {
		httperr.Internal(w, r, err, "failed to start session")
		return
	}

	httperr.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  viewUser(user),
	})
}

// Logout clears the browser session and tears down the identity's mirrors.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	h.auth.ClearSession(w)
	// Signed-in -> signed-out transition: stop the mirror set immediately.
	h.hub.SignOut(owner)
	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset issues a reset token. The response never reveals
// whether the email exists; the token is logged for operator delivery
// until a mail sender is wired up.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := h.decode(w, r, &in); err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.RequestPasswordReset(r.Context(), in.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		httperr.Internal(w, r, err, "password reset failed")
		return
	}
	if err == nil {
		httperr.LogInfo(r, "password reset token issued: "+token)
	}

	w.WriteHeader(http.StatusAccepted)
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := h.decode(w, r, &in); err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.auth.ResetPassword(r.Context(), in.Token, in.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		httperr.Client(w, http.StatusUnauthorized, "invalid or expired reset token")
		return
	case errors.Is(err, auth.ErrWeakPassword):
		httperr.Client(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		httperr.Internal(w, r, err, "password reset failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Account returns the authenticated user's profile.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	httperr.JSON(w, http.StatusOK, viewUser(user))
}
