package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/estuda/plannerd/internal/config"
	"github.com/estuda/plannerd/internal/store"
)

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike,
	// so responses don't reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// Service owns sign-up, sign-in, password reset, and the optional OIDC
// flow. It is the identity collaborator everything else observes: the HTTP
// layer notifies the session hub on the transitions it reports.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	sessions *SessionManager
	tokens   *TokenIssuer

	oidcProvider *oidc.Provider
	oidcVerifier *oidc.IDTokenVerifier
	oauthConfig  *oauth2.Config
}

func NewService(ctx context.Context, cfg *config.Config, st *store.Store, sessions *SessionManager) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		tokens:   NewTokenIssuer(cfg.Token.Secret, time.Duration(cfg.Token.TTLHours)*time.Hour),
	}

	if cfg.OIDC.IssuerURL != "" {
		provider, err := oidc.NewProvider(ctx, cfg.OIDC.IssuerURL)
		if err != nil {
			return nil, err
		}
		s.oidcProvider = provider
		s.oidcVerifier = provider.Verifier(&oidc.Config{ClientID: cfg.OIDC.ClientID})
		s.oauthConfig = &oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + cfg.OIDC.RedirectPath,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		}
	}

	return s, nil
}

// OIDCEnabled reports whether an OIDC provider was configured.
func (s *Service) OIDCEnabled() bool { return s.oauthConfig != nil }

// Tokens exposes the issuer, mainly for tests and the HTTP layer.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// Register creates an email/password account.
func (s *Service) Register(ctx context.Context, email, password string) (*store.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users.Create(ctx, email, hash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// SignIn checks credentials and returns the user with a fresh bearer token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*store.User, string, error) {
	user, err := s.store.Users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if user.PasswordHash == nil {
		return nil, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := s.store.Users.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// RequestPasswordReset issues a reset token for the account. Unknown emails
// yield store.ErrNotFound; the HTTP layer masks that from clients.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.store.Users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", err
	}
	return s.tokens.IssueReset(user.ID)
}

// ResetPassword consumes a reset token and installs the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.VerifyReset(token)
	if err != nil {
		return ErrInvalidCredentials
	}
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.Users.UpdatePassword(ctx, userID, hash)
}

// IssueSession sets a browser session cookie for the user.
func (s *Service) IssueSession(w http.ResponseWriter, userID string) error {
	return s.sessions.Issue(w, userID)
}

// ClearSession removes the browser session cookie.
func (s *Service) ClearSession(w http.ResponseWriter) {
	s.sessions.Clear(w)
}

// RequireAuth authenticates a request via bearer token or session cookie
// and loads the user into the context. Unauthenticated requests get 401.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := ""

		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			claims, err := s.tokens.Verify(strings.TrimPrefix(h, "Bearer "))
			if err == nil && claims.Purpose == "" {
				userID = claims.Subject
			}
		}
		if userID == "" {
			if uid, ok := s.sessions.CurrentUserID(r); ok {
				userID = uid
			}
		}
		if userID == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		user, err := s.store.Users.GetByID(r.Context(), userID)
		if err != nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

const oidcStateCookie = "plannerd_oidc_state"

// BeginOIDC starts the OIDC authorization flow.
func (s *Service) BeginOIDC(w http.ResponseWriter, r *http.Request) {
	if s.oauthConfig == nil {
		http.Error(w, "oidc not configured", http.StatusNotFound)
		return
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		http.Error(w, "failed to create state", http.StatusInternalServerError)
		return
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	secure := true
	if base, err := url.Parse(s.cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oidcStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, s.oauthConfig.AuthCodeURL(state), http.StatusFound)
}

// HandleOIDCCallback completes the OIDC flow, upserts the user, and starts
// a browser session.
func (s *Service) HandleOIDCCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthConfig == nil {
		http.Error(w, "oidc not configured", http.StatusNotFound)
		return
	}

	stateCookie, err := r.Cookie(oidcStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	token, err := s.oauthConfig.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Error(w, "code exchange failed", http.StatusBadGateway)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "missing id_token", http.StatusBadGateway)
		return
	}
	idToken, err := s.oidcVerifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		http.Error(w, "invalid id_token", http.StatusUnauthorized)
		return
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		http.Error(w, "email claim required", http.StatusUnauthorized)
		return
	}

	user, err := s.store.Users.UpsertOIDCUser(r.Context(), idToken.Subject, claims.Email)
	if err != nil {
		http.Error(w, "failed to create account", http.StatusInternalServerError)
		return
	}

	if err := s.sessions.Issue(w, user.ID); err != nil {
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
