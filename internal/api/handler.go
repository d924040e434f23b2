// Package api serves the JSON interface the mobile client talks to.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/estuda/plannerd/internal/auth"
	"github.com/estuda/plannerd/internal/config"
	httperr "github.com/estuda/plannerd/internal/http/errors"
	"github.com/estuda/plannerd/internal/planner"
	"github.com/estuda/plannerd/internal/store"
)

// Handler carries the dependencies shared by all API endpoints.
type Handler struct {
	cfg  *config.Config
	st   *store.Store
	svc  *planner.Service
	hub  *planner.Hub
	auth *auth.Service
}

func NewHandler(cfg *config.Config, st *store.Store, svc *planner.Service, hub *planner.Hub, authService *auth.Service) *Handler {
	return &Handler{cfg: cfg, st: st, svc: svc, hub: hub, auth: authService}
}

const maxBodyBytes = 1 << 20

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// identity pulls the authenticated user out of the request context. The
// auth middleware guarantees it is present on /api routes.
func identity(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user.ID
	}
	return ""
}

// writeDomainError maps the planner error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, planner.ErrNotAuthenticated):
		httperr.Client(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, planner.ErrNotFound):
		httperr.Client(w, http.StatusNotFound, "not found")
	default:
		if ve, ok := planner.AsValidationError(err); ok {
			httperr.Validation(w, "validation failed", ve.Fields)
			return
		}
		httperr.Internal(w, r, err, message)
	}
}
