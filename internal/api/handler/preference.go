package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/accessops/access-console/internal/domain"
	"github.com/accessops/access-console/internal/storage"
	"github.com/accessops/access-console/internal/validation"
	"github.com/go-chi/chi/v5"
)

// PreferenceHandler handles per-user console preferences.
type PreferenceHandler struct {
	store storage.Storage
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(store storage.Storage) *PreferenceHandler {
	return &PreferenceHandler{store: store}
}

// Get returns the stored preferences for a user. Users with no stored
// preference get the system default theme.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(chi.URLParam(r, "email"))
	if email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	pref, err := h.store.GetPreference(r.Context(), email)
	if errors.Is(err, domain.ErrNotFound) {
		respondJSON(w, http.StatusOK, &domain.UserPreference{
			UserEmail: email,
			Theme:     domain.ThemeSystem,
		})
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pref)
}

// Update stores a user's preferences.
func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(chi.URLParam(r, "email"))
	if email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	var req domain.UpdatePreferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateTheme(req.Theme); err != nil {
		respondValidationError(w, "theme", req.Theme, err.Error())
		return
	}

	pref := &domain.UserPreference{
		UserEmail: email,
		Theme:     req.Theme,
	}
	if err := h.store.UpsertPreference(r.Context(), pref); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pref)
}
