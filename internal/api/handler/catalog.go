package handler

import (
	"net/http"
	"time"

	"github.com/accessops/access-console/internal/catalog"
	"github.com/accessops/access-console/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CatalogHandler serves group, role, and tag listings from the catalog
// snapshot.
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

// ListGroups lists non-role groups matching the q parameter.
func (h *CatalogHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		handleError(w, domain.ErrCatalogNotReady)
		return
	}
	q, page, perPage := pageParams(r)
	groups, total := h.catalog.Groups(q, page, perPage)
	respondJSON(w, http.StatusOK, &pagedResponse{Items: groups, Total: total, Page: page, PerPage: perPage})
}

// GetGroup returns a single group or role by id.
func (h *CatalogHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		handleError(w, domain.ErrCatalogNotReady)
		return
	}
	group, ok := h.catalog.Group(chi.URLParam(r, "id"))
	if !ok {
		handleError(w, domain.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// ListRoles lists role groups matching the q parameter.
func (h *CatalogHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		handleError(w, domain.ErrCatalogNotReady)
		return
	}
	q, page, perPage := pageParams(r)
	roles, total := h.catalog.Roles(q, page, perPage)
	respondJSON(w, http.StatusOK, &pagedResponse{Items: roles, Total: total, Page: page, PerPage: perPage})
}

// ListTags lists tags matching the q parameter.
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		handleError(w, domain.ErrCatalogNotReady)
		return
	}
	q, page, perPage := pageParams(r)
	tags, total := h.catalog.Tags(q, page, perPage)
	respondJSON(w, http.StatusOK, &pagedResponse{Items: tags, Total: total, Page: page, PerPage: perPage})
}

// Refresh forces a catalog refresh from the backend.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, "catalog refresh failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"last_refresh": h.catalog.LastRefresh().Format(time.RFC3339),
	})
}
