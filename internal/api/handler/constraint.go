package handler

import (
	"net/http"

	"github.com/accessops/access-console/internal/catalog"
	"github.com/accessops/access-console/internal/constraint"
	"github.com/accessops/access-console/internal/domain"
)

// ConstraintHandler resolves the constraint surface for a pending access
// change: the effective time limit, whether a reason is required, and the
// duration menu the client should offer.
type ConstraintHandler struct {
	catalog *catalog.Service
}

// NewConstraintHandler creates a new ConstraintHandler.
func NewConstraintHandler(svc *catalog.Service) *ConstraintHandler {
	return &ConstraintHandler{catalog: svc}
}

// ResolveConstraintsRequest names the groups an access change touches, split
// by which axis is being granted.
type ResolveConstraintsRequest struct {
	MemberGroupIDs []string `json:"member_group_ids"`
	OwnerGroupIDs  []string `json:"owner_group_ids"`
}

// ResolveConstraintsResponse is the resolved constraint surface.
type ResolveConstraintsResponse struct {
	Limit             *int64                      `json:"limit"`
	LimitMessage      string                      `json:"limit_message,omitempty"`
	ReasonRequired    bool                        `json:"reason_required"`
	DefaultDurationID string                      `json:"default_duration_id"`
	Durations         []constraint.DurationOption `json:"durations"`
}

// Resolve resolves constraints for the named groups.
func (h *ConstraintHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		handleError(w, domain.ErrCatalogNotReady)
		return
	}

	var req ResolveConstraintsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.MemberGroupIDs) == 0 && len(req.OwnerGroupIDs) == 0 {
		respondValidationError(w, "member_group_ids", "", "at least one group id is required")
		return
	}

	memberGroups, err := h.lookup(req.MemberGroupIDs)
	if err != nil {
		handleError(w, err)
		return
	}
	ownerGroups, err := h.lookup(req.OwnerGroupIDs)
	if err != nil {
		handleError(w, err)
		return
	}

	limit := constraint.ResolveLimitMixed(memberGroups, ownerGroups)
	defaultID, options := constraint.FilterDurations(limit, constraint.DefaultDurations())

	resp := &ResolveConstraintsResponse{
		Limit:             limit,
		ReasonRequired:    constraint.ResolveReasonRequiredMixed(memberGroups, ownerGroups),
		DefaultDurationID: defaultID,
		Durations:         options,
	}
	if limit != nil {
		resp.LimitMessage = constraint.LimitMessage(limit)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ConstraintHandler) lookup(ids []string) ([]*domain.Group, error) {
	var groups []*domain.Group
	for _, id := range ids {
		group, ok := h.catalog.Group(id)
		if !ok {
			return nil, domain.ErrNotFound
		}
		groups = append(groups, group)
	}
	return groups, nil
}
