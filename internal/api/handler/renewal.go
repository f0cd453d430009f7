package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/accessops/access-console/internal/catalog"
	"github.com/accessops/access-console/internal/domain"
	"github.com/accessops/access-console/internal/renewal"
	"github.com/accessops/access-console/internal/storage"
	"github.com/accessops/access-console/internal/validation"
)

// RenewalHandler handles bulk renewal submissions and the renewal audit log.
type RenewalHandler struct {
	store       storage.Storage
	catalog     *catalog.Service
	submitter   *renewal.Submitter
	adminEmails map[string]bool
}

// NewRenewalHandler creates a new RenewalHandler.
func NewRenewalHandler(store storage.Storage, svc *catalog.Service, submitter *renewal.Submitter, adminEmails map[string]bool) *RenewalHandler {
	return &RenewalHandler{
		store:       store,
		catalog:     svc,
		submitter:   submitter,
		adminEmails: adminEmails,
	}
}

// SubmitRenewalsRequest carries one completed renewal review: the reviewed
// rows, the per-row decisions, and the shared submission inputs.
type SubmitRenewalsRequest struct {
	Kind            domain.RowKind            `json:"kind"`
	Rows            []*domain.MembershipRow   `json:"rows"`
	Decisions       map[int64]domain.Decision `json:"decisions"`
	ActorEmail      string                    `json:"actor_email"`
	Reason          string                    `json:"reason"`
	DurationID      string                    `json:"duration_id"`
	CustomEndingAt  *time.Time                `json:"custom_ending_at,omitempty"`
	ConfirmOverride bool                      `json:"confirm_override"`
}

// Submit processes a renewal review submission.
func (h *RenewalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		handleError(w, domain.ErrCatalogNotReady)
		return
	}

	var req SubmitRenewalsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var errs validation.ValidationErrors
	if req.ActorEmail == "" {
		errs.Add("actor_email", "", "actor email is required")
	}
	if req.Kind != domain.RowUserGroup && req.Kind != domain.RowRoleGroup {
		errs.Add("kind", string(req.Kind), "kind must be user_group or role_group")
	}
	if len(req.Rows) == 0 {
		errs.Add("rows", "", "at least one row is required")
	}
	for id, d := range req.Decisions {
		if err := validation.ValidateDecision(string(d)); err != nil {
			errs.Add("decisions", strconv.FormatInt(id, 10), err.Error())
		}
	}
	if errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	set := renewal.NewDecisionSet(req.Rows)
	for id, d := range req.Decisions {
		// Decisions posted over the API are absolute, so only touch rows
		// whose seeded state differs.
		if set.Decision(id) == d {
			continue
		}
		if err := set.SetDecision(id, d); err != nil {
			handleError(w, err)
			return
		}
	}

	email := strings.ToLower(req.ActorEmail)
	actor := renewal.Actor{
		Email: email,
		Admin: h.adminEmails[email],
		Roles: h.catalog.MemberRoles(req.ActorEmail),
	}

	result, err := h.submitter.Submit(r.Context(), set, &renewal.SubmitRequest{
		Actor:           actor,
		Reason:          req.Reason,
		DurationID:      req.DurationID,
		CustomEndingAt:  req.CustomEndingAt,
		ConfirmOverride: req.ConfirmOverride,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	if result.OverrideRequired {
		respondJSON(w, http.StatusConflict, &domain.StandardErrorResponse{
			Error: domain.StandardError{
				Code:    domain.ErrCodeOverrideRequired,
				Message: result.Message,
				Details: map[string]any{"blocked_row_ids": result.BlockedRowIDs},
			},
		})
		return
	}

	record := &domain.RenewalRecord{
		ID:           generateID(),
		ActorEmail:   email,
		Kind:         req.Kind,
		Reason:       strings.TrimSpace(req.Reason),
		BatchCount:   len(result.Results),
		FailedCount:  result.FailedCount,
		RenewedRows:  len(set.SelectedForRenewal()),
		ExpiredRows:  len(set.SelectedForExpiry()),
		OverrideUsed: req.ConfirmOverride,
		CreatedAt:    time.Now(),
	}
	if err := h.store.CreateRenewalRecord(r.Context(), record); err != nil {
		// The backend updates already landed; losing the audit row is not
		// worth failing the submission over.
		log.Printf("Failed to write renewal audit record: %v", err)
	}

	respondJSON(w, http.StatusOK, result)
}

// List returns the renewal audit log, newest first.
func (h *RenewalHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	records, err := h.store.ListRenewalRecords(r.Context(), limit, offset)
	if err != nil {
		handleError(w, err)
		return
	}
	total, err := h.store.CountRenewalRecords(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"total": total,
	})
}
