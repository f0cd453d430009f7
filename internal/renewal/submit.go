package renewal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/accessops/access-console/internal/constraint"
	"github.com/accessops/access-console/internal/domain"
	"github.com/accessops/access-console/internal/governance"
	"github.com/accessops/access-console/internal/validation"
	"golang.org/x/sync/errgroup"
)

// defaultParallelism bounds the number of batch update calls in flight at
// once.
const defaultParallelism = 4

// GroupResolver looks up catalog groups referenced by membership rows.
type GroupResolver interface {
	Group(id string) (*domain.Group, bool)
}

// Actor identifies who is submitting a renewal review.
type Actor struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	// Roles is the set of role group names the actor is a member of.
	Roles map[string]bool `json:"-"`
}

// SubmitRequest carries the shared inputs of one submission: the chosen
// duration for renewed rows, the justification, and whether a previously
// reported self-add block is being overridden.
type SubmitRequest struct {
	Actor           Actor
	Reason          string
	DurationID      string
	CustomEndingAt  *time.Time
	ConfirmOverride bool
}

// SubmitResult reports the outcome of a submission. When OverrideRequired is
// set nothing was submitted: the actor must resubmit once more with the
// override confirmed.
type SubmitResult struct {
	OverrideRequired bool                  `json:"override_required,omitempty"`
	Message          string                `json:"message,omitempty"`
	BlockedRowIDs    []int64               `json:"blocked_row_ids,omitempty"`
	Limit            *int64                `json:"limit,omitempty"`
	Results          []*domain.BatchResult `json:"results,omitempty"`
	FailedCount      int                   `json:"failed_count"`
}

// AllSucceeded reports whether every batch settled without error.
func (r *SubmitResult) AllSucceeded() bool {
	return !r.OverrideRequired && r.FailedCount == 0
}

// Submitter drives bulk renewal submissions against the governance backend.
type Submitter struct {
	client      governance.Client
	groups      GroupResolver
	parallelism int

	// onSuccess runs after a submission where every batch succeeded,
	// typically to refresh the catalog.
	onSuccess func(ctx context.Context)
}

// NewSubmitter creates a new Submitter.
func NewSubmitter(client governance.Client, groups GroupResolver, onSuccess func(ctx context.Context)) *Submitter {
	return &Submitter{
		client:      client,
		groups:      groups,
		parallelism: defaultParallelism,
		onSuccess:   onSuccess,
	}
}

// Submit validates the review, applies the self-add confirmation gate, then
// issues one backend update per batch in parallel. Batches settle
// independently and in no particular order; a submission can partially fail,
// in which case the per-batch errors are reported and the caller re-derives a
// new submission from current decision state rather than replaying batches.
// Failed batches are never retried automatically.
func (s *Submitter) Submit(ctx context.Context, set *DecisionSet, req *SubmitRequest) (*SubmitResult, error) {
	renewRows := set.SelectedForRenewal()

	var memberGroups, ownerGroups []*domain.Group
	for _, row := range renewRows {
		group := s.resolveConstraintGroup(row)
		if group == nil {
			continue
		}
		if row.IsOwner {
			ownerGroups = append(ownerGroups, group)
		} else {
			memberGroups = append(memberGroups, group)
		}
	}

	limit := constraint.ResolveLimitMixed(memberGroups, ownerGroups)
	reasonRequired := constraint.ResolveReasonRequiredMixed(memberGroups, ownerGroups)

	if len(renewRows) > 0 {
		if err := validation.ValidateReason(req.Reason, reasonRequired); err != nil {
			return nil, validation.NewValidationError("reason", req.Reason, err.Error())
		}
	}

	now := time.Now()
	endingAt, err := s.resolveEndingAt(now, limit, req, len(renewRows) > 0)
	if err != nil {
		return nil, err
	}

	if blocked := s.blockedRows(renewRows, req.Actor); len(blocked) > 0 && !req.Actor.Admin && !req.ConfirmOverride {
		return &SubmitResult{
			OverrideRequired: true,
			BlockedRowIDs:    blocked,
			Limit:            limit,
			Message: "renewing this access would let a role grant access to a group " +
				"it is blocked from self-granting; submit again to confirm the override",
		}, nil
	}

	batches := set.PartitionForSubmit()
	result := &SubmitResult{
		Limit:   limit,
		Results: make([]*domain.BatchResult, len(batches)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			br := &domain.BatchResult{Batch: batch}
			if err := s.submitBatch(gctx, batch, req.Reason, endingAt); err != nil {
				// Per-batch failures are reported, not propagated: the
				// remaining batches still settle.
				br.Error = err.Error()
			}
			result.Results[i] = br
			return nil
		})
	}
	_ = g.Wait()

	for _, br := range result.Results {
		if !br.OK() {
			result.FailedCount++
		}
	}

	if result.AllSucceeded() && s.onSuccess != nil {
		s.onSuccess(ctx)
	}
	return result, nil
}

// resolveConstraintGroup returns the group whose constraint surface governs
// the row. For role mapping rows that is the role group (whose expansion
// pulls in the mapped targets); for user rows it is the group itself.
func (s *Submitter) resolveConstraintGroup(row *domain.MembershipRow) *domain.Group {
	if s.groups == nil {
		return nil
	}
	id := row.GroupID
	if row.Kind == domain.RowRoleGroup {
		id = row.RoleID
	}
	group, ok := s.groups.Group(id)
	if !ok {
		return nil
	}
	return group
}

// resolveEndingAt turns the chosen duration option into an absolute ending
// timestamp, enforcing the resolved limit. A nil result means indefinite
// access.
func (s *Submitter) resolveEndingAt(now time.Time, limit *int64, req *SubmitRequest, renewing bool) (*time.Time, error) {
	if !renewing {
		return nil, nil
	}

	defaultID, options := constraint.FilterDurations(limit, constraint.DefaultDurations())
	chosen := req.DurationID
	if chosen == "" {
		chosen = defaultID
	}

	var option *constraint.DurationOption
	for i := range options {
		if options[i].ID == chosen {
			option = &options[i]
			break
		}
	}
	if option == nil {
		return nil, validation.NewValidationError("duration_id", chosen,
			fmt.Sprintf("duration %q is not permitted under the resolved limit", chosen))
	}

	switch option.ID {
	case constraint.IndefiniteOptionID:
		return nil, nil
	case constraint.CustomOptionID:
		if req.CustomEndingAt == nil {
			return nil, validation.NewValidationError("custom_ending_at", "",
				"a custom end date is required for the custom duration")
		}
		if !req.CustomEndingAt.After(now) {
			return nil, validation.NewValidationError("custom_ending_at",
				req.CustomEndingAt.Format(time.RFC3339), "custom end date must be in the future")
		}
		if limit != nil {
			max := now.Add(time.Duration(*limit) * time.Second)
			if req.CustomEndingAt.After(max) {
				return nil, validation.NewValidationError("custom_ending_at",
					req.CustomEndingAt.Format(time.RFC3339),
					fmt.Sprintf("custom end date exceeds the access limit (%s)", constraint.LimitMessage(limit)))
			}
		}
		t := *req.CustomEndingAt
		return &t, nil
	default:
		t := now.Add(time.Duration(option.Seconds) * time.Second)
		return &t, nil
	}
}

// blockedRows returns the renew rows caught by the self-add guard.
func (s *Submitter) blockedRows(renewRows []*domain.MembershipRow, actor Actor) []int64 {
	var blocked []int64
	for _, row := range renewRows {
		if row.Kind != domain.RowRoleGroup || s.groups == nil {
			continue
		}
		group, ok := s.groups.Group(row.GroupID)
		if !ok {
			continue
		}
		if constraint.SelfAddBlocked(group, row.RoleName, actor.Roles, row.IsOwner) {
			blocked = append(blocked, row.ID)
		}
	}
	return blocked
}

// submitBatch issues the backend update call for one batch.
func (s *Submitter) submitBatch(ctx context.Context, batch *domain.Batch, reason string, endingAt *time.Time) error {
	reason = strings.TrimSpace(reason)

	if batch.Kind == domain.RowRoleGroup {
		update := &governance.RoleMemberUpdate{CreatedReason: reason}
		switch {
		case batch.Action == domain.BatchRenew && batch.IsOwner:
			update.OwnerGroupsToAdd = batch.SubjectIDs
		case batch.Action == domain.BatchRenew:
			update.GroupsToAdd = batch.SubjectIDs
		case batch.IsOwner:
			update.OwnerGroupsShouldExpire = batch.SubjectIDs
		default:
			update.GroupsShouldExpire = batch.SubjectIDs
		}
		if batch.Action == domain.BatchRenew && endingAt != nil {
			update.GroupsAddedEndingAt = governance.FormatEndingAt(*endingAt)
		}
		_, err := s.client.UpdateRoleMembers(ctx, batch.TargetID, update)
		return err
	}

	update := &governance.MemberUpdate{CreatedReason: reason}
	switch {
	case batch.Action == domain.BatchRenew && batch.IsOwner:
		update.OwnersToAdd = batch.SubjectIDs
	case batch.Action == domain.BatchRenew:
		update.MembersToAdd = batch.SubjectIDs
	case batch.IsOwner:
		update.OwnersShouldExpire = batch.SubjectIDs
	default:
		update.MembersShouldExpire = batch.SubjectIDs
	}
	if batch.Action == domain.BatchRenew && endingAt != nil {
		update.UsersAddedEndingAt = governance.FormatEndingAt(*endingAt)
	}
	_, err := s.client.UpdateGroupMembers(ctx, batch.TargetID, update)
	return err
}
