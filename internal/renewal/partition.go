package renewal

import (
	"github.com/accessops/access-console/internal/domain"
)

type batchKey struct {
	targetID string
	isOwner  bool
	action   domain.BatchAction
}

// PartitionForSubmit splits the current selections into per-target update
// batches: rows marked renew grouped by (target id, owner flag), and rows
// marked let-expire under the same grouping but filtered to rows that are
// still active and not already flagged should_expire — already-decided rows
// are not resubmitted. Every selected (and, for expiry, eligible) row lands
// in exactly one batch. Batch order follows first appearance in the page.
func (s *DecisionSet) PartitionForSubmit() []*domain.Batch {
	byKey := make(map[batchKey]*domain.Batch)
	var out []*domain.Batch

	add := func(row *domain.MembershipRow, action domain.BatchAction) {
		key := batchKey{targetID: row.TargetID(), isOwner: row.IsOwner, action: action}
		b, ok := byKey[key]
		if !ok {
			name := row.GroupName
			if row.Kind == domain.RowRoleGroup {
				name = row.RoleName
			}
			b = &domain.Batch{
				TargetID:   row.TargetID(),
				TargetName: name,
				Kind:       row.Kind,
				IsOwner:    row.IsOwner,
				Action:     action,
			}
			byKey[key] = b
			out = append(out, b)
		}
		b.SubjectIDs = append(b.SubjectIDs, row.SubjectID())
		b.Rows = append(b.Rows, row)
	}

	for _, row := range s.SelectedForRenewal() {
		add(row, domain.BatchRenew)
	}
	for _, row := range s.SelectedForExpiry() {
		if row.ShouldExpire {
			// Already reviewed and flagged; nothing to resubmit.
			continue
		}
		// A row that already ended can still be marked let-expire: that
		// records the review decision rather than renewing the access.
		add(row, domain.BatchExpire)
	}

	return out
}
