// Package renewal implements the bulk renewal review: per-row tri-state
// decisions over a page of membership rows, partitioning of the selections
// into per-target update batches, and parallel submission of those batches to
// the governance backend.
package renewal

import (
	"fmt"

	"github.com/accessops/access-console/internal/domain"
)

// DecisionSet tracks the per-row decisions for one review session. State is
// confined to the session and discarded when it closes or submits.
type DecisionSet struct {
	rows      map[int64]*domain.MembershipRow
	order     []int64
	decisions map[int64]domain.Decision
}

// NewDecisionSet seeds a decision set from a page of rows. Rows already
// flagged should_expire start as let-expire; everything else starts
// undecided.
func NewDecisionSet(rows []*domain.MembershipRow) *DecisionSet {
	s := &DecisionSet{
		rows:      make(map[int64]*domain.MembershipRow, len(rows)),
		order:     make([]int64, 0, len(rows)),
		decisions: make(map[int64]domain.Decision, len(rows)),
	}
	for _, row := range rows {
		if _, ok := s.rows[row.ID]; ok {
			continue
		}
		s.rows[row.ID] = row
		s.order = append(s.order, row.ID)
		if row.ShouldExpire {
			s.decisions[row.ID] = domain.DecisionExpire
		} else {
			s.decisions[row.ID] = domain.DecisionUndecided
		}
	}
	return s
}

// Rows returns the rows of the session in page order.
func (s *DecisionSet) Rows() []*domain.MembershipRow {
	out := make([]*domain.MembershipRow, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out
}

// Decision returns the current decision for a row.
func (s *DecisionSet) Decision(rowID int64) domain.Decision {
	d, ok := s.decisions[rowID]
	if !ok {
		return domain.DecisionUndecided
	}
	return d
}

// SetDecision records a decision for a row. Setting the currently-active
// decision again clears it back to undecided (toggle semantics, not a strict
// radio); a row can never be in both the renew and let-expire sets.
func (s *DecisionSet) SetDecision(rowID int64, d domain.Decision) error {
	if !d.Valid() {
		return fmt.Errorf("%w: unknown decision %q", domain.ErrInvalidInput, d)
	}
	if _, ok := s.rows[rowID]; !ok {
		return fmt.Errorf("%w: row %d", domain.ErrNotFound, rowID)
	}
	if s.decisions[rowID] == d {
		s.decisions[rowID] = domain.DecisionUndecided
		return nil
	}
	s.decisions[rowID] = d
	return nil
}

// SelectedForRenewal returns the rows currently marked renew, in page order.
func (s *DecisionSet) SelectedForRenewal() []*domain.MembershipRow {
	return s.selected(domain.DecisionRenew)
}

// SelectedForExpiry returns the rows currently marked let-expire, in page
// order.
func (s *DecisionSet) SelectedForExpiry() []*domain.MembershipRow {
	return s.selected(domain.DecisionExpire)
}

func (s *DecisionSet) selected(d domain.Decision) []*domain.MembershipRow {
	var out []*domain.MembershipRow
	for _, id := range s.order {
		if s.decisions[id] == d {
			out = append(out, s.rows[id])
		}
	}
	return out
}
