package renewal_test

import (
	"testing"
	"time"

	"github.com/accessops/access-console/internal/domain"
	"github.com/accessops/access-console/internal/renewal"
)

func TestPartitionForSubmit_GroupsByTargetAndOwner(t *testing.T) {
	rows := []*domain.MembershipRow{
		userRow(1, "g1", false),
		userRow(2, "g1", false),
		userRow(3, "g1", true),
		userRow(4, "g2", false),
	}
	set := renewal.NewDecisionSet(rows)
	for _, id := range []int64{1, 2, 3, 4} {
		_ = set.SetDecision(id, domain.DecisionRenew)
	}

	batches := set.PartitionForSubmit()
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}

	// Every selected row appears in exactly one batch.
	seen := make(map[int64]int)
	for _, b := range batches {
		for _, row := range b.Rows {
			seen[row.ID]++
		}
	}
	for _, id := range []int64{1, 2, 3, 4} {
		if seen[id] != 1 {
			t.Errorf("Row %d appears in %d batches, expected 1", id, seen[id])
		}
	}

	first := batches[0]
	if first.TargetID != "g1" || first.IsOwner || len(first.SubjectIDs) != 2 {
		t.Errorf("Unexpected first batch: %+v", first)
	}
}

func TestPartitionForSubmit_ExpiryEligibility(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)

	ended := userRow(1, "g1", false)
	ended.EndedAt = &past

	flagged := userRow(2, "g1", false)
	flagged.ShouldExpire = true

	active := userRow(3, "g1", false)

	set := renewal.NewDecisionSet([]*domain.MembershipRow{ended, flagged, active})
	_ = set.SetDecision(1, domain.DecisionExpire)
	_ = set.SetDecision(3, domain.DecisionExpire)
	// Row 2 stays at its seeded let-expire decision.

	batches := set.PartitionForSubmit()
	if len(batches) != 1 {
		t.Fatalf("Expected a single expiry batch, got %d", len(batches))
	}
	b := batches[0]
	if b.Action != domain.BatchExpire {
		t.Fatalf("Expected expiry batch, got %s", b.Action)
	}

	// The already-ended row was reviewed, not renewed: it is included. The
	// row already flagged should_expire is not resubmitted.
	ids := make(map[int64]bool)
	for _, row := range b.Rows {
		ids[row.ID] = true
	}
	if !ids[1] {
		t.Error("Ended row marked let-expire must be included")
	}
	if ids[2] {
		t.Error("Row already flagged should_expire must not be resubmitted")
	}
	if !ids[3] {
		t.Error("Active row marked let-expire must be included")
	}
}

func TestPartitionForSubmit_RoleRowsKeyedByRole(t *testing.T) {
	rows := []*domain.MembershipRow{
		{ID: 1, Kind: domain.RowRoleGroup, RoleID: "r1", RoleName: "oncall", GroupID: "g1"},
		{ID: 2, Kind: domain.RowRoleGroup, RoleID: "r1", RoleName: "oncall", GroupID: "g2"},
		{ID: 3, Kind: domain.RowRoleGroup, RoleID: "r2", RoleName: "support", GroupID: "g1"},
	}
	set := renewal.NewDecisionSet(rows)
	for _, id := range []int64{1, 2, 3} {
		_ = set.SetDecision(id, domain.DecisionRenew)
	}

	batches := set.PartitionForSubmit()
	if len(batches) != 2 {
		t.Fatalf("Expected one batch per role, got %d", len(batches))
	}
	if batches[0].TargetID != "r1" || len(batches[0].SubjectIDs) != 2 {
		t.Errorf("Unexpected role batch: %+v", batches[0])
	}
	if batches[0].SubjectIDs[0] != "g1" || batches[0].SubjectIDs[1] != "g2" {
		t.Errorf("Expected mapped group ids as subjects, got %v", batches[0].SubjectIDs)
	}
	if batches[1].TargetID != "r2" {
		t.Errorf("Expected second batch for r2, got %s", batches[1].TargetID)
	}
}

func TestPartitionForSubmit_MixedActions(t *testing.T) {
	rows := []*domain.MembershipRow{
		userRow(1, "g1", false),
		userRow(2, "g1", false),
	}
	set := renewal.NewDecisionSet(rows)
	_ = set.SetDecision(1, domain.DecisionRenew)
	_ = set.SetDecision(2, domain.DecisionExpire)

	batches := set.PartitionForSubmit()
	if len(batches) != 2 {
		t.Fatalf("Expected separate renew and expiry batches, got %d", len(batches))
	}
	if batches[0].Action != domain.BatchRenew || batches[1].Action != domain.BatchExpire {
		t.Errorf("Unexpected batch actions: %s, %s", batches[0].Action, batches[1].Action)
	}
}
