package constraint_test

import (
	"testing"

	"github.com/accessops/access-console/internal/constraint"
	"github.com/accessops/access-console/internal/domain"
)

func limitTag(id string, member, owner *int64) *domain.Tag {
	return &domain.Tag{
		ID:      id,
		Name:    id,
		Enabled: true,
		Constraints: &domain.TagConstraints{
			MemberTimeLimit: member,
			OwnerTimeLimit:  owner,
		},
	}
}

func seconds(v int64) *int64 { return &v }

func TestResolveLimit_NoEnabledTags(t *testing.T) {
	groups := []*domain.Group{
		{ID: "g1", Kind: domain.KindGroup, Name: "payments"},
		{ID: "g2", Kind: domain.KindGroup, Name: "billing", Tags: []*domain.Tag{
			{ID: "t1", Name: "restricted", Enabled: false, Constraints: &domain.TagConstraints{MemberTimeLimit: seconds(60)}},
		}},
	}

	if got := constraint.ResolveLimit(groups, false); got != nil {
		t.Errorf("Expected nil limit, got %d", *got)
	}
	if got := constraint.ResolveLimit(groups, true); got != nil {
		t.Errorf("Expected nil owner limit, got %d", *got)
	}
	if constraint.ResolveReasonRequired(groups, false) {
		t.Error("Expected no reason required")
	}
}

func TestResolveLimit_MinimumAcrossTags(t *testing.T) {
	groups := []*domain.Group{
		{ID: "g1", Kind: domain.KindGroup, Tags: []*domain.Tag{
			limitTag("t1", seconds(432000), nil),
			limitTag("t2", seconds(86400), nil),
		}},
		{ID: "g2", Kind: domain.KindGroup, Tags: []*domain.Tag{
			limitTag("t3", seconds(1209600), nil),
		}},
	}

	got := constraint.ResolveLimit(groups, false)
	if got == nil || *got != 86400 {
		t.Fatalf("Expected limit 86400, got %v", got)
	}
}

func TestResolveLimit_DisabledTagExcluded(t *testing.T) {
	disabled := limitTag("t2", seconds(60), nil)
	disabled.Enabled = false

	groups := []*domain.Group{
		{ID: "g1", Kind: domain.KindGroup, Tags: []*domain.Tag{
			limitTag("t1", seconds(432000), nil),
			disabled,
		}},
	}

	got := constraint.ResolveLimit(groups, false)
	if got == nil || *got != 432000 {
		t.Fatalf("Expected disabled tag to be ignored, got %v", got)
	}
}

func TestResolveLimit_ZeroIsBinding(t *testing.T) {
	groups := []*domain.Group{
		{ID: "g1", Kind: domain.KindGroup, Tags: []*domain.Tag{
			limitTag("t1", seconds(0), nil),
		}},
	}

	got := constraint.ResolveLimit(groups, false)
	if got == nil {
		t.Fatal("Expected a zero limit, got nil")
	}
	if *got != 0 {
		t.Errorf("Expected limit 0, got %d", *got)
	}
}

func TestResolveLimit_TaggedAndUntaggedMix(t *testing.T) {
	// A tagged group selected together with an untagged one still resolves
	// to the tagged group's limit, not to "no limit".
	groups := []*domain.Group{
		{ID: "g1", Kind: domain.KindGroup, Tags: []*domain.Tag{
			limitTag("t1", seconds(432000), nil),
		}},
		{ID: "g2", Kind: domain.KindGroup},
	}

	got := constraint.ResolveLimit(groups, false)
	if got == nil || *got != 432000 {
		t.Fatalf("Expected limit 432000, got %v", got)
	}
}

func TestResolveLimit_AppGroupInheritsAppTags(t *testing.T) {
	groups := []*domain.Group{
		{
			ID:   "g1",
			Kind: domain.KindAppGroup,
			App: &domain.App{ID: "a1", Name: "vault", Tags: []*domain.Tag{
				limitTag("t1", seconds(3600), nil),
			}},
		},
	}

	got := constraint.ResolveLimit(groups, false)
	if got == nil || *got != 3600 {
		t.Fatalf("Expected inherited app limit 3600, got %v", got)
	}
}

func TestResolveLimit_RoleExpandsMappedGroups(t *testing.T) {
	mapped := &domain.Group{ID: "g2", Kind: domain.KindGroup, Tags: []*domain.Tag{
		limitTag("t1", seconds(7200), nil),
	}}
	role := &domain.Group{
		ID:             "r1",
		Kind:           domain.KindRoleGroup,
		MemberMappings: []*domain.Group{mapped},
	}

	got := constraint.ResolveLimit([]*domain.Group{role}, false)
	if got == nil || *got != 7200 {
		t.Fatalf("Expected limit from mapped group, got %v", got)
	}

	// Ownership of the role itself does not flow through its mappings.
	if got := constraint.ResolveLimit([]*domain.Group{role}, true); got != nil {
		t.Errorf("Expected nil owner limit for role, got %d", *got)
	}
}

func TestResolveLimitMixed(t *testing.T) {
	memberGroups := []*domain.Group{
		{ID: "g1", Kind: domain.KindGroup, Tags: []*domain.Tag{
			limitTag("t1", seconds(432000), nil),
		}},
	}
	ownerGroups := []*domain.Group{
		{ID: "g2", Kind: domain.KindGroup, Tags: []*domain.Tag{
			limitTag("t2", nil, seconds(86400)),
		}},
	}

	tests := []struct {
		name    string
		members []*domain.Group
		owners  []*domain.Group
		want    *int64
	}{
		{"both axes", memberGroups, ownerGroups, seconds(86400)},
		{"member axis only", memberGroups, nil, seconds(432000)},
		{"owner axis only", nil, ownerGroups, seconds(86400)},
		{"neither axis", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := constraint.ResolveLimitMixed(tt.members, tt.owners)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Expected nil, got %d", *got)
			case tt.want != nil && got == nil:
				t.Errorf("Expected %d, got nil", *tt.want)
			case tt.want != nil && got != nil && *tt.want != *got:
				t.Errorf("Expected %d, got %d", *tt.want, *got)
			}
		})
	}
}

func TestResolveReasonRequired(t *testing.T) {
	groups := []*domain.Group{
		{ID: "g1", Kind: domain.KindGroup, Tags: []*domain.Tag{
			{ID: "t1", Enabled: true, Constraints: &domain.TagConstraints{RequireMemberReason: true}},
		}},
		{ID: "g2", Kind: domain.KindGroup},
	}

	if !constraint.ResolveReasonRequired(groups, false) {
		t.Error("Expected member reason to be required")
	}
	if constraint.ResolveReasonRequired(groups, true) {
		t.Error("Expected no owner reason requirement")
	}

	// Disabled tags must not require a reason.
	groups[0].Tags[0].Enabled = false
	if constraint.ResolveReasonRequired(groups, false) {
		t.Error("Expected disabled tag to be inert")
	}
}

func TestApplicableTags_Dedup(t *testing.T) {
	shared := limitTag("t1", seconds(60), nil)
	groups := []*domain.Group{
		{ID: "g1", Kind: domain.KindGroup, Tags: []*domain.Tag{shared}},
		{ID: "g2", Kind: domain.KindGroup, Tags: []*domain.Tag{shared}},
	}

	tags := constraint.ApplicableTags(groups)
	if len(tags) != 1 {
		t.Errorf("Expected 1 deduplicated tag, got %d", len(tags))
	}
}
