package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/accessops/access-console/internal/catalog"
	"github.com/accessops/access-console/internal/domain"
	"github.com/accessops/access-console/internal/governance"
)

// fakeBackend serves canned groups, roles, and tags with real paging.
type fakeBackend struct {
	groups   []*domain.Group
	roles    []*domain.Group
	tags     []*domain.Tag
	failures int
	calls    int
}

func (f *fakeBackend) SearchGroups(_ context.Context, q string, page, perPage int) ([]*domain.Group, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("backend unavailable")
	}
	return slicePage(f.groups, page, perPage), nil
}

func (f *fakeBackend) SearchRoles(_ context.Context, q string, page, perPage int) ([]*domain.Group, error) {
	return slicePage(f.roles, page, perPage), nil
}

func (f *fakeBackend) SearchTags(_ context.Context, q string, page, perPage int) ([]*domain.Tag, error) {
	return slicePage(f.tags, page, perPage), nil
}

func (f *fakeBackend) GetGroup(_ context.Context, id string) (*domain.Group, error) {
	for _, g := range append(f.groups, f.roles...) {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) UpdateGroupMembers(_ context.Context, id string, _ *governance.MemberUpdate) (*domain.Group, error) {
	return nil, errors.New("not supported")
}

func (f *fakeBackend) UpdateRoleMembers(_ context.Context, id string, _ *governance.RoleMemberUpdate) (*domain.Group, error) {
	return nil, errors.New("not supported")
}

func slicePage[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func manyGroups(n int) []*domain.Group {
	out := make([]*domain.Group, n)
	for i := range out {
		out[i] = &domain.Group{
			ID:   fmt.Sprintf("g%03d", i),
			Kind: domain.KindGroup,
			Name: fmt.Sprintf("group-%03d", i),
		}
	}
	return out
}

func TestRefresh_WalksAllPages(t *testing.T) {
	backend := &fakeBackend{
		groups: manyGroups(450),
		roles:  []*domain.Group{{ID: "r1", Kind: domain.KindRoleGroup, Name: "oncall"}},
		tags:   []*domain.Tag{{ID: "t1", Name: "restricted", Enabled: true}},
	}
	svc := catalog.New(backend)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !svc.Ready() {
		t.Fatal("Expected catalog to be ready after refresh")
	}

	groups, total := svc.Groups("", 1, 1000)
	if total != 450 || len(groups) != 450 {
		t.Errorf("Expected 450 groups, got %d (total %d)", len(groups), total)
	}
	if _, ok := svc.Group("r1"); !ok {
		t.Error("Expected role lookup by id to succeed")
	}
	if _, ok := svc.Tag("t1"); !ok {
		t.Error("Expected tag lookup by id to succeed")
	}
}

func TestRefresh_RetriesTransientErrors(t *testing.T) {
	backend := &fakeBackend{
		groups:   manyGroups(3),
		failures: 2,
	}
	svc := catalog.New(backend)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Expected refresh to recover after transient failures, got %v", err)
	}
	if _, total := svc.Groups("", 1, 10); total != 3 {
		t.Errorf("Expected 3 groups after recovery, got %d", total)
	}
}

func TestRefresh_FailureKeepsPreviousSnapshot(t *testing.T) {
	backend := &fakeBackend{groups: manyGroups(5)}
	svc := catalog.New(backend)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// Enough consecutive failures to exhaust the retry budget.
	backend.failures = 10
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("Expected refresh to fail")
	}
	if _, total := svc.Groups("", 1, 10); total != 5 {
		t.Errorf("Expected previous snapshot to survive, got %d groups", total)
	}
}

func TestGroups_FilterAndPaging(t *testing.T) {
	backend := &fakeBackend{
		groups: []*domain.Group{
			{ID: "g1", Kind: domain.KindGroup, Name: "payments-prod"},
			{ID: "g2", Kind: domain.KindGroup, Name: "payments-staging"},
			{ID: "g3", Kind: domain.KindGroup, Name: "billing"},
		},
		roles: []*domain.Group{
			{ID: "r1", Kind: domain.KindRoleGroup, Name: "payments-oncall"},
		},
	}
	svc := catalog.New(backend)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	groups, total := svc.Groups("payments", 1, 10)
	if total != 2 {
		t.Fatalf("Expected 2 matching groups, got %d", total)
	}
	// Roles never appear in the group listing.
	for _, g := range groups {
		if g.IsRole() {
			t.Errorf("Role %s leaked into group listing", g.Name)
		}
	}

	page, total := svc.Groups("payments", 2, 1)
	if total != 2 || len(page) != 1 || page[0].Name != "payments-staging" {
		t.Errorf("Unexpected second page: %+v (total %d)", page, total)
	}

	roles, total := svc.Roles("", 1, 10)
	if total != 1 || roles[0].ID != "r1" {
		t.Errorf("Unexpected role listing: %+v (total %d)", roles, total)
	}
}

func TestMemberRoles(t *testing.T) {
	backend := &fakeBackend{
		roles: []*domain.Group{
			{ID: "r1", Kind: domain.KindRoleGroup, Name: "oncall", Members: []string{"alex@corp.test"}},
			{ID: "r2", Kind: domain.KindRoleGroup, Name: "support", Members: []string{"sam@corp.test"}},
		},
	}
	svc := catalog.New(backend)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	roles := svc.MemberRoles("alex@corp.test")
	if !roles["oncall"] || roles["support"] {
		t.Errorf("Unexpected role membership: %v", roles)
	}
}
