// Package constraint resolves tag constraints over sets of groups: the
// binding time limit for an access change, whether a justification is
// mandatory, the duration choices that remain available under a limit, and
// whether a role is blocked from self-granting access.
package constraint

import (
	"github.com/accessops/access-console/internal/domain"
)

// ExpandGroups returns the constraint surface for the given groups. For role
// groups evaluated for membership, the groups the role grants membership or
// ownership of are unioned in: a role's effective constraint surface includes
// what it grants access to, not just tags on the role itself. Ownership of a
// role group grants nothing through its mappings, so no expansion happens
// when wantOwner is set.
func ExpandGroups(groups []*domain.Group, wantOwner bool) []*domain.Group {
	out := make([]*domain.Group, 0, len(groups))
	seen := make(map[string]bool, len(groups))

	add := func(g *domain.Group) {
		if g == nil || seen[g.ID] {
			return
		}
		seen[g.ID] = true
		out = append(out, g)
	}

	for _, g := range groups {
		add(g)
		if g == nil || !g.IsRole() || wantOwner {
			continue
		}
		for _, mapped := range g.MemberMappings {
			add(mapped)
		}
		for _, mapped := range g.OwnerMappings {
			add(mapped)
		}
	}

	return out
}

// ApplicableTags flattens the enabled tags attached to the groups, including
// tags inherited from an owning app. Disabled tags are excluded entirely, as
// if absent. Tags are deduplicated by id.
func ApplicableTags(groups []*domain.Group) []*domain.Tag {
	var out []*domain.Tag
	seen := make(map[string]bool)

	add := func(t *domain.Tag) {
		if t == nil || !t.Enabled || seen[t.ID] {
			return
		}
		seen[t.ID] = true
		out = append(out, t)
	}

	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, t := range g.Tags {
			add(t)
		}
		if g.App != nil {
			for _, t := range g.App.Tags {
				add(t)
			}
		}
	}

	return out
}
