package constraint

import (
	"github.com/accessops/access-console/internal/domain"
)

// ResolveLimit computes the binding (most restrictive) time limit in seconds
// for granting membership (or ownership, when wantOwner is set) across the
// given groups. A nil result means no applicable tag constrains the axis;
// this is distinct from a zero limit, which is binding.
func ResolveLimit(groups []*domain.Group, wantOwner bool) *int64 {
	tags := ApplicableTags(ExpandGroups(groups, wantOwner))
	return minLimit(tags, wantOwner)
}

// ResolveReasonRequired reports whether any applicable enabled tag across the
// given groups requires a justification for the requested axis.
func ResolveReasonRequired(groups []*domain.Group, wantOwner bool) bool {
	tags := ApplicableTags(ExpandGroups(groups, wantOwner))
	for _, t := range tags {
		if t.Constraints.RequireReason(wantOwner) {
			return true
		}
	}
	return false
}

// ResolveLimitMixed computes the binding limit for a selection that mixes
// member and owner rows. Each axis is resolved independently over its own
// group set; an axis with no applicable tags does not constrain the result.
// Only when both axes are unlimited is the result nil.
func ResolveLimitMixed(memberGroups, ownerGroups []*domain.Group) *int64 {
	memberLimit := ResolveLimit(memberGroups, false)
	ownerLimit := ResolveLimit(ownerGroups, true)

	switch {
	case memberLimit == nil:
		return ownerLimit
	case ownerLimit == nil:
		return memberLimit
	case *memberLimit <= *ownerLimit:
		return memberLimit
	default:
		return ownerLimit
	}
}

// ResolveReasonRequiredMixed reports whether either axis of a mixed selection
// requires a justification.
func ResolveReasonRequiredMixed(memberGroups, ownerGroups []*domain.Group) bool {
	return ResolveReasonRequired(memberGroups, false) ||
		ResolveReasonRequired(ownerGroups, true)
}

// minLimit scans tags for the requested axis and returns the minimum limit,
// or nil when no tag constrains the axis.
func minLimit(tags []*domain.Tag, wantOwner bool) *int64 {
	var (
		found bool
		min   int64
	)
	for _, t := range tags {
		limit := t.Constraints.TimeLimit(wantOwner)
		if limit == nil {
			continue
		}
		if !found || *limit < min {
			found = true
			min = *limit
		}
	}
	if !found {
		return nil
	}
	return &min
}
