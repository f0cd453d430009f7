package constraint

import (
	"github.com/accessops/access-console/internal/domain"
)

// SelfAddBlocked reports whether renewing a role's access to group is blocked
// as self-dealing: the group carries an enabled disallow-self-add tag for the
// requested axis, and the actor is a member of the role being granted access.
// Administrators are exempt from this check entirely; that exemption is the
// caller's responsibility.
func SelfAddBlocked(group *domain.Group, roleName string, actorRoles map[string]bool, wantOwner bool) bool {
	if group == nil || roleName == "" || !actorRoles[roleName] {
		return false
	}
	for _, t := range ApplicableTags([]*domain.Group{group}) {
		if t.Constraints.DisallowSelfAdd(wantOwner) {
			return true
		}
	}
	return false
}
