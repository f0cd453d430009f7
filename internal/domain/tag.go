package domain

import "time"

// Tag is a named label attachable to groups and apps. A tag optionally
// carries access constraints; a disabled tag's constraints are inert.
type Tag struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Enabled     bool            `json:"enabled" db:"enabled"`
	Constraints *TagConstraints `json:"constraints,omitempty" db:"-"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// TagConstraints holds the recognized constraint keys of a tag. Pointer
// fields distinguish "absent" (unconstrained) from an explicit zero: a
// member_time_limit of 0 is a real, binding limit.
type TagConstraints struct {
	MemberTimeLimit           *int64 `json:"member_time_limit,omitempty"`
	OwnerTimeLimit            *int64 `json:"owner_time_limit,omitempty"`
	RequireMemberReason       bool   `json:"require_member_reason,omitempty"`
	RequireOwnerReason        bool   `json:"require_owner_reason,omitempty"`
	DisallowSelfAddMembership bool   `json:"disallow_self_add_membership,omitempty"`
	DisallowSelfAddOwnership  bool   `json:"disallow_self_add_ownership,omitempty"`
}

// TimeLimit returns the time limit for the requested axis, or nil when the
// tag does not constrain that axis.
func (c *TagConstraints) TimeLimit(owner bool) *int64 {
	if c == nil {
		return nil
	}
	if owner {
		return c.OwnerTimeLimit
	}
	return c.MemberTimeLimit
}

// RequireReason reports whether the tag requires a justification for the
// requested axis.
func (c *TagConstraints) RequireReason(owner bool) bool {
	if c == nil {
		return false
	}
	if owner {
		return c.RequireOwnerReason
	}
	return c.RequireMemberReason
}

// DisallowSelfAdd reports whether the tag blocks self-granted access for the
// requested axis.
func (c *TagConstraints) DisallowSelfAdd(owner bool) bool {
	if c == nil {
		return false
	}
	if owner {
		return c.DisallowSelfAddOwnership
	}
	return c.DisallowSelfAddMembership
}
