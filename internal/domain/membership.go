package domain

import "time"

// RowKind discriminates what a membership row binds: a user to a group, or a
// role group to one of its mapped target groups.
type RowKind string

const (
	RowUserGroup RowKind = "user_group"
	RowRoleGroup RowKind = "role_group"
)

// MembershipRow is one user-to-group membership or role-to-group mapping as
// presented in a renewal review page. Rows are never deleted by the backend,
// only time-bounded: a nil EndedAt means the access is indefinite.
type MembershipRow struct {
	ID           int64      `json:"id"`
	Kind         RowKind    `json:"kind"`
	UserID       string     `json:"user_id,omitempty"`
	UserEmail    string     `json:"user_email,omitempty"`
	GroupID      string     `json:"group_id"`
	GroupName    string     `json:"group_name,omitempty"`
	RoleID       string     `json:"role_id,omitempty"`
	RoleName     string     `json:"role_name,omitempty"`
	IsOwner      bool       `json:"is_owner"`
	CreatedAt    time.Time  `json:"created_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	ShouldExpire bool       `json:"should_expire"`
}

// TargetID returns the id the row's update batch is keyed by: the group id
// for user rows, the role id for role mapping rows.
func (r *MembershipRow) TargetID() string {
	if r.Kind == RowRoleGroup {
		return r.RoleID
	}
	return r.GroupID
}

// SubjectID returns the id added or expired by an update batch: the user id
// for user rows, the mapped group id for role mapping rows.
func (r *MembershipRow) SubjectID() string {
	if r.Kind == RowRoleGroup {
		return r.GroupID
	}
	return r.UserID
}

// Active reports whether the row's access is still in effect at now.
func (r *MembershipRow) Active(now time.Time) bool {
	return r.EndedAt == nil || r.EndedAt.After(now)
}

// Decision is the per-row tri-state held while a renewal review is open.
type Decision string

const (
	DecisionUndecided Decision = "undecided"
	DecisionRenew     Decision = "renew"
	DecisionExpire    Decision = "let-expire"
)

// Valid reports whether d is one of the three recognized decision values.
func (d Decision) Valid() bool {
	switch d {
	case DecisionUndecided, DecisionRenew, DecisionExpire:
		return true
	}
	return false
}
