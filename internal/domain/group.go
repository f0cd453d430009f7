package domain

import "time"

// GroupKind discriminates the polymorphic group types served by the
// governance backend.
type GroupKind string

const (
	// KindGroup is a plain group.
	KindGroup GroupKind = "group"
	// KindAppGroup is a group scoped to an application. App groups inherit
	// tags applied to their owning app.
	KindAppGroup GroupKind = "app_group"
	// KindRoleGroup is a group whose members are automatically granted
	// membership or ownership of the groups it is mapped to.
	KindRoleGroup GroupKind = "role_group"
)

// App is an application record. Tags attached to an app apply to all of the
// app's groups.
type App struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tags []*Tag `json:"active_tags,omitempty"`
}

// Group represents a group, app group, or role group fetched from the
// governance backend. Tags holds the group's active tag attachments; for app
// groups the owning App carries additional inherited tags.
type Group struct {
	ID          string    `json:"id"`
	Kind        GroupKind `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Tags        []*Tag    `json:"active_tags,omitempty"`
	App         *App      `json:"app,omitempty"`

	// Members and Owners are the current active member/owner emails.
	Members []string `json:"members,omitempty"`
	Owners  []string `json:"owners,omitempty"`

	// MemberMappings and OwnerMappings are set for role groups only: the
	// groups this role grants membership or ownership of.
	MemberMappings []*Group `json:"member_mappings,omitempty"`
	OwnerMappings  []*Group `json:"owner_mappings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRole reports whether the group is a role group.
func (g *Group) IsRole() bool {
	return g.Kind == KindRoleGroup
}

// HasMember reports whether email is an active member of the group.
func (g *Group) HasMember(email string) bool {
	for _, m := range g.Members {
		if m == email {
			return true
		}
	}
	return false
}
