package models

import "time"

// Member roles. Owners and admins may manage membership.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ChannelMember is one user's membership in a channel.
// The channel id doubles as the hub room id.
type ChannelMember struct {
	ChannelID string    `gorm:"type:text;primaryKey" json:"channelId"`
	UserID    string    `gorm:"type:text;primaryKey;index" json:"userId"`
	Role      string    `gorm:"type:text;not null;default:member" json:"role"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// WorkspaceMember is one user's membership in a workspace.
type WorkspaceMember struct {
	WorkspaceID string    `gorm:"type:text;primaryKey" json:"workspaceId"`
	UserID      string    `gorm:"type:text;primaryKey;index" json:"userId"`
	Role        string    `gorm:"type:text;not null;default:member" json:"role"`
	JoinedAt    time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// CanManage reports whether role may add or remove members.
func CanManage(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}

// MembershipScope is the level at which a membership change happened.
type MembershipScope string

const (
	ScopeChannel   MembershipScope = "channel"
	ScopeWorkspace MembershipScope = "workspace"
)

// MembershipChange is published after a membership mutation was persisted,
// so that every hub process can propagate it to its live connections.
// Origin names the publishing hub instance, which has already applied it.
type MembershipChange struct {
	Scope    MembershipScope `json:"scope"`
	TargetID string          `json:"targetId"`
	UserIDs  []string        `json:"userIds"`
	Added    bool            `json:"added"`
	ActorID  string          `json:"actorId"`
	Origin   string          `json:"origin,omitempty"`
}
