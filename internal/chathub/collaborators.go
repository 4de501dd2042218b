package chathub

import (
	"context"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// ChannelMembership answers which channels a user currently belongs to.
type ChannelMembership interface {
	GetChannelsOfUser(ctx context.Context, userID string) ([]string, error)
}

// Messaging persists message mutations and returns the canonical event to fan out.
type Messaging interface {
	SendMessage(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.MessageEvent, error)
	UpdateMessage(ctx context.Context, editorID string, req models.UpdateMessageRequest) (*models.MessageEvent, error)
	DeleteMessage(ctx context.Context, actorID string, req models.DeleteMessageRequest) (*models.MessageEvent, error)
}

// MembershipManager persists channel and workspace membership changes.
type MembershipManager interface {
	AddChannelMembers(ctx context.Context, actorID, channelID string, userIDs []string) error
	RemoveChannelMembers(ctx context.Context, actorID, channelID string, userIDs []string) error
	AddWorkspaceMembers(ctx context.Context, actorID, workspaceID string, userIDs []string) error
	RemoveWorkspaceMembers(ctx context.Context, actorID, workspaceID string, userIDs []string) error
}

// PresenceStore mirrors live connections outside the process.
type PresenceStore interface {
	MarkOnline(ctx context.Context, userID, handle string) error
	MarkOffline(ctx context.Context, userID, handle string) error
}

// Storage is everything the hub needs from the persistence layer.
// storage.Service implements it.
type Storage interface {
	ChannelMembership
	Messaging
	MembershipManager
	PresenceStore
	auth.Authorizer
}

// MembershipBus carries membership changes between processes.
type MembershipBus interface {
	PublishMembershipChange(ctx context.Context, change models.MembershipChange) error
	SubscribeMembershipChanges(ctx context.Context) (*redis.PubSub, error)
}
