// Package storage provides the persistence-backed collaborators the hub
// consumes: channel membership, messaging, membership management and the
// capability check on PostgreSQL (gorm), plus presence and membership fan-in
// on Redis.
package storage

import (
	"context"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Storage interface {
	GetChannelsOfUser(ctx context.Context, userID string) ([]string, error)

	SendMessage(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.MessageEvent, error)
	UpdateMessage(ctx context.Context, editorID string, req models.UpdateMessageRequest) (*models.MessageEvent, error)
	DeleteMessage(ctx context.Context, actorID string, req models.DeleteMessageRequest) (*models.MessageEvent, error)

	AddChannelMembers(ctx context.Context, actorID, channelID string, userIDs []string) error
	RemoveChannelMembers(ctx context.Context, actorID, channelID string, userIDs []string) error
	AddWorkspaceMembers(ctx context.Context, actorID, workspaceID string, userIDs []string) error
	RemoveWorkspaceMembers(ctx context.Context, actorID, workspaceID string, userIDs []string) error

	Authorize(ctx context.Context, id auth.Identity, res auth.Resource, action auth.Action) error

	MarkOnline(ctx context.Context, userID, handle string) error
	MarkOffline(ctx context.Context, userID, handle string) error
	IsOnline(ctx context.Context, userID string) (bool, error)

	PublishMembershipChange(ctx context.Context, change models.MembershipChange) error
	SubscribeMembershipChanges(ctx context.Context) (*redis.PubSub, error)
}

var _ Storage = (*Service)(nil)

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Migrate creates or updates the tables owned by this service.
func (s *Service) Migrate() error {
	err := s.DB.AutoMigrate(
		&models.Message{},
		&models.MessageHide{},
		&models.ChannelMember{},
		&models.WorkspaceMember{},
	)
	return errors.Wrap(err, "auto migrate")
}
