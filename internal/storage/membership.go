package storage

import (
	"context"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/models"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetChannelsOfUser повертає ID усіх каналів, у яких користувач є учасником.
func (s *Service) GetChannelsOfUser(ctx context.Context, userID string) ([]string, error) {
	var channelIDs []string
	err := s.DB.WithContext(ctx).
		Model(&models.ChannelMember{}).
		Where("user_id = ?", userID).
		Order("channel_id").
		Pluck("channel_id", &channelIDs).Error
	if err != nil {
		return nil, apperr.Internal(errors.Wrapf(err, "channels of user %s", userID))
	}
	return channelIDs, nil
}

// AddChannelMembers додає користувачів до каналу. Вже наявні учасники ігноруються.
func (s *Service) AddChannelMembers(ctx context.Context, actorID, channelID string, userIDs []string) error {
	rows := lo.Map(lo.Uniq(userIDs), func(id string, _ int) models.ChannelMember {
		return models.ChannelMember{ChannelID: channelID, UserID: id, Role: models.RoleMember}
	})
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return apperr.Internal(errors.Wrapf(err, "add members to channel %s by %s", channelID, actorID))
	}
	return nil
}

// RemoveChannelMembers видаляє користувачів з каналу.
func (s *Service) RemoveChannelMembers(ctx context.Context, actorID, channelID string, userIDs []string) error {
	return s.removeMembers(ctx, &models.ChannelMember{}, "channel_id", channelID, actorID, userIDs)
}

// AddWorkspaceMembers додає користувачів до робочого простору.
func (s *Service) AddWorkspaceMembers(ctx context.Context, actorID, workspaceID string, userIDs []string) error {
	rows := lo.Map(lo.Uniq(userIDs), func(id string, _ int) models.WorkspaceMember {
		return models.WorkspaceMember{WorkspaceID: workspaceID, UserID: id, Role: models.RoleMember}
	})
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return apperr.Internal(errors.Wrapf(err, "add members to workspace %s by %s", workspaceID, actorID))
	}
	return nil
}

// RemoveWorkspaceMembers видаляє користувачів з робочого простору.
func (s *Service) RemoveWorkspaceMembers(ctx context.Context, actorID, workspaceID string, userIDs []string) error {
	return s.removeMembers(ctx, &models.WorkspaceMember{}, "workspace_id", workspaceID, actorID, userIDs)
}

func (s *Service) removeMembers(ctx context.Context, model any, column, targetID, actorID string, userIDs []string) error {
	err := s.DB.WithContext(ctx).
		Where(column+" = ? AND user_id IN ?", targetID, userIDs).
		Delete(model).Error
	if err != nil {
		return apperr.Internal(errors.Wrapf(err, "remove members from %s by %s", targetID, actorID))
	}
	return nil
}

// channelRole повертає роль користувача в каналі або "" якщо він не учасник.
func (s *Service) channelRole(db *gorm.DB, channelID, userID string) (string, error) {
	var m models.ChannelMember
	err := db.Where("channel_id = ? AND user_id = ?", channelID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Internal(errors.Wrapf(err, "role of %s in channel %s", userID, channelID))
	}
	return m.Role, nil
}

func (s *Service) workspaceRole(db *gorm.DB, workspaceID, userID string) (string, error) {
	var m models.WorkspaceMember
	err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Internal(errors.Wrapf(err, "role of %s in workspace %s", userID, workspaceID))
	}
	return m.Role, nil
}

// SetChannelRole призначає роль у каналі, додаючи користувача за потреби.
// Використовується адміністративною командою, щоб призначити першого власника.
func (s *Service) SetChannelRole(ctx context.Context, channelID, userID, role string) error {
	row := models.ChannelMember{ChannelID: channelID, UserID: userID, Role: role}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&row).Error
	if err != nil {
		return apperr.Internal(errors.Wrapf(err, "set role of %s in channel %s", userID, channelID))
	}
	return nil
}

// SetWorkspaceRole призначає роль у робочому просторі.
func (s *Service) SetWorkspaceRole(ctx context.Context, workspaceID, userID, role string) error {
	row := models.WorkspaceMember{WorkspaceID: workspaceID, UserID: userID, Role: role}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&row).Error
	if err != nil {
		return apperr.Internal(errors.Wrapf(err, "set role of %s in workspace %s", userID, workspaceID))
	}
	return nil
}
