package storage

import (
	"context"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/models"
)

// Authorize перевіряє, чи може користувач виконати дію над ресурсом.
func (s *Service) Authorize(ctx context.Context, id auth.Identity, res auth.Resource, action auth.Action) error {
	db := s.DB.WithContext(ctx)

	switch {
	case res.Kind == auth.ResourceUser && action == auth.ActionPost:
		return nil

	case res.Kind == auth.ResourceChannel && action == auth.ActionPost:
		role, err := s.channelRole(db, res.ID, id.UserID)
		if err != nil {
			return err
		}
		if role == "" {
			return apperr.Authorization("You are not a member of this channel")
		}
		return nil

	case res.Kind == auth.ResourceChannel && action == auth.ActionManageMembers:
		role, err := s.channelRole(db, res.ID, id.UserID)
		if err != nil {
			return err
		}
		if !models.CanManage(role) {
			return apperr.Authorization("Only channel owners and admins can manage members")
		}
		return nil

	case res.Kind == auth.ResourceWorkspace && action == auth.ActionManageMembers:
		role, err := s.workspaceRole(db, res.ID, id.UserID)
		if err != nil {
			return err
		}
		if !models.CanManage(role) {
			return apperr.Authorization("Only workspace owners and admins can manage members")
		}
		return nil

	case res.Kind == auth.ResourceMessage && (action == auth.ActionEdit || action == auth.ActionDelete):
		// Авторство перевіряється в UpdateMessage/DeleteMessage, тут лише видимість.
		msg, err := s.findMessage(db, res.ID)
		if err != nil {
			return err
		}
		if msg.SenderID == id.UserID || (!msg.IsChannel && msg.ReceiverID == id.UserID) {
			return nil
		}
		if msg.IsChannel {
			role, err := s.channelRole(db, msg.ReceiverID, id.UserID)
			if err != nil {
				return err
			}
			if role != "" {
				return nil
			}
		}
		return apperr.Authorization("You cannot access this message")
	}

	return apperr.Authorization("Action not permitted")
}
