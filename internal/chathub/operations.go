package chathub

import (
	"context"
	"encoding/json"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/models"
)

// operation runs one client operation. It returns the result acknowledged to
// the caller and the fan-out to run after the acknowledgment.
type operation func(ctx context.Context, s *Session, data json.RawMessage) (any, func(context.Context), error)

func (m *ManagerService) operations() map[models.Operation]operation {
	return map[models.Operation]operation{
		models.OpSendMessage:             m.sendMessage,
		models.OpUpdateMessage:           m.updateMessage,
		models.OpDeleteMessage:           m.deleteMessage,
		models.OpAddUserToChannel:        m.channelMembers(true),
		models.OpRemoveUserFromChannel:   m.channelMembers(false),
		models.OpAddUserToWorkspace:      m.workspaceMembers(true),
		models.OpRemoveUserFromWorkspace: m.workspaceMembers(false),
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Domain("Malformed request data")
	}
	return models.Validate(v)
}

func (m *ManagerService) sendMessage(ctx context.Context, s *Session, data json.RawMessage) (any, func(context.Context), error) {
	var req models.SendMessageRequest
	if err := decode(data, &req); err != nil {
		return nil, nil, err
	}

	res := auth.User(req.ReceiverID)
	if req.IsChannel {
		res = auth.Channel(req.ReceiverID)
	}
	if err := m.Storage.Authorize(ctx, s.Identity(), res, auth.ActionPost); err != nil {
		return nil, nil, err
	}

	ev, err := m.Storage.SendMessage(ctx, s.UserID(), req)
	if err != nil {
		return nil, nil, err
	}
	return ev.Message, func(ctx context.Context) {
		m.Dispatcher.Dispatch(ctx, ev, s.Handle())
	}, nil
}

func (m *ManagerService) updateMessage(ctx context.Context, s *Session, data json.RawMessage) (any, func(context.Context), error) {
	var req models.UpdateMessageRequest
	if err := decode(data, &req); err != nil {
		return nil, nil, err
	}
	if err := m.Storage.Authorize(ctx, s.Identity(), auth.Message(req.MessageID), auth.ActionEdit); err != nil {
		return nil, nil, err
	}

	ev, err := m.Storage.UpdateMessage(ctx, s.UserID(), req)
	if err != nil {
		return nil, nil, err
	}
	return ev.Message, func(ctx context.Context) {
		m.Dispatcher.Dispatch(ctx, ev, s.Handle())
	}, nil
}

func (m *ManagerService) deleteMessage(ctx context.Context, s *Session, data json.RawMessage) (any, func(context.Context), error) {
	var req models.DeleteMessageRequest
	if err := decode(data, &req); err != nil {
		return nil, nil, err
	}
	if err := m.Storage.Authorize(ctx, s.Identity(), auth.Message(req.MessageID), auth.ActionDelete); err != nil {
		return nil, nil, err
	}

	ev, err := m.Storage.DeleteMessage(ctx, s.UserID(), req)
	if err != nil {
		return nil, nil, err
	}
	return deleteNotice(ev), func(ctx context.Context) {
		m.Dispatcher.Dispatch(ctx, ev, s.Handle())
	}, nil
}

func (m *ManagerService) channelMembers(add bool) operation {
	return func(ctx context.Context, s *Session, data json.RawMessage) (any, func(context.Context), error) {
		var req models.ChannelMembersRequest
		if err := decode(data, &req); err != nil {
			return nil, nil, err
		}
		if err := m.Storage.Authorize(ctx, s.Identity(), auth.Channel(req.ChannelID), auth.ActionManageMembers); err != nil {
			return nil, nil, err
		}

		persist := m.Storage.RemoveChannelMembers
		if add {
			persist = m.Storage.AddChannelMembers
		}
		if err := persist(ctx, s.UserID(), req.ChannelID, req.UserIDs); err != nil {
			return nil, nil, err
		}

		change := models.MembershipChange{
			Scope:    models.ScopeChannel,
			TargetID: req.ChannelID,
			UserIDs:  req.UserIDs,
			Added:    add,
			ActorID:  s.UserID(),
		}
		notice := models.ChannelMembershipNotice{ChannelID: req.ChannelID, UserIDs: req.UserIDs, ActorID: s.UserID()}
		return notice, func(ctx context.Context) {
			m.PropagateMembershipChange(ctx, change, s.Handle())
		}, nil
	}
}

func (m *ManagerService) workspaceMembers(add bool) operation {
	return func(ctx context.Context, s *Session, data json.RawMessage) (any, func(context.Context), error) {
		var req models.WorkspaceMembersRequest
		if err := decode(data, &req); err != nil {
			return nil, nil, err
		}
		if err := m.Storage.Authorize(ctx, s.Identity(), auth.Workspace(req.WorkspaceID), auth.ActionManageMembers); err != nil {
			return nil, nil, err
		}

		persist := m.Storage.RemoveWorkspaceMembers
		if add {
			persist = m.Storage.AddWorkspaceMembers
		}
		if err := persist(ctx, s.UserID(), req.WorkspaceID, req.UserIDs); err != nil {
			return nil, nil, err
		}

		change := models.MembershipChange{
			Scope:    models.ScopeWorkspace,
			TargetID: req.WorkspaceID,
			UserIDs:  req.UserIDs,
			Added:    add,
			ActorID:  s.UserID(),
		}
		notice := models.WorkspaceMembershipNotice{WorkspaceID: req.WorkspaceID, UserIDs: req.UserIDs, ActorID: s.UserID()}
		return notice, func(ctx context.Context) {
			m.PropagateMembershipChange(ctx, change, s.Handle())
		}, nil
	}
}
