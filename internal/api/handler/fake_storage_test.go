package handler_test

import (
	"context"
	"sync"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/models"

	"github.com/google/uuid"
)

// fakeStorage is an in-memory stand-in for storage.Service.
type fakeStorage struct {
	mu         sync.Mutex
	channels   map[string]map[string]string // channel -> user -> role
	workspaces map[string]map[string]string
	messages   map[string]models.Message
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		channels:   map[string]map[string]string{},
		workspaces: map[string]map[string]string{},
		messages:   map[string]models.Message{},
	}
}

func (f *fakeStorage) setRole(table map[string]map[string]string, target, userID, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if table[target] == nil {
		table[target] = map[string]string{}
	}
	table[target][userID] = role
}

func (f *fakeStorage) GetChannelsOfUser(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for channelID, members := range f.channels {
		if _, ok := members[userID]; ok {
			ids = append(ids, channelID)
		}
	}
	return ids, nil
}

func (f *fakeStorage) SendMessage(_ context.Context, senderID string, req models.SendMessageRequest) (*models.MessageEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		IsChannel:  req.IsChannel,
		Content:    req.Content,
	}
	f.messages[msg.ID] = msg
	ev := models.NewMessageEvent(models.MessageSent, msg, senderID)
	return &ev, nil
}

func (f *fakeStorage) UpdateMessage(_ context.Context, editorID string, req models.UpdateMessageRequest) (*models.MessageEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[req.MessageID]
	if !ok {
		return nil, apperr.NotFound("Message not found")
	}
	msg.Content = req.Content
	f.messages[msg.ID] = msg
	ev := models.NewMessageEvent(models.MessageUpdated, msg, editorID)
	return &ev, nil
}

func (f *fakeStorage) DeleteMessage(_ context.Context, actorID string, req models.DeleteMessageRequest) (*models.MessageEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[req.MessageID]
	if !ok {
		return nil, apperr.NotFound("Message not found")
	}
	ev := models.NewMessageEvent(models.MessageDeleted, msg, actorID)
	ev.DeleteForEveryone = req.DeleteForEveryone
	return &ev, nil
}

func (f *fakeStorage) AddChannelMembers(_ context.Context, _, channelID string, userIDs []string) error {
	for _, id := range userIDs {
		f.setRole(f.channels, channelID, id, models.RoleMember)
	}
	return nil
}

func (f *fakeStorage) RemoveChannelMembers(_ context.Context, _, channelID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range userIDs {
		delete(f.channels[channelID], id)
	}
	return nil
}

func (f *fakeStorage) AddWorkspaceMembers(_ context.Context, _, workspaceID string, userIDs []string) error {
	for _, id := range userIDs {
		f.setRole(f.workspaces, workspaceID, id, models.RoleMember)
	}
	return nil
}

func (f *fakeStorage) RemoveWorkspaceMembers(_ context.Context, _, workspaceID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range userIDs {
		delete(f.workspaces[workspaceID], id)
	}
	return nil
}

func (f *fakeStorage) Authorize(_ context.Context, id auth.Identity, res auth.Resource, action auth.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var role string
	switch res.Kind {
	case auth.ResourceUser:
		return nil
	case auth.ResourceChannel:
		role = f.channels[res.ID][id.UserID]
	case auth.ResourceWorkspace:
		role = f.workspaces[res.ID][id.UserID]
	default:
		return nil
	}

	if action == auth.ActionManageMembers && !models.CanManage(role) {
		return apperr.Authorization("Only owners and admins can manage members")
	}
	if role == "" {
		return apperr.Authorization("You are not a member")
	}
	return nil
}

func (f *fakeStorage) MarkOnline(context.Context, string, string) error  { return nil }
func (f *fakeStorage) MarkOffline(context.Context, string, string) error { return nil }

type fakePresence map[string]bool

func (p fakePresence) IsOnline(_ context.Context, userID string) (bool, error) {
	return p[userID], nil
}

func (p fakePresence) OnlineUsers(context.Context) ([]string, error) {
	var ids []string
	for id, online := range p {
		if online {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
