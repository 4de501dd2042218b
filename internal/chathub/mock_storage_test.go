package chathub_test

import (
	"context"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of chathub.Storage.
type MockStorage struct {
	mock.Mock
}

// newMockStorage returns a MockStorage whose presence mirror always succeeds.
func newMockStorage() *MockStorage {
	m := new(MockStorage)
	m.On("MarkOnline", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("MarkOffline", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

func (m *MockStorage) GetChannelsOfUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) SendMessage(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.MessageEvent, error) {
	args := m.Called(ctx, senderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageEvent), args.Error(1)
}

func (m *MockStorage) UpdateMessage(ctx context.Context, editorID string, req models.UpdateMessageRequest) (*models.MessageEvent, error) {
	args := m.Called(ctx, editorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageEvent), args.Error(1)
}

func (m *MockStorage) DeleteMessage(ctx context.Context, actorID string, req models.DeleteMessageRequest) (*models.MessageEvent, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageEvent), args.Error(1)
}

func (m *MockStorage) AddChannelMembers(ctx context.Context, actorID, channelID string, userIDs []string) error {
	args := m.Called(ctx, actorID, channelID, userIDs)
	return args.Error(0)
}

func (m *MockStorage) RemoveChannelMembers(ctx context.Context, actorID, channelID string, userIDs []string) error {
	args := m.Called(ctx, actorID, channelID, userIDs)
	return args.Error(0)
}

func (m *MockStorage) AddWorkspaceMembers(ctx context.Context, actorID, workspaceID string, userIDs []string) error {
	args := m.Called(ctx, actorID, workspaceID, userIDs)
	return args.Error(0)
}

func (m *MockStorage) RemoveWorkspaceMembers(ctx context.Context, actorID, workspaceID string, userIDs []string) error {
	args := m.Called(ctx, actorID, workspaceID, userIDs)
	return args.Error(0)
}

func (m *MockStorage) Authorize(ctx context.Context, id auth.Identity, res auth.Resource, action auth.Action) error {
	args := m.Called(ctx, id, res, action)
	return args.Error(0)
}

func (m *MockStorage) MarkOnline(ctx context.Context, userID, handle string) error {
	args := m.Called(ctx, userID, handle)
	return args.Error(0)
}

func (m *MockStorage) MarkOffline(ctx context.Context, userID, handle string) error {
	args := m.Called(ctx, userID, handle)
	return args.Error(0)
}

// MockBus is a testify mock of chathub.MembershipBus.
type MockBus struct {
	mock.Mock
}

func (b *MockBus) PublishMembershipChange(ctx context.Context, change models.MembershipChange) error {
	args := b.Called(ctx, change)
	return args.Error(0)
}

func (b *MockBus) SubscribeMembershipChanges(ctx context.Context) (*redis.PubSub, error) {
	args := b.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redis.PubSub), args.Error(1)
}
