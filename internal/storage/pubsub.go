package storage

import (
	"context"
	"encoding/json"
	"teamchat/backend/internal/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// MembershipChannel is the Redis Pub/Sub channel carrying models.MembershipChange.
const MembershipChannel = "teamchat:membership"

// PublishMembershipChange публікує зміну членства в Redis Pub/Sub,
// щоб процес хабу застосував її до живих з'єднань.
func (s *Service) PublishMembershipChange(ctx context.Context, change models.MembershipChange) error {
	if s.Redis == nil {
		return errors.New("redis is not configured")
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return errors.Wrap(err, "encode membership change")
	}
	if err := s.Redis.Publish(ctx, MembershipChannel, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish membership change for %s", change.TargetID)
	}
	return nil
}

// SubscribeMembershipChanges підписується на канал змін членства.
func (s *Service) SubscribeMembershipChanges(ctx context.Context) (*redis.PubSub, error) {
	if s.Redis == nil {
		return nil, errors.New("redis is not configured")
	}
	return s.Redis.Subscribe(ctx, MembershipChannel), nil
}
