package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix = "presence:user:"
	onlineUsersKey    = "presence:online"
	// PresenceTTL обмежує життя запису, якщо процес хабу впав без MarkOffline.
	PresenceTTL = 2 * time.Hour
)

func presenceKey(userID string) string {
	return presenceKeyPrefix + userID
}

// MarkOnline додає з'єднання до множини присутності користувача в Redis.
func (s *Service) MarkOnline(ctx context.Context, userID, handle string) error {
	if s.Redis == nil {
		return nil
	}
	_, err := s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, presenceKey(userID), handle)
		pipe.Expire(ctx, presenceKey(userID), PresenceTTL)
		pipe.SAdd(ctx, onlineUsersKey, userID)
		return nil
	})
	return errors.Wrapf(err, "mark %s online", userID)
}

// MarkOffline прибирає з'єднання; коли з'єднань не лишилось, користувач стає офлайн.
func (s *Service) MarkOffline(ctx context.Context, userID, handle string) error {
	if s.Redis == nil {
		return nil
	}
	var left *redis.IntCmd
	_, err := s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, presenceKey(userID), handle)
		left = pipe.SCard(ctx, presenceKey(userID))
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "mark %s offline", userID)
	}
	if left.Val() == 0 {
		if err := s.Redis.SRem(ctx, onlineUsersKey, userID).Err(); err != nil {
			return errors.Wrapf(err, "mark %s offline", userID)
		}
	}
	return nil
}

// IsOnline повідомляє, чи має користувач хоча б одне живе з'єднання.
func (s *Service) IsOnline(ctx context.Context, userID string) (bool, error) {
	if s.Redis == nil {
		return false, nil
	}
	n, err := s.Redis.SCard(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "presence of %s", userID)
	}
	return n > 0, nil
}

// OnlineUsers повертає всіх користувачів, позначених як онлайн.
func (s *Service) OnlineUsers(ctx context.Context) ([]string, error) {
	if s.Redis == nil {
		return nil, nil
	}
	users, err := s.Redis.SMembers(ctx, onlineUsersKey).Result()
	return users, errors.Wrap(err, "online users")
}
