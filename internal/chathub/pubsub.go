package chathub

import (
	"context"
	"encoding/json"
	"teamchat/backend/internal/models"

	"github.com/pkg/errors"
)

// StartMembershipListener запускає Goroutine, яка слухає зміни членства з
// Redis Pub/Sub і застосовує їх до живих з'єднань цього процесу.
func (m *ManagerService) StartMembershipListener(ctx context.Context) {
	if m.bus == nil {
		return
	}

	go func() {
		pubsub, err := m.bus.SubscribeMembershipChanges(ctx)
		if err != nil {
			m.log.WithError(err).Error("Cannot listen for membership changes")
			return
		}
		defer pubsub.Close()

		ch := pubsub.Channel()
		m.log.Info("Listening for membership changes")

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := m.ApplyMembershipPayload(ctx, msg.Payload); err != nil {
					m.log.WithError(err).Warn("Dropping membership change")
				}
			}
		}
	}()
}

// ApplyMembershipPayload applies one MembershipChange received from the bus.
// Changes this process published itself were already applied and are skipped.
func (m *ManagerService) ApplyMembershipPayload(ctx context.Context, payload string) error {
	var change models.MembershipChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return errors.Wrap(err, "decode membership change")
	}
	if change.Origin == m.instanceID {
		return nil
	}
	m.applyMembershipChange(ctx, change, "")
	return nil
}
