package storage

import (
	"context"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/models"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SendMessage зберігає нове повідомлення та повертає подію для розсилки.
func (s *Service) SendMessage(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.MessageEvent, error) {
	db := s.DB.WithContext(ctx)

	if req.ReplyTo != nil {
		parent, err := s.findMessage(db, *req.ReplyTo)
		if err != nil {
			return nil, err
		}
		if !sameConversation(parent, senderID, req.ReceiverID, req.IsChannel) {
			return nil, apperr.Domain("Reply target belongs to another conversation")
		}
	}

	msg := models.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		IsChannel:  req.IsChannel,
		Content:    req.Content,
		ReplyToID:  req.ReplyTo,
		Files:      pq.StringArray(req.Files),
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, apperr.Internal(errors.Wrapf(err, "create message to %s", req.ReceiverID))
	}

	ev := models.NewMessageEvent(models.MessageSent, msg, senderID)
	return &ev, nil
}

// UpdateMessage змінює вміст повідомлення. Редагувати може лише автор.
func (s *Service) UpdateMessage(ctx context.Context, editorID string, req models.UpdateMessageRequest) (*models.MessageEvent, error) {
	db := s.DB.WithContext(ctx)

	msg, err := s.findMessage(db, req.MessageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != editorID {
		return nil, apperr.Authorization("Only the author can edit a message")
	}

	now := time.Now()
	msg.Content = req.Content
	msg.Files = pq.StringArray(req.Files)
	msg.EditedAt = &now
	if err := db.Save(msg).Error; err != nil {
		return nil, apperr.Internal(errors.Wrapf(err, "update message %s", msg.ID))
	}

	ev := models.NewMessageEvent(models.MessageUpdated, *msg, editorID)
	return &ev, nil
}

// DeleteMessage видаляє повідомлення для всіх (лише автор) або приховує його для actorID.
func (s *Service) DeleteMessage(ctx context.Context, actorID string, req models.DeleteMessageRequest) (*models.MessageEvent, error) {
	db := s.DB.WithContext(ctx)

	msg, err := s.findMessage(db, req.MessageID)
	if err != nil {
		return nil, err
	}

	if req.DeleteForEveryone {
		if msg.SenderID != actorID {
			return nil, apperr.Authorization("Only the author can delete a message for everyone")
		}
		if err := db.Delete(msg).Error; err != nil {
			return nil, apperr.Internal(errors.Wrapf(err, "delete message %s", msg.ID))
		}
	} else {
		// Повторне приховування не є помилкою
		hide := models.MessageHide{MessageID: msg.ID, UserID: actorID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&hide).Error; err != nil {
			return nil, apperr.Internal(errors.Wrapf(err, "hide message %s", msg.ID))
		}
	}

	ev := models.NewMessageEvent(models.MessageDeleted, *msg, actorID)
	ev.DeleteForEveryone = req.DeleteForEveryone
	return &ev, nil
}

func (s *Service) findMessage(db *gorm.DB, id string) (*models.Message, error) {
	var msg models.Message
	err := db.Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Message not found")
	}
	if err != nil {
		return nil, apperr.Internal(errors.Wrapf(err, "find message %s", id))
	}
	return &msg, nil
}

// sameConversation перевіряє, що відповідь посилається на повідомлення з тієї ж розмови.
func sameConversation(parent *models.Message, senderID, receiverID string, isChannel bool) bool {
	if parent.IsChannel != isChannel {
		return false
	}
	if isChannel {
		return parent.ReceiverID == receiverID
	}
	return (parent.SenderID == senderID && parent.ReceiverID == receiverID) ||
		(parent.SenderID == receiverID && parent.ReceiverID == senderID)
}
