package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Message is a persisted chat message, addressed either to a channel or to a
// single user. Soft deletion through DeletedAt is a delete for everyone.
type Message struct {
	// ID is the message UUID, generated in BeforeCreate.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
	// SenderID is the user who wrote the message.
	SenderID string `gorm:"type:text;not null;index" json:"senderId"`
	// ReceiverID is a channel id when IsChannel is set, a user id otherwise.
	ReceiverID string `gorm:"type:text;not null;index:idx_receiver_created" json:"receiverId"`
	IsChannel  bool   `gorm:"not null;default:false" json:"isChannel"`
	Content    string `gorm:"type:text;not null" json:"content"`
	// ReplyToID references the message being answered, if any.
	ReplyToID *string `gorm:"type:uuid;index" json:"replyTo,omitempty"`
	// Files holds attachment references owned by the file service.
	Files pq.StringArray `gorm:"type:text[]" json:"files,omitempty"`

	CreatedAt time.Time      `gorm:"index:idx_receiver_created" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	EditedAt  *time.Time     `json:"editedAt,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates the message UUID when it is not set yet.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// MessageHide records a "delete for me": the message stays for everyone else.
type MessageHide struct {
	MessageID string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:text;primaryKey"`
	CreatedAt time.Time
}

// MessageEventKind tells the dispatcher which event a MessageEvent becomes.
type MessageEventKind int

const (
	MessageSent MessageEventKind = iota + 1
	MessageUpdated
	MessageDeleted
)

// MessageEvent is the canonical result of a persisted send, edit or delete,
// with the addressing needed to compute its delivery target.
type MessageEvent struct {
	Kind       MessageEventKind
	Message    Message
	SenderID   string
	ReceiverID string
	IsChannel  bool
	// DeleteForEveryone is only meaningful for MessageDeleted. When false the
	// deletion is private to the actor's own devices.
	DeleteForEveryone bool
	// ActorID is the user whose operation produced the event.
	ActorID string
}

// NewMessageEvent builds the event for m with addressing copied from m.
func NewMessageEvent(kind MessageEventKind, m Message, actorID string) MessageEvent {
	return MessageEvent{
		Kind:       kind,
		Message:    m,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		IsChannel:  m.IsChannel,
		ActorID:    actorID,
	}
}
