package chathub

import (
	"context"
	"teamchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrConnClosed is returned by Conn.Push once the connection is gone.
var ErrConnClosed = errors.New("connection closed")

// ConnectionHandle identifies one live transport connection (one tab, device
// or client process). It exists only while the transport is open.
type ConnectionHandle string

// NewConnectionHandle returns a fresh random handle.
func NewConnectionHandle() ConnectionHandle {
	return ConnectionHandle(uuid.NewString())
}

// RoomID identifies a broadcast group. One room per channel: RoomID == ChannelID.
type RoomID string

// Conn is the interface for any live client connection the hub can push to.
// It abstracts the underlying transport so that the hub can be driven by
// WebSocket clients in production and by in-memory fakes in tests.
type Conn interface {
	// Handle returns the connection's unique handle.
	Handle() ConnectionHandle
	// UserID returns the user the connection was authenticated as.
	UserID() string
	// Push queues ev for delivery. It returns ErrConnClosed when the
	// connection is gone and ctx.Err() when the queue stayed full until ctx ended.
	Push(ctx context.Context, ev models.Event) error
	// Close shuts the connection down. Safe to call more than once.
	Close()
}
