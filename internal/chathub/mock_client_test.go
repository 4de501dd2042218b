package chathub_test

import (
	"context"
	"sync"
	"teamchat/backend/internal/chathub"
	"teamchat/backend/internal/models"
	"testing"
	"time"
)

// MockClient is an in-memory chathub.Conn. Pushed events land in a buffered
// channel the test reads from.
type MockClient struct {
	handle chathub.ConnectionHandle
	userID string
	events chan models.Event

	mu         sync.Mutex
	closed     bool
	closeCount int
}

func newMockClient(userID string) *MockClient {
	return newMockClientWithBuffer(userID, 64)
}

func newMockClientWithBuffer(userID string, size int) *MockClient {
	return &MockClient{
		handle: chathub.NewConnectionHandle(),
		userID: userID,
		events: make(chan models.Event, size),
	}
}

func (c *MockClient) Handle() chathub.ConnectionHandle { return c.handle }
func (c *MockClient) UserID() string                   { return c.userID }

func (c *MockClient) Push(ctx context.Context, ev models.Event) error {
	if c.IsClosed() {
		return chathub.ErrConnClosed
	}
	select {
	case c.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeCount++
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *MockClient) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount
}

// Drain returns every event pushed so far.
func (c *MockClient) Drain() []models.Event {
	var out []models.Event
	for {
		select {
		case ev := <-c.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Next waits briefly for the next event.
func (c *MockClient) Next(t *testing.T) models.Event {
	t.Helper()
	select {
	case ev := <-c.events:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("client %s/%s received no event", c.userID, c.handle)
		return models.Event{}
	}
}

// eventTypes lists the types of events, in order.
func eventTypes(events []models.Event) []models.EventName {
	out := make([]models.EventName, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}
