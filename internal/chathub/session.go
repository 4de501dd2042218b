package chathub

import (
	"context"
	"sync"
	"sync/atomic"
	"teamchat/backend/internal/auth"
)

// State is where a connection is in its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateActive
	StateDisconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateDisconnecting:
		return "disconnecting"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is the hub's view of one connection: its identity and lifecycle state.
type Session struct {
	conn Conn

	// lock serializes Attach and Detach.
	lock     sync.Mutex
	state    atomic.Int32
	identity auth.Identity
	online   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession wraps a freshly accepted connection.
func NewSession(c Conn) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{conn: c, ctx: ctx, cancel: cancel}
}

func (s *Session) State() State              { return State(s.state.Load()) }
func (s *Session) setState(st State)         { s.state.Store(int32(st)) }
func (s *Session) Conn() Conn                { return s.conn }
func (s *Session) Handle() ConnectionHandle  { return s.conn.Handle() }
func (s *Session) UserID() string            { return s.conn.UserID() }
func (s *Session) Identity() auth.Identity   { return s.identity }

// Context is cancelled when the session starts disconnecting.
func (s *Session) Context() context.Context { return s.ctx }
