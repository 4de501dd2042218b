package chathub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const presenceTimeout = 3 * time.Second

// Options tunes the hub. Zero values fall back to defaults.
type Options struct {
	Shards      int
	PushTimeout time.Duration
}

// ManagerService is the hub: it owns the connection registry and the room
// table, runs the connection lifecycle and serves client operations.
type ManagerService struct {
	Registry   *Registry
	Rooms      *Rooms
	Dispatcher *Dispatcher
	Sync       *Synchronizer
	Storage    Storage

	log        *logrus.Logger
	instanceID string
	bus        MembershipBus
	sessions   sync.Map // ConnectionHandle -> *Session
	ops        map[models.Operation]operation
}

// NewManagerService builds a hub on top of s.
func NewManagerService(s Storage, log *logrus.Logger, opts Options) *ManagerService {
	registry := NewRegistry(opts.Shards)
	rooms := NewRooms(opts.Shards)
	dispatcher := NewDispatcher(registry, rooms, log, opts.PushTimeout)

	m := &ManagerService{
		Registry:   registry,
		Rooms:      rooms,
		Dispatcher: dispatcher,
		Sync:       NewSynchronizer(registry, rooms, dispatcher, s, log),
		Storage:    s,
		log:        log,
		instanceID: uuid.NewString(),
	}
	m.ops = m.operations()
	return m
}

// InstanceID identifies this hub process on the membership bus.
func (m *ManagerService) InstanceID() string { return m.instanceID }

// UseMembershipBus makes membership changes applied here visible to other
// hub processes, and lets StartMembershipListener receive theirs.
func (m *ManagerService) UseMembershipBus(bus MembershipBus) {
	m.bus = bus
}

// Session returns the live session behind h.
func (m *ManagerService) Session(h ConnectionHandle) (*Session, bool) {
	v, ok := m.sessions.Load(h)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Attach authenticates s as id and makes it Active: the connection is
// registered under its user and joined to the user's channel rooms.
// On failure the connection is closed and s ends up Closed.
func (m *ManagerService) Attach(ctx context.Context, s *Session, id auth.Identity) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.State() != StateConnecting {
		return errors.Errorf("session %s is %s, not connecting", s.Handle(), s.State())
	}
	s.setState(StateAuthenticating)

	if id.UserID == "" || id.UserID != s.UserID() {
		m.closeLocked(s)
		return apperr.Authentication("Invalid access token", nil)
	}
	if !id.IsVerified {
		m.closeLocked(s)
		return apperr.Authentication("Account is not verified", nil)
	}
	s.identity = id

	m.Rooms.Track(s.conn)
	m.Registry.AddConnection(s.conn)
	m.sessions.Store(s.Handle(), s)

	if err := m.Sync.JoinUserRooms(ctx, s.conn); err != nil {
		m.teardownLocked(s)
		return err
	}

	if err := m.Storage.MarkOnline(ctx, s.UserID(), string(s.Handle())); err != nil {
		m.log.WithFields(logrus.Fields{"user_id": s.UserID(), "conn_id": s.Handle()}).
			WithError(err).Warn("Failed to mirror presence")
	} else {
		s.online = true
	}

	s.setState(StateActive)
	m.log.WithFields(logrus.Fields{
		"user_id": s.UserID(),
		"conn_id": s.Handle(),
		"rooms":   len(m.Rooms.RoomsOf(s.Handle())),
	}).Info("Client connected")
	return nil
}

// Detach runs the Disconnecting step: the connection leaves every room it
// joined and is removed from the registry, then the session is Closed.
// Detaching more than once is a no-op.
func (m *ManagerService) Detach(s *Session) {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch s.State() {
	case StateDisconnecting, StateClosed:
		return
	case StateConnecting:
		m.closeLocked(s)
		return
	}
	m.teardownLocked(s)
	m.log.WithFields(logrus.Fields{"user_id": s.UserID(), "conn_id": s.Handle()}).Info("Client disconnected")
}

func (m *ManagerService) teardownLocked(s *Session) {
	s.setState(StateDisconnecting)
	s.cancel()

	m.Sync.LeaveUserRooms(s.Handle())
	m.Registry.RemoveConnection(s.UserID(), s.Handle())
	m.sessions.Delete(s.Handle())

	if s.online {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		if err := m.Storage.MarkOffline(ctx, s.UserID(), string(s.Handle())); err != nil {
			m.log.WithFields(logrus.Fields{"user_id": s.UserID(), "conn_id": s.Handle()}).
				WithError(err).Warn("Failed to clear presence")
		}
		cancel()
		s.online = false
	}

	m.closeLocked(s)
}

func (m *ManagerService) closeLocked(s *Session) {
	s.cancel()
	s.conn.Close()
	s.setState(StateClosed)
}

// Invoke runs one client frame on s and answers the caller with Success or
// Error. Frames of one session must be invoked one at a time, in order.
func (m *ManagerService) Invoke(s *Session, raw []byte) {
	var in models.Inbound
	defer func() {
		if r := recover(); r != nil {
			m.log.WithFields(logrus.Fields{"user_id": s.UserID(), "conn_id": s.Handle(), "op": in.Type}).
				Errorf("Recovered panic: %v", r)
			m.fail(s, in, apperr.Internal(errors.Errorf("panic: %v", r)))
		}
	}()

	if err := json.Unmarshal(raw, &in); err != nil {
		m.fail(s, in, apperr.Domain("Malformed frame"))
		return
	}
	if s.State() != StateActive {
		m.fail(s, in, apperr.Authentication("Connection is not authenticated", nil))
		return
	}
	op, ok := m.ops[in.Type]
	if !ok {
		m.fail(s, in, apperr.Domain(fmt.Sprintf("Unknown operation %q", in.Type)))
		return
	}

	ctx := s.Context()
	result, fanout, err := op(ctx, s, in.Data)
	if err != nil {
		m.fail(s, in, err)
		return
	}

	m.Dispatcher.Push(ctx, s.conn, models.Event{
		Type:      models.EventSuccess,
		RequestID: in.RequestID,
		Data:      models.SuccessPayload{Operation: in.Type, Result: result},
	})
	if fanout != nil {
		fanout(context.WithoutCancel(ctx))
	}
}

func (m *ManagerService) fail(s *Session, in models.Inbound, err error) {
	code, title := apperr.StatusCode(err)
	entry := m.log.WithFields(logrus.Fields{
		"user_id": s.UserID(),
		"conn_id": s.Handle(),
		"op":      in.Type,
		"status":  code,
	}).WithError(err)
	if code >= 500 {
		entry.Warn("Operation failed")
	} else {
		entry.Debug("Operation rejected")
	}

	m.Dispatcher.Push(context.Background(), s.conn, models.Event{
		Type:      models.EventError,
		RequestID: in.RequestID,
		Data:      models.ErrorPayload{StatusCode: code, Title: title},
	})
}

// PropagateMembershipChange applies a persisted membership change to the live
// connections of this process, skipping exclude, and publishes it on the
// membership bus when one is configured. It returns how many connections
// were notified.
func (m *ManagerService) PropagateMembershipChange(ctx context.Context, change models.MembershipChange, exclude ConnectionHandle) int {
	n := m.applyMembershipChange(ctx, change, exclude)

	if m.bus != nil && change.Origin == "" {
		change.Origin = m.instanceID
		if err := m.bus.PublishMembershipChange(ctx, change); err != nil {
			m.log.WithFields(logrus.Fields{"room_id": change.TargetID, "scope": change.Scope}).
				WithError(err).Warn("Failed to publish membership change")
		}
	}
	return n
}

func (m *ManagerService) applyMembershipChange(ctx context.Context, change models.MembershipChange, exclude ConnectionHandle) int {
	switch change.Scope {
	case models.ScopeChannel:
		notice := models.ChannelMembershipNotice{ChannelID: change.TargetID, UserIDs: change.UserIDs, ActorID: change.ActorID}
		room := RoomID(change.TargetID)
		if change.Added {
			return m.Sync.PropagateMembershipAdd(ctx, room, change.UserIDs,
				models.Event{Type: models.EventAddUserToChannel, Data: notice}, exclude)
		}
		return m.Sync.PropagateMembershipRemove(ctx, room, change.UserIDs,
			models.Event{Type: models.EventRemoveUserFromChannel, Data: notice}, exclude)

	case models.ScopeWorkspace:
		notice := models.WorkspaceMembershipNotice{WorkspaceID: change.TargetID, UserIDs: change.UserIDs, ActorID: change.ActorID}
		name := models.EventRemoveUserFromWorkspace
		if change.Added {
			name = models.EventAddUserToWorkspace
		}
		return m.Dispatcher.NotifyUsers(ctx, change.UserIDs, models.Event{Type: name, Data: notice}, exclude)
	}

	m.log.WithField("scope", change.Scope).Warn("Ignoring membership change with unknown scope")
	return 0
}

// Shutdown detaches every live session. It stops early when ctx ends.
func (m *ManagerService) Shutdown(ctx context.Context) error {
	m.sessions.Range(func(_, v any) bool {
		m.Detach(v.(*Session))
		return ctx.Err() == nil
	})
	return ctx.Err()
}
