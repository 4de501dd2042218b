package chathub

import (
	"context"
	"sync"
	"teamchat/backend/internal/models"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Synchronizer keeps live room membership in step with channel membership:
// on connect, on disconnect, and when members are added or removed.
//
// The connect-time join of a user and membership changes for the same user
// hold the same user lock, so a change applied while the channel list is
// being loaded is never overwritten by the stale list.
type Synchronizer struct {
	registry   *Registry
	rooms      *Rooms
	dispatcher *Dispatcher
	membership ChannelMembership
	log        *logrus.Logger

	userLocks []sync.Mutex
	mask      uint32
}

func NewSynchronizer(registry *Registry, rooms *Rooms, dispatcher *Dispatcher, membership ChannelMembership, log *logrus.Logger) *Synchronizer {
	return &Synchronizer{
		registry:   registry,
		rooms:      rooms,
		dispatcher: dispatcher,
		membership: membership,
		log:        log,
		userLocks:  make([]sync.Mutex, len(registry.shards)),
		mask:       registry.mask,
	}
}

// lockUser locks the shard of userID and returns its unlock.
func (s *Synchronizer) lockUser(userID string) func() {
	l := &s.userLocks[shardIndex(userID, s.mask)]
	l.Lock()
	return l.Unlock
}

// JoinUserRooms joins c to one room per channel its user belongs to.
func (s *Synchronizer) JoinUserRooms(ctx context.Context, c Conn) error {
	unlock := s.lockUser(c.UserID())
	defer unlock()

	channels, err := s.membership.GetChannelsOfUser(ctx, c.UserID())
	if err != nil {
		return errors.Wrapf(err, "load channels of %s", c.UserID())
	}

	s.rooms.Track(c)
	for _, ch := range channels {
		s.rooms.Join(c.Handle(), RoomID(ch))
	}
	s.log.WithFields(logrus.Fields{
		"user_id": c.UserID(),
		"conn_id": c.Handle(),
		"rooms":   len(channels),
	}).Debug("Joined user rooms")
	return nil
}

// LeaveUserRooms leaves every room h is joined to, as recorded in the live
// room table, and returns them.
func (s *Synchronizer) LeaveUserRooms(h ConnectionHandle) []RoomID {
	return s.rooms.LeaveAll(h)
}

// PropagateMembershipAdd joins every live connection of userIDs to room and
// pushes notice to them. Users without live connections are skipped; they
// pick the room up on their next connect.
func (s *Synchronizer) PropagateMembershipAdd(ctx context.Context, room RoomID, userIDs []string, notice models.Event, exclude ConnectionHandle) int {
	return s.propagate(ctx, room, userIDs, notice, exclude, s.rooms.Join)
}

// PropagateMembershipRemove leaves room on every live connection of userIDs
// and pushes notice to them.
func (s *Synchronizer) PropagateMembershipRemove(ctx context.Context, room RoomID, userIDs []string, notice models.Event, exclude ConnectionHandle) int {
	return s.propagate(ctx, room, userIDs, notice, exclude, func(h ConnectionHandle, room RoomID) bool {
		s.rooms.Leave(h, room)
		return true
	})
}

func (s *Synchronizer) propagate(ctx context.Context, room RoomID, userIDs []string, notice models.Event, exclude ConnectionHandle, apply func(ConnectionHandle, RoomID) bool) int {
	var affected []Conn
	for _, userID := range lo.Uniq(userIDs) {
		unlock := s.lockUser(userID)
		for _, c := range s.registry.ConnectionsOf(userID) {
			if apply(c.Handle(), room) {
				affected = append(affected, c)
			}
		}
		unlock()
	}
	affected = lo.UniqBy(affected, func(c Conn) ConnectionHandle { return c.Handle() })
	s.log.WithFields(logrus.Fields{
		"room_id":     room,
		"users":       len(userIDs),
		"connections": len(affected),
	}).Debug("Propagated membership change")
	return s.dispatcher.Deliver(ctx, affected, notice, exclude)
}
