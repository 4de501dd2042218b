package chathub

import (
	"context"
	"sync"
	"sync/atomic"
	"teamchat/backend/internal/models"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// DefaultPushTimeout bounds how long a single push may wait on a full send buffer.
const DefaultPushTimeout = 5 * time.Second

// TargetKind tells a Direct target from a Room target.
type TargetKind int

const (
	TargetDirect TargetKind = iota
	TargetRoom
)

// Target is where an event goes: every connection of one user, or every
// connection joined to one room. Never both.
type Target struct {
	Kind   TargetKind
	UserID string
	Room   RoomID
}

// Direct targets every live connection of userID.
func Direct(userID string) Target { return Target{Kind: TargetDirect, UserID: userID} }

// Room targets every connection currently joined to room.
func Room(room RoomID) Target { return Target{Kind: TargetRoom, Room: room} }

// TargetsFor computes where a message event is delivered.
func TargetsFor(ev *models.MessageEvent) []Target {
	if ev.Kind == models.MessageDeleted && !ev.DeleteForEveryone {
		// A private hide concerns only the actor's own devices.
		return []Target{Direct(ev.ActorID)}
	}
	if ev.IsChannel {
		return []Target{Room(RoomID(ev.ReceiverID))}
	}
	if ev.Kind == models.MessageSent {
		// The sender sees its own send through the Success acknowledgment.
		return []Target{Direct(ev.ReceiverID)}
	}
	return []Target{Direct(ev.ReceiverID), Direct(ev.SenderID)}
}

// EventFor builds the client-facing event for a message event.
func EventFor(ev *models.MessageEvent) models.Event {
	switch ev.Kind {
	case models.MessageUpdated:
		return models.Event{Type: models.EventUpdateMessage, Data: ev.Message}
	case models.MessageDeleted:
		return models.Event{Type: models.EventDeleteMessage, Data: deleteNotice(ev)}
	default:
		return models.Event{Type: models.EventReceiveMessage, Data: ev.Message}
	}
}

func deleteNotice(ev *models.MessageEvent) models.DeleteNotice {
	return models.DeleteNotice{
		MessageID:         ev.Message.ID,
		ReceiverID:        ev.ReceiverID,
		IsChannel:         ev.IsChannel,
		DeleteForEveryone: ev.DeleteForEveryone,
	}
}

// Dispatcher resolves targets to live connections and pushes events to them.
type Dispatcher struct {
	registry    *Registry
	rooms       *Rooms
	log         *logrus.Logger
	pushTimeout time.Duration
}

func NewDispatcher(registry *Registry, rooms *Rooms, log *logrus.Logger, pushTimeout time.Duration) *Dispatcher {
	if pushTimeout <= 0 {
		pushTimeout = DefaultPushTimeout
	}
	return &Dispatcher{
		registry:    registry,
		rooms:       rooms,
		log:         log,
		pushTimeout: pushTimeout,
	}
}

// Resolve returns the live connections behind targets, each at most once.
func (d *Dispatcher) Resolve(targets ...Target) []Conn {
	var conns []Conn
	for _, t := range targets {
		switch t.Kind {
		case TargetDirect:
			conns = append(conns, d.registry.ConnectionsOf(t.UserID)...)
		case TargetRoom:
			conns = append(conns, d.rooms.Members(t.Room)...)
		}
	}
	return lo.UniqBy(conns, func(c Conn) ConnectionHandle { return c.Handle() })
}

// Dispatch fans a message event out to everyone it concerns except the
// connection exclude. It returns how many connections accepted the push.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *models.MessageEvent, exclude ConnectionHandle) int {
	return d.Deliver(ctx, d.Resolve(TargetsFor(ev)...), EventFor(ev), exclude)
}

// NotifyUsers pushes ev to every live connection of userIDs except exclude.
func (d *Dispatcher) NotifyUsers(ctx context.Context, userIDs []string, ev models.Event, exclude ConnectionHandle) int {
	targets := lo.Map(lo.Uniq(userIDs), func(id string, _ int) Target { return Direct(id) })
	return d.Deliver(ctx, d.Resolve(targets...), ev, exclude)
}

// Deliver pushes ev to conns, skipping exclude. Pushes run concurrently under
// one shared push timeout, so a stuck recipient delays the others by at most
// that timeout. Cancelling ctx does not stop it. Failures are logged, never
// returned.
func (d *Dispatcher) Deliver(ctx context.Context, conns []Conn, ev models.Event, exclude ConnectionHandle) int {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.pushTimeout)
	defer cancel()

	var (
		wg        sync.WaitGroup
		delivered atomic.Int32
	)
	for _, c := range conns {
		if c.Handle() == exclude {
			continue
		}
		wg.Add(1)
		go func(c Conn) {
			defer wg.Done()
			if d.push(ctx, c, ev) {
				delivered.Add(1)
			}
		}(c)
	}
	wg.Wait()
	return int(delivered.Load())
}

// Push delivers ev to a single connection within the push timeout. A connection
// whose buffer stays full for the whole timeout is closed as a slow consumer.
func (d *Dispatcher) Push(ctx context.Context, c Conn, ev models.Event) bool {
	ctx, cancel := context.WithTimeout(ctx, d.pushTimeout)
	defer cancel()
	return d.push(ctx, c, ev)
}

func (d *Dispatcher) push(ctx context.Context, c Conn, ev models.Event) bool {
	err := c.Push(ctx, ev)
	if err == nil {
		return true
	}

	fields := logrus.Fields{"user_id": c.UserID(), "conn_id": c.Handle(), "event": ev.Type}
	switch {
	case errors.Is(err, ErrConnClosed), errors.Is(err, context.Canceled):
		d.log.WithFields(fields).Debug("Skipping push to closed connection")
	case errors.Is(err, context.DeadlineExceeded):
		d.log.WithFields(fields).Warn("Send buffer full, closing slow connection")
		c.Close()
	default:
		d.log.WithFields(fields).WithError(err).Warn("Push failed")
	}
	return false
}
