package chathub

import (
	"sync"
	"time"
)

// Rooms is the live room-membership table: which connections are joined to
// which rooms. It is the source of truth for leaving rooms on disconnect.
//
// Each tracked connection has its own state lock. Lock order is always
// connection state first, then room shard, so a connection that is being
// closed cannot be joined to a room behind LeaveAll's back.
type Rooms struct {
	rooms []roomShard
	conns []connShard
	mask  uint32

	statsLock    sync.Mutex
	numRooms     int
	maxRooms     int
	maxRoomsTime time.Time
}

type roomShard struct {
	lock    sync.RWMutex
	members map[RoomID]map[ConnectionHandle]Conn
}

type connShard struct {
	lock   sync.Mutex
	states map[ConnectionHandle]*connState
}

type connState struct {
	lock   sync.Mutex
	conn   Conn
	rooms  map[RoomID]struct{}
	closed bool
}

// NewRooms creates a room table with n shards, rounded up to a power of two.
func NewRooms(n int) *Rooms {
	n = shardCount(n)
	r := &Rooms{
		rooms: make([]roomShard, n),
		conns: make([]connShard, n),
		mask:  uint32(n - 1),
	}
	for i := 0; i < n; i++ {
		r.rooms[i].members = make(map[RoomID]map[ConnectionHandle]Conn)
		r.conns[i].states = make(map[ConnectionHandle]*connState)
	}
	return r
}

func (r *Rooms) roomShard(id RoomID) *roomShard {
	return &r.rooms[shardIndex(string(id), r.mask)]
}

func (r *Rooms) connShard(h ConnectionHandle) *connShard {
	return &r.conns[shardIndex(string(h), r.mask)]
}

func (r *Rooms) state(h ConnectionHandle) *connState {
	s := r.connShard(h)
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.states[h]
}

// Track starts tracking c so it can join rooms. Tracking twice is a no-op.
func (r *Rooms) Track(c Conn) {
	s := r.connShard(c.Handle())
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.states[c.Handle()]; !ok {
		s.states[c.Handle()] = &connState{conn: c, rooms: make(map[RoomID]struct{})}
	}
}

// Join adds the connection h to room. It reports false when h is not tracked
// or has already left everything.
func (r *Rooms) Join(h ConnectionHandle, room RoomID) bool {
	st := r.state(h)
	if st == nil {
		return false
	}

	st.lock.Lock()
	defer st.lock.Unlock()
	if st.closed {
		return false
	}
	if _, ok := st.rooms[room]; ok {
		return true
	}
	st.rooms[room] = struct{}{}

	rs := r.roomShard(room)
	rs.lock.Lock()
	members, ok := rs.members[room]
	if !ok {
		members = make(map[ConnectionHandle]Conn)
		rs.members[room] = members
	}
	members[h] = st.conn
	rs.lock.Unlock()

	if !ok {
		r.countRoom(1)
	}
	return true
}

// Leave removes h from room. Leaving a room h is not in is a no-op.
func (r *Rooms) Leave(h ConnectionHandle, room RoomID) {
	st := r.state(h)
	if st == nil {
		return
	}

	st.lock.Lock()
	defer st.lock.Unlock()
	if _, ok := st.rooms[room]; !ok {
		return
	}
	delete(st.rooms, room)
	r.removeMember(room, h)
}

// LeaveAll removes h from every room it joined, stops tracking it and
// returns the rooms it left. Later Joins for h are refused.
func (r *Rooms) LeaveAll(h ConnectionHandle) []RoomID {
	cs := r.connShard(h)
	cs.lock.Lock()
	st := cs.states[h]
	delete(cs.states, h)
	cs.lock.Unlock()
	if st == nil {
		return nil
	}

	st.lock.Lock()
	defer st.lock.Unlock()
	st.closed = true
	left := make([]RoomID, 0, len(st.rooms))
	for room := range st.rooms {
		r.removeMember(room, h)
		left = append(left, room)
	}
	st.rooms = nil
	return left
}

func (r *Rooms) removeMember(room RoomID, h ConnectionHandle) {
	rs := r.roomShard(room)
	rs.lock.Lock()
	pruned := false
	if members, ok := rs.members[room]; ok {
		delete(members, h)
		if len(members) == 0 {
			delete(rs.members, room)
			pruned = true
		}
	}
	rs.lock.Unlock()

	if pruned {
		r.countRoom(-1)
	}
}

// Members returns a snapshot of the connections joined to room.
func (r *Rooms) Members(room RoomID) []Conn {
	rs := r.roomShard(room)
	rs.lock.RLock()
	defer rs.lock.RUnlock()

	members := rs.members[room]
	out := make([]Conn, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// RoomsOf returns the rooms h is currently joined to.
func (r *Rooms) RoomsOf(h ConnectionHandle) []RoomID {
	st := r.state(h)
	if st == nil {
		return nil
	}

	st.lock.Lock()
	defer st.lock.Unlock()
	out := make([]RoomID, 0, len(st.rooms))
	for room := range st.rooms {
		out = append(out, room)
	}
	return out
}

// IsMember reports whether h is joined to room.
func (r *Rooms) IsMember(h ConnectionHandle, room RoomID) bool {
	rs := r.roomShard(room)
	rs.lock.RLock()
	defer rs.lock.RUnlock()
	_, ok := rs.members[room][h]
	return ok
}

func (r *Rooms) countRoom(delta int) {
	r.statsLock.Lock()
	defer r.statsLock.Unlock()

	r.numRooms += delta
	if r.numRooms > r.maxRooms {
		r.maxRooms = r.numRooms
		r.maxRoomsTime = time.Now()
	}
}
