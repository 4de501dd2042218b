package chathub

import (
	"hash/fnv"
	"sync"
	"time"
)

// DefaultShards is the shard count used when none is configured.
const DefaultShards = 32

// Registry maps each user to the set of their live connections.
// Entries are spread over shards keyed by user ID, so mutations for one user
// never wait on traffic for users in other shards.
type Registry struct {
	shards []registryShard
	mask   uint32

	statsLock    sync.Mutex
	conns        int
	maxConns     int
	maxConnsTime time.Time
	createdTime  time.Time
}

type registryShard struct {
	lock    sync.RWMutex
	entries map[string]map[ConnectionHandle]Conn
}

// NewRegistry creates a registry with n shards, rounded up to a power of two.
func NewRegistry(n int) *Registry {
	n = shardCount(n)
	r := &Registry{
		shards:      make([]registryShard, n),
		mask:        uint32(n - 1),
		createdTime: time.Now(),
	}
	for i := range r.shards {
		r.shards[i].entries = make(map[string]map[ConnectionHandle]Conn)
	}
	return r
}

func shardCount(n int) int {
	if n <= 0 {
		n = DefaultShards
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func shardIndex(key string, mask uint32) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() & mask
}

func (r *Registry) shard(userID string) *registryShard {
	return &r.shards[shardIndex(userID, r.mask)]
}

// AddConnection records c under its user. Adding the same handle twice is a no-op.
// It reports whether the handle was new.
func (r *Registry) AddConnection(c Conn) bool {
	s := r.shard(c.UserID())
	s.lock.Lock()
	conns, ok := s.entries[c.UserID()]
	if !ok {
		conns = make(map[ConnectionHandle]Conn)
		s.entries[c.UserID()] = conns
	}
	_, exists := conns[c.Handle()]
	conns[c.Handle()] = c
	s.lock.Unlock()

	if !exists {
		r.countConn(1)
	}
	return !exists
}

// RemoveConnection forgets handle h of userID and prunes the user's entry
// once it is empty. It reports whether the handle was present.
func (r *Registry) RemoveConnection(userID string, h ConnectionHandle) bool {
	s := r.shard(userID)
	s.lock.Lock()
	conns, ok := s.entries[userID]
	if ok {
		_, ok = conns[h]
		delete(conns, h)
		if len(conns) == 0 {
			delete(s.entries, userID)
		}
	}
	s.lock.Unlock()

	if ok {
		r.countConn(-1)
	}
	return ok
}

// ConnectionsOf returns a snapshot of userID's live connections.
// Unknown users yield an empty slice.
func (r *Registry) ConnectionsOf(userID string) []Conn {
	s := r.shard(userID)
	s.lock.RLock()
	defer s.lock.RUnlock()

	conns := s.entries[userID]
	out := make([]Conn, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// Online reports whether userID has at least one live connection.
func (r *Registry) Online(userID string) bool {
	s := r.shard(userID)
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.entries[userID]) > 0
}

// All returns a snapshot of every live connection.
func (r *Registry) All() []Conn {
	var out []Conn
	for i := range r.shards {
		s := &r.shards[i]
		s.lock.RLock()
		for _, conns := range s.entries {
			for _, c := range conns {
				out = append(out, c)
			}
		}
		s.lock.RUnlock()
	}
	return out
}

// NumUsers returns how many users have at least one live connection.
func (r *Registry) NumUsers() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.lock.RLock()
		n += len(s.entries)
		s.lock.RUnlock()
	}
	return n
}

func (r *Registry) countConn(delta int) {
	r.statsLock.Lock()
	defer r.statsLock.Unlock()

	r.conns += delta
	if r.conns > r.maxConns {
		r.maxConns = r.conns
		r.maxConnsTime = time.Now()
	}
}
