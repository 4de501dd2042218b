package chathub_test

import (
	"sync"
	"teamchat/backend/internal/chathub"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRooms_JoinRequiresTracking(t *testing.T) {
	rooms := chathub.NewRooms(4)
	c := newMockClient("u1")

	assert.False(t, rooms.Join(c.Handle(), "c1"))

	rooms.Track(c)
	assert.True(t, rooms.Join(c.Handle(), "c1"))
	assert.True(t, rooms.Join(c.Handle(), "c1"), "joining twice is fine")
	assert.True(t, rooms.IsMember(c.Handle(), "c1"))
	assert.Equal(t, []chathub.ConnectionHandle{c.Handle()}, handlesOf(rooms.Members("c1")))
}

func TestRooms_Leave(t *testing.T) {
	rooms := chathub.NewRooms(4)
	a, b := newMockClient("u1"), newMockClient("u2")
	rooms.Track(a)
	rooms.Track(b)
	rooms.Join(a.Handle(), "c1")
	rooms.Join(b.Handle(), "c1")

	rooms.Leave(a.Handle(), "c1")
	rooms.Leave(a.Handle(), "c1")
	rooms.Leave(a.Handle(), "other")

	assert.False(t, rooms.IsMember(a.Handle(), "c1"))
	assert.Equal(t, []chathub.ConnectionHandle{b.Handle()}, handlesOf(rooms.Members("c1")))
	assert.Empty(t, rooms.RoomsOf(a.Handle()))
}

func TestRooms_LeaveAllUsesLiveMembership(t *testing.T) {
	rooms := chathub.NewRooms(4)
	c := newMockClient("u1")
	rooms.Track(c)
	rooms.Join(c.Handle(), "c1")
	rooms.Join(c.Handle(), "c2")
	rooms.Join(c.Handle(), "c3")
	rooms.Leave(c.Handle(), "c2")

	left := rooms.LeaveAll(c.Handle())

	assert.ElementsMatch(t, []chathub.RoomID{"c1", "c3"}, left)
	for _, room := range []chathub.RoomID{"c1", "c2", "c3"} {
		assert.Empty(t, rooms.Members(room))
	}
	assert.False(t, rooms.Join(c.Handle(), "c1"), "a handle that left everything cannot rejoin")
	assert.Nil(t, rooms.LeaveAll(c.Handle()))
}

func TestRooms_ConcurrentJoinAndLeaveAll(t *testing.T) {
	rooms := chathub.NewRooms(8)
	roomIDs := []chathub.RoomID{"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7"}

	for i := 0; i < 50; i++ {
		c := newMockClient("u1")
		rooms.Track(c)

		var wg sync.WaitGroup
		for _, room := range roomIDs {
			wg.Add(1)
			go func(room chathub.RoomID) {
				defer wg.Done()
				rooms.Join(c.Handle(), room)
			}(room)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			rooms.LeaveAll(c.Handle())
		}()
		wg.Wait()

		for _, room := range roomIDs {
			assert.False(t, rooms.IsMember(c.Handle(), room), "handle %s left behind in %s", c.Handle(), room)
		}
	}
}
