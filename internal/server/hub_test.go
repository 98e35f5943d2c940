package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestMember(connID, userID string, buffer int) *member {
	return &member{connID: connID, userID: userID, send: make(chan []byte, buffer)}
}

func TestHubBroadcastReachesAllConnections(t *testing.T) {
	h := newHub()
	m1 := newTestMember("c1", "u1", 4)
	m2 := newTestMember("c2", "u2", 4)
	h.add("room1", m1)
	h.add("room1", m2)
	h.add("room2", newTestMember("c3", "u3", 4))

	h.broadcast("room1", []byte("hello"))

	assert.Equal(t, "hello", string(<-m1.send))
	assert.Equal(t, "hello", string(<-m2.send))
	assert.Empty(t, h.rooms["room2"]["c3"].send)
}

func TestHubSendToUserHitsEveryConnectionOfThatUser(t *testing.T) {
	h := newHub()
	tab1 := newTestMember("c1", "u1", 4)
	tab2 := newTestMember("c2", "u1", 4)
	other := newTestMember("c3", "u2", 4)
	h.add("room1", tab1)
	h.add("room1", tab2)
	h.add("room1", other)

	h.sendToUser("room1", "u1", []byte("private"))

	assert.Len(t, tab1.send, 1)
	assert.Len(t, tab2.send, 1)
	assert.Empty(t, other.send)
}

func TestHubFullBufferDoesNotBlock(t *testing.T) {
	h := newHub()
	m := newTestMember("c1", "u1", 1)
	h.add("room1", m)

	h.broadcast("room1", []byte("one"))
	h.broadcast("room1", []byte("two")) // dropped, buffer is full

	assert.Equal(t, "one", string(<-m.send))
	assert.Empty(t, m.send)
}

func TestHubRemoveClosesAndPrunes(t *testing.T) {
	h := newHub()
	m := newTestMember("c1", "u1", 1)
	h.add("room1", m)

	h.remove("room1", "c1")
	_, open := <-m.send
	assert.False(t, open, "send channel must be closed on remove")
	assert.NotContains(t, h.rooms, "room1")

	// Removing again is a no-op.
	h.remove("room1", "c1")
}
