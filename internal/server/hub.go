package server

import (
	"sync"
)

// member is one websocket connection bound to a room user. A user may hold
// several connections (reloads, multiple tabs); each gets its own entry.
type member struct {
	connID string
	userID string
	send   chan []byte
}

// hub tracks the live connections of every room for broadcasting.
type hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*member // code -> connID -> member
}

func newHub() *hub {
	return &hub{rooms: make(map[string]map[string]*member)}
}

func (h *hub) add(code string, m *member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[code]
	if !ok {
		conns = make(map[string]*member)
		h.rooms[code] = conns
	}
	conns[m.connID] = m
}

func (h *hub) remove(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[code]
	if !ok {
		return
	}
	if m, ok := conns[connID]; ok {
		close(m.send)
		delete(conns, connID)
	}
	if len(conns) == 0 {
		delete(h.rooms, code)
	}
}

// broadcast pushes msg to every connection in the room. Sends never block;
// a connection with a full buffer misses the frame and catches up on the
// next broadcast.
func (h *hub) broadcast(code string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.rooms[code] {
		select {
		case m.send <- msg:
		default:
		}
	}
}

// sendToUser pushes msg to every connection the user holds in the room.
func (h *hub) sendToUser(code, userID string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.rooms[code] {
		if m.userID != userID {
			continue
		}
		select {
		case m.send <- msg:
		default:
		}
	}
}
