package game

import (
	"context"
	"log"
	"time"

	"github.com/unoroom/server/internal/models"
)

// armTimer schedules the stall timer for playerID. At most one timer is
// armed per player; re-arming cancels the previous one first. Assumes the
// session lock is held.
func (m *Manager) armTimer(s *session, playerID string) {
	if m.TurnTimeout <= 0 || playerID == "" {
		return
	}
	if t, ok := s.timers[playerID]; ok {
		t.Stop()
	}
	seq := s.seq
	code := s.code
	s.timers[playerID] = time.AfterFunc(m.TurnTimeout, func() {
		m.handleTimeout(code, playerID, seq)
	})
}

// disarmTimer cancels any pending timer for playerID. Cancelling a timer
// that already fired or was never armed is a no-op. Assumes the session
// lock is held.
func (m *Manager) disarmTimer(s *session, playerID string) {
	if t, ok := s.timers[playerID]; ok {
		t.Stop()
		delete(s.timers, playerID)
	}
}

// stopAllTimers disarms every pending timer for a session. Assumes the
// session lock is held.
func (m *Manager) stopAllTimers(s *session) {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// handleTimeout runs when a stall timer fires: it synthesizes a forced
// draw of one card and passes the turn. It goes through the same per-room
// serialization as submitted moves; a timer that lost the race to a real
// move sees a bumped seq and backs off. There is no requester to report
// to, so failures are logged and the room keeps its last persisted state.
func (m *Manager) handleTimeout(code, playerID string, seq int) {
	s := m.session(code)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq != seq {
		return
	}
	delete(s.timers, playerID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	room, err := m.store.LoadRoomByCode(ctx, code)
	if err != nil {
		log.Printf("room %s: timeout fired but room load failed: %v", code, err)
		return
	}
	if room.Status != models.StatusInProgress || room.Options.CurrentUser != playerID {
		return
	}

	drawCards(room, s.rng, playerID, 1)
	shiftTurn(room, playerID, 1)

	if err := m.store.SaveRoom(ctx, room); err != nil {
		log.Printf("room %s: timeout move save failed: %v", code, err)
		return
	}
	s.seq++
	log.Printf("room %s: player %s timed out, forced draw and pass", code, playerID)
	m.recordAction(code, playerID, "player_timeout", nil)
	m.broadcast(room)
	m.armTimer(s, room.Options.CurrentUser)
}
