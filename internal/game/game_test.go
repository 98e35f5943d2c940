package game_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unoroom/server/internal/database"
	"github.com/unoroom/server/internal/game"
	"github.com/unoroom/server/internal/models"
)

type mockBroadcaster struct {
	mu       sync.Mutex
	publics  []game.PublicState
	privates map[string][]game.PrivateState
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{privates: make(map[string][]game.PrivateState)}
}

func (b *mockBroadcaster) public(_ string, st game.PublicState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publics = append(b.publics, st)
}

func (b *mockBroadcaster) private(_ string, playerID string, st game.PrivateState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.privates[playerID] = append(b.privates[playerID], st)
}

func (b *mockBroadcaster) publicCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.publics)
}

func (b *mockBroadcaster) lastPublic() game.PublicState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.publics[len(b.publics)-1]
}

func (b *mockBroadcaster) privateCount(playerID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.privates[playerID])
}

type mockRecorder struct {
	mu      sync.Mutex
	records []game.ActionRecord
}

func (r *mockRecorder) Publish(_ context.Context, rec game.ActionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *mockRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Action
	}
	return out
}

func seedRoom(t *testing.T, store *database.MemoryStore, code string, players int) *models.Room {
	t.Helper()
	room := &models.Room{
		Code:    code,
		Status:  models.StatusCreated,
		Created: time.Now(),
	}
	for i := 0; i < players; i++ {
		room.Users = append(room.Users, models.RoomUser{
			User: models.User{ID: pid(i), Name: "player" + pid(i), IsHost: i == 0},
		})
	}
	require.NoError(t, store.SaveRoom(context.Background(), room))
	return room
}

func pid(i int) string {
	return string(rune('a' + i))
}

// seedInProgress stores a minimal running game with fixed hands so move
// outcomes are deterministic.
func seedInProgress(t *testing.T, store *database.MemoryStore, code string) {
	t.Helper()
	room := seedRoom(t, store, code, 3)
	room.Status = models.StatusInProgress
	room.Options.Order = models.OrderForward
	room.Options.CurrentUser = "a"
	room.Users[0].Cards = []string{"red-1-a", "red-2-a", "red-3-a"}
	room.Users[1].Cards = []string{"blue-1-a", "blue-2-a", "blue-3-a"}
	room.Users[2].Cards = []string{"green-1-a", "green-2-a", "green-3-a"}
	room.Options.Deck = []string{"yellow-1-a", "yellow-2-a", "yellow-3-a", "yellow-4-a", "yellow-5-a", "yellow-6-a", "yellow-7-a"}
	room.Options.Discard = []string{"red-0"}
	require.NoError(t, store.SaveRoom(context.Background(), room))
}

func TestInitGameDealsFullGame(t *testing.T) {
	store := database.NewMemoryStore()
	seedRoom(t, store, "room1", 4)

	b := newMockBroadcaster()
	rec := &mockRecorder{}
	m := game.NewManager(store, rec)
	m.TurnTimeout = 0
	m.BroadcastFn = b.public
	m.BroadcastToPlayerFn = b.private

	require.NoError(t, m.InitGame(context.Background(), "room1"))

	room, err := store.LoadRoomByCode(context.Background(), "room1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, room.Status)
	assert.Equal(t, models.OrderForward, room.Options.Order)
	assert.Equal(t, "a", room.Options.CurrentUser)
	for _, u := range room.Users {
		assert.Len(t, u.Cards, 7)
	}
	assert.Len(t, room.Options.Discard, 1)
	assert.Len(t, room.Options.Deck, 108-4*7-1)

	// A wild seed card always comes with a concrete active color.
	if room.Options.ChosenColor != "" {
		assert.Contains(t, models.Colors[:], room.Options.ChosenColor)
	}

	assert.Equal(t, 1, b.publicCount())
	for _, u := range room.Users {
		assert.Equal(t, 1, b.privateCount(u.User.ID))
	}
	assert.Eventually(t, func() bool {
		for _, a := range rec.actions() {
			if a == "game_init" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestInitGameSecondCallIsNoop(t *testing.T) {
	store := database.NewMemoryStore()
	seedRoom(t, store, "room1", 2)

	m := game.NewManager(store, nil)
	m.TurnTimeout = 0
	require.NoError(t, m.InitGame(context.Background(), "room1"))
	saves := store.Saves()

	require.NoError(t, m.InitGame(context.Background(), "room1"))
	assert.Equal(t, saves, store.Saves(), "re-init must not touch a running game")
}

func TestInitGameEmptyRoom(t *testing.T) {
	store := database.NewMemoryStore()
	seedRoom(t, store, "room1", 0)

	m := game.NewManager(store, nil)
	err := m.InitGame(context.Background(), "room1")
	var verr *game.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestInitGameRoomNotFound(t *testing.T) {
	m := game.NewManager(database.NewMemoryStore(), nil)
	err := m.InitGame(context.Background(), "nope")
	var nf *game.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestMoveRejectsWrongStatus(t *testing.T) {
	store := database.NewMemoryStore()
	seedRoom(t, store, "room1", 2)

	m := game.NewManager(store, nil)
	err := m.Move(context.Background(), "room1", "a", models.MoveRequest{Action: models.MoveCommon})
	var verr *game.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestMoveRejectsWrongActor(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")

	m := game.NewManager(store, nil)
	m.TurnTimeout = 0
	saves := store.Saves()

	err := m.Move(context.Background(), "room1", "b", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "blue-1-a"},
	})
	var aerr *game.AuthorizationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, saves, store.Saves(), "rejected move must not persist")
}

func TestMoveAppliesAndBroadcasts(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")

	b := newMockBroadcaster()
	m := game.NewManager(store, nil)
	m.TurnTimeout = 0
	m.BroadcastFn = b.public
	m.BroadcastToPlayerFn = b.private

	err := m.Move(context.Background(), "room1", "a", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "red-1-a"},
	})
	require.NoError(t, err)

	room, err := store.LoadRoomByCode(context.Background(), "room1")
	require.NoError(t, err)
	assert.Equal(t, "b", room.Options.CurrentUser)
	assert.Equal(t, []string{"red-2-a", "red-3-a"}, room.Users[0].Cards)
	assert.Equal(t, "red-1-a", room.Options.Discard[len(room.Options.Discard)-1])

	require.Equal(t, 1, b.publicCount())
	st := b.lastPublic()
	assert.Equal(t, "b", st.CurrentUser)
	require.NotNil(t, st.Discard)
	assert.Equal(t, "red-1-a", st.Discard.ID)
	assert.Equal(t, 2, st.Users[0].CardsCount)
}

func TestMoveWinEndsGame(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")
	room, err := store.LoadRoomByCode(context.Background(), "room1")
	require.NoError(t, err)
	room.Users[0].Cards = []string{"red-1-a"}
	require.NoError(t, store.SaveRoom(context.Background(), room))

	m := game.NewManager(store, nil)
	m.TurnTimeout = 0
	err = m.Move(context.Background(), "room1", "a", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "red-1-a"},
	})
	require.NoError(t, err)

	room, err = store.LoadRoomByCode(context.Background(), "room1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnded, room.Status)

	// The room is terminal. No further moves are accepted.
	err = m.Move(context.Background(), "room1", "b", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "blue-1-a"},
	})
	var verr *game.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRemovePlayerCurrent(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")

	m := game.NewManager(store, nil)
	m.TurnTimeout = 0
	require.NoError(t, m.RemovePlayer(context.Background(), "room1", "a"))

	room, err := store.LoadRoomByCode(context.Background(), "room1")
	require.NoError(t, err)
	assert.Equal(t, -1, room.FindUser("a"))
	assert.Len(t, room.Users, 2)
	// The turn moved to the next seat before the removal.
	assert.Equal(t, "b", room.Options.CurrentUser)
	// The leaver's cards are back in circulation.
	assert.Contains(t, room.Options.Deck, "red-1-a")
	assert.Contains(t, room.Options.Deck, "red-2-a")
	assert.Contains(t, room.Options.Deck, "red-3-a")
}

func TestRemovePlayerBeforeStartKeepsHandsOut(t *testing.T) {
	store := database.NewMemoryStore()
	seedRoom(t, store, "room1", 3)

	m := game.NewManager(store, nil)
	require.NoError(t, m.RemovePlayer(context.Background(), "room1", "b"))

	room, err := store.LoadRoomByCode(context.Background(), "room1")
	require.NoError(t, err)
	assert.Len(t, room.Users, 2)
	assert.Empty(t, room.Options.Deck)
}

func TestRemovePlayerUnknown(t *testing.T) {
	store := database.NewMemoryStore()
	seedRoom(t, store, "room1", 2)

	m := game.NewManager(store, nil)
	err := m.RemovePlayer(context.Background(), "room1", "ghost")
	var nf *game.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestTurnTimeoutForcesDrawAndPass(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")

	b := newMockBroadcaster()
	m := game.NewManager(store, nil)
	m.TurnTimeout = 20 * time.Millisecond
	m.BroadcastFn = b.public
	m.BroadcastToPlayerFn = b.private

	// Any accepted mutation arms the stall timer for the next player.
	err := m.Move(context.Background(), "room1", "a", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "red-1-a"},
	})
	require.NoError(t, err)

	// The timer keeps re-arming for each next player, so only check the
	// monotonic effect: the stalled player's hand grew by a forced draw.
	assert.Eventually(t, func() bool {
		room, err := store.LoadRoomByCode(context.Background(), "room1")
		if err != nil {
			return false
		}
		return len(room.Users[1].Cards) > 3
	}, 2*time.Second, 10*time.Millisecond, "stalled player must draw and pass")

	m.Forget("room1")
}

func TestMoveDisarmsPendingTimer(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")

	m := game.NewManager(store, nil)
	m.TurnTimeout = 60 * time.Millisecond

	require.NoError(t, m.Move(context.Background(), "room1", "a", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "red-1-a"},
	}))
	require.NoError(t, m.Move(context.Background(), "room1", "b", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "blue-1-a"},
	}))
	m.Forget("room1")
	time.Sleep(120 * time.Millisecond)

	room, err := store.LoadRoomByCode(context.Background(), "room1")
	require.NoError(t, err)
	// Neither mover was hit by a stale forced draw.
	assert.Len(t, room.Users[0].Cards, 2)
	assert.Len(t, room.Users[1].Cards, 2)
	assert.Equal(t, "c", room.Options.CurrentUser)
}

func TestRejectedMoveKeepsStallTimerLive(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")

	m := game.NewManager(store, nil)
	m.TurnTimeout = 20 * time.Millisecond

	// Accepted move by "a" arms "b"'s stall timer.
	require.NoError(t, m.Move(context.Background(), "room1", "a", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "red-1-a"},
	}))

	// "b" submits a card they do not hold. The rejection must not disarm
	// their timer, or a single invalid move would let them stall forever.
	err := m.Move(context.Background(), "room1", "b", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "red-9-a"},
	})
	var verr *game.ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Eventually(t, func() bool {
		room, err := store.LoadRoomByCode(context.Background(), "room1")
		if err != nil {
			return false
		}
		return len(room.Users[1].Cards) > 3
	}, 2*time.Second, 10*time.Millisecond, "stall timer must still fire after a rejected move")

	m.Forget("room1")
}

func TestRemoveBystanderKeepsStallTimerLive(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")

	m := game.NewManager(store, nil)
	m.TurnTimeout = 20 * time.Millisecond

	// Accepted move by "a" arms "b"'s stall timer.
	require.NoError(t, m.Move(context.Background(), "room1", "a", models.MoveRequest{
		Action: models.MoveCommon,
		Data:   models.MoveData{CardID: "red-1-a"},
	}))

	// Removing a player who is not current must not disable the current
	// player's stall protection.
	require.NoError(t, m.RemovePlayer(context.Background(), "room1", "c"))

	assert.Eventually(t, func() bool {
		room, err := store.LoadRoomByCode(context.Background(), "room1")
		if err != nil {
			return false
		}
		idx := room.FindUser("b")
		return idx >= 0 && len(room.Users[idx].Cards) > 3
	}, 2*time.Second, 10*time.Millisecond, "stall timer must survive an unrelated removal")

	m.Forget("room1")
}

func TestRemoveLastPlayerEndsGame(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")

	m := game.NewManager(store, nil)
	m.TurnTimeout = 0
	require.NoError(t, m.RemovePlayer(context.Background(), "room1", "a"))
	require.NoError(t, m.RemovePlayer(context.Background(), "room1", "b"))
	require.NoError(t, m.RemovePlayer(context.Background(), "room1", "c"))

	room, err := store.LoadRoomByCode(context.Background(), "room1")
	require.NoError(t, err)
	assert.Empty(t, room.Users)
	assert.Equal(t, models.StatusEnded, room.Status)
	assert.Empty(t, room.Options.CurrentUser)
}

func TestPrivateStateHidesOthers(t *testing.T) {
	store := database.NewMemoryStore()
	seedInProgress(t, store, "room1")

	m := game.NewManager(store, nil)
	st, err := m.PrivateState(context.Background(), "room1", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", st.User.ID)
	require.Len(t, st.Cards, 3)
	assert.Equal(t, "blue-1-a", st.Cards[0].ID)

	pub, err := m.PublicState(context.Background(), "room1")
	require.NoError(t, err)
	for _, u := range pub.Users {
		assert.Equal(t, 3, u.CardsCount)
	}
}
