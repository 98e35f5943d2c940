package game

import (
	"fmt"
	"math/rand"

	"github.com/unoroom/server/internal/models"
)

// applyMove validates and applies one move for the acting player. The caller
// has already verified that the room is inProgress and that playerID is the
// current player. A returned error means the room was not modified at all.
func applyMove(r *models.Room, rng *rand.Rand, playerID string, mv models.MoveRequest) error {
	switch mv.Action {
	case models.MoveCommon, models.MoveTakeFromDeck, models.MoveSkip,
		models.MoveReverse, models.MoveTakeTwo, models.MoveChangeColor,
		models.MoveChangeColorTakeFour:
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown action %q", mv.Action)}
	}

	idx := r.FindUser(playerID)
	if idx < 0 {
		return &NotFoundError{Resource: "player", Key: playerID}
	}

	// Every kind except takeFromDeck plays a card, which must be in the
	// actor's hand. Checked before any mutation so rejections are pure.
	if mv.Action != models.MoveTakeFromDeck {
		if !handContains(r.Users[idx].Cards, mv.Data.CardID) {
			return &ValidationError{Reason: fmt.Sprintf("card %q is not in hand", mv.Data.CardID)}
		}
	}

	recycleIfLow(r, rng)

	if mv.Action != models.MoveTakeFromDeck {
		removeFromHand(&r.Users[idx], mv.Data.CardID)
		r.Options.Discard = append(r.Options.Discard, mv.Data.CardID)
	}

	// Emptying the hand ends the game immediately; no turn advancement or
	// side effects follow.
	if len(r.Users[idx].Cards) == 0 {
		r.Status = models.StatusEnded
		return nil
	}

	switch mv.Action {
	case models.MoveCommon:
		r.Options.ChosenColor = ""
		shiftTurn(r, playerID, 1)
	case models.MoveTakeFromDeck:
		drawCards(r, rng, playerID, 1)
		shiftTurn(r, playerID, 1)
	case models.MoveSkip:
		r.Options.ChosenColor = ""
		shiftTurn(r, playerID, 2)
	case models.MoveReverse:
		r.Options.ChosenColor = ""
		toggleOrder(r)
		shiftTurn(r, playerID, 1)
	case models.MoveTakeTwo:
		r.Options.ChosenColor = ""
		shiftTurn(r, playerID, 1)
		// The forced draw lands on the player the shift just selected.
		drawCards(r, rng, r.Options.CurrentUser, 2)
	case models.MoveChangeColor:
		shiftTurn(r, playerID, 1)
		r.Options.ChosenColor = mv.Data.ChosenColor
	case models.MoveChangeColorTakeFour:
		shiftTurn(r, playerID, 1)
		drawCards(r, rng, r.Options.CurrentUser, 4)
		r.Options.ChosenColor = mv.Data.ChosenColor
	}
	return nil
}

func handContains(cards []string, id string) bool {
	for _, c := range cards {
		if c == id {
			return true
		}
	}
	return false
}

func removeFromHand(u *models.RoomUser, id string) {
	for i, c := range u.Cards {
		if c == id {
			u.Cards = append(u.Cards[:i], u.Cards[i+1:]...)
			return
		}
	}
}
