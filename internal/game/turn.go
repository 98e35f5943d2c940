package game

import "github.com/unoroom/server/internal/models"

// shiftTurn advances currentUser by shift positions from the acting player.
// Forward order rotates modulo the player count. Reverse order computes
// abs(index-shift) mod count, not a mirrored rotation; clients are built
// against this exact sequence.
func shiftTurn(r *models.Room, actingID string, shift int) {
	idx := r.FindUser(actingID)
	n := len(r.Users)
	if idx < 0 || n == 0 {
		return
	}
	var next int
	if r.Options.Order == models.OrderReverse {
		d := idx - shift
		if d < 0 {
			d = -d
		}
		next = d % n
	} else {
		next = (idx + shift) % n
	}
	r.Options.CurrentUser = r.Users[next].User.ID
}

// toggleOrder flips the turn direction.
func toggleOrder(r *models.Room) {
	if r.Options.Order == models.OrderForward {
		r.Options.Order = models.OrderReverse
	} else {
		r.Options.Order = models.OrderForward
	}
}
