package game

import (
	"math/rand"

	"github.com/unoroom/server/internal/models"
)

// recycleThreshold triggers a proactive recycle at the start of any move so
// upcoming draws stay serviceable.
const recycleThreshold = 4

// shuffle permutes ids in place (Fisher-Yates).
func shuffle(ids []string, rng *rand.Rand) {
	for i := len(ids) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// recycle moves every discard card except the current top back into the
// deck, shuffled. No-op when the discard holds fewer than two cards.
func recycle(r *models.Room, rng *rand.Rand) {
	d := r.Options.Discard
	if len(d) < 2 {
		return
	}
	top := d[len(d)-1]
	rest := make([]string, len(d)-1)
	copy(rest, d[:len(d)-1])
	shuffle(rest, rng)
	r.Options.Deck = append(r.Options.Deck, rest...)
	r.Options.Discard = []string{top}
}

// recycleIfLow recycles when the deck has run down to the threshold.
func recycleIfLow(r *models.Room, rng *rand.Rand) {
	if len(r.Options.Deck) <= recycleThreshold {
		recycle(r, rng)
	}
}

// drawCards moves up to quantity cards from the front of the deck into the
// player's hand, recycling mid-draw if the deck runs out. When both piles
// are exhausted the draw stops short rather than failing; the number of
// cards actually drawn is returned.
func drawCards(r *models.Room, rng *rand.Rand, playerID string, quantity int) int {
	idx := r.FindUser(playerID)
	if idx < 0 {
		return 0
	}
	drawn := 0
	for drawn < quantity {
		if len(r.Options.Deck) == 0 {
			recycle(r, rng)
			if len(r.Options.Deck) == 0 {
				break
			}
		}
		card := r.Options.Deck[0]
		r.Options.Deck = r.Options.Deck[1:]
		r.Users[idx].Cards = append(r.Users[idx].Cards, card)
		drawn++
	}
	return drawn
}

// deal removes count cards from the front of ids for each player in order,
// returning the hands and the remainder.
func deal(ids []string, players, count int) (hands [][]string, rest []string) {
	hands = make([][]string, players)
	for i := 0; i < players; i++ {
		hand := make([]string, count)
		copy(hand, ids[:count])
		ids = ids[count:]
		hands[i] = hand
	}
	return hands, ids
}
