// Package catalog holds the fixed multiset of card definitions every game
// is seeded from: a standard 108-card Uno deck.
package catalog

import (
	"fmt"

	"github.com/unoroom/server/internal/models"
)

// Size is the number of cards in the catalog.
const Size = 108

var (
	cards []models.Card
	byID  map[string]models.Card
)

func init() {
	cards = build()
	byID = make(map[string]models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
}

// build constructs the full deck: per color one 0, two of each 1-9, two of
// each skip/reverse/takeTwo, plus four changeColor and four
// changeColorTakeFour wilds. IDs are deterministic so persisted rooms
// remain readable across restarts.
func build() []models.Card {
	out := make([]models.Card, 0, Size)
	for _, color := range models.Colors {
		out = append(out, models.Card{
			ID:    fmt.Sprintf("%s-0", color),
			Type:  models.CardNumeral,
			Value: "0",
			Color: color,
		})
		for n := 1; n <= 9; n++ {
			for _, copyTag := range [2]string{"a", "b"} {
				out = append(out, models.Card{
					ID:    fmt.Sprintf("%s-%d-%s", color, n, copyTag),
					Type:  models.CardNumeral,
					Value: fmt.Sprintf("%d", n),
					Color: color,
				})
			}
		}
		for _, action := range [3]string{models.MoveSkip, models.MoveReverse, models.MoveTakeTwo} {
			for _, copyTag := range [2]string{"a", "b"} {
				out = append(out, models.Card{
					ID:    fmt.Sprintf("%s-%s-%s", color, action, copyTag),
					Type:  models.CardAction,
					Value: action,
					Color: color,
				})
			}
		}
	}
	for i := 1; i <= 4; i++ {
		out = append(out, models.Card{
			ID:    fmt.Sprintf("wild-color-%d", i),
			Type:  models.CardWild,
			Value: models.MoveChangeColor,
			Color: models.ColorAny,
		})
	}
	for i := 1; i <= 4; i++ {
		out = append(out, models.Card{
			ID:    fmt.Sprintf("wild-draw4-%d", i),
			Type:  models.CardWild,
			Value: models.MoveChangeColorTakeFour,
			Color: models.ColorAny,
		})
	}
	return out
}

// Cards returns a copy of every card definition.
func Cards() []models.Card {
	out := make([]models.Card, len(cards))
	copy(out, cards)
	return out
}

// IDs returns the card IDs in catalog order.
func IDs() []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

// Get returns the card with the given id.
func Get(id string) (models.Card, bool) {
	c, ok := byID[id]
	return c, ok
}

// IsWild reports whether id names a wild card.
func IsWild(id string) bool {
	c, ok := byID[id]
	return ok && c.Color == models.ColorAny
}
