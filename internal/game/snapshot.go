package game

import (
	"github.com/unoroom/server/internal/catalog"
	"github.com/unoroom/server/internal/models"
)

// PlayerSummary is the public view of one room member: identity plus hand
// size, never hand contents.
type PlayerSummary struct {
	ID         string `json:"id"`
	ImgURL     string `json:"imgURL"`
	IsHost     bool   `json:"isHost"`
	Name       string `json:"name"`
	CardsCount int    `json:"cardsCount"`
}

// PublicState is the snapshot broadcast to every room member.
type PublicState struct {
	Status      string          `json:"status"`
	Users       []PlayerSummary `json:"users"`
	Deck        int             `json:"deck"`
	Discard     *models.Card    `json:"discard,omitempty"`
	Order       string          `json:"order"`
	CurrentUser string          `json:"currentUser,omitempty"`
	ChosenColor string          `json:"chosenColor"`
}

// PrivateState is one player's own view, including hand contents.
type PrivateState struct {
	User  models.User   `json:"user"`
	Cards []models.Card `json:"cards"`
}

// publicState builds the shared snapshot for a room.
func publicState(r *models.Room) PublicState {
	st := PublicState{
		Status:      r.Status,
		Users:       make([]PlayerSummary, len(r.Users)),
		Deck:        len(r.Options.Deck),
		Order:       r.Options.Order,
		CurrentUser: r.Options.CurrentUser,
		ChosenColor: r.Options.ChosenColor,
	}
	for i, u := range r.Users {
		st.Users[i] = PlayerSummary{
			ID:         u.User.ID,
			ImgURL:     u.User.ImgURL,
			IsHost:     u.User.IsHost,
			Name:       u.User.Name,
			CardsCount: len(u.Cards),
		}
	}
	if n := len(r.Options.Discard); n > 0 {
		if card, ok := catalog.Get(r.Options.Discard[n-1]); ok {
			st.Discard = &card
		}
	}
	return st
}

// privateState builds the hand view for a single player.
func privateState(r *models.Room, playerID string) (*PrivateState, error) {
	idx := r.FindUser(playerID)
	if idx < 0 {
		return nil, &NotFoundError{Resource: "player", Key: playerID}
	}
	u := r.Users[idx]
	st := &PrivateState{
		User:  u.User,
		Cards: make([]models.Card, 0, len(u.Cards)),
	}
	for _, id := range u.Cards {
		if card, ok := catalog.Get(id); ok {
			st.Cards = append(st.Cards, card)
		}
	}
	return st, nil
}
