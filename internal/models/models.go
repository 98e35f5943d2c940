// Package models defines the shared data shapes persisted per room and
// exchanged with clients.
package models

import "time"

// Room lifecycle statuses. Transitions are forward-only:
// created -> inProgress -> ended.
const (
	StatusCreated    = "created"
	StatusInProgress = "inProgress"
	StatusEnded      = "ended"
)

// Turn order directions.
const (
	OrderForward = "forward"
	OrderReverse = "reverse"
)

// Card is one immutable catalog entry. Color is a single color name, or
// ColorAny for wild cards whose color is chosen at play time.
type Card struct {
	ID    string `json:"id"`
	Type  string `json:"type"` // numeral, action or wild
	Value string `json:"value"`
	Color string `json:"color"`
}

// Card types.
const (
	CardNumeral = "numeral"
	CardAction  = "action"
	CardWild    = "wild"
)

// ColorAny marks a wild card's color before a player chooses one.
const ColorAny = "any"

// Colors lists the playable colors in the order used for random selection.
var Colors = [4]string{"red", "blue", "yellow", "green"}

// User is one registered room member.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	ImgURL string `json:"imgURL"`
	IsHost bool   `json:"isHost"`
}

// RoomUser is a user's in-game entry: identity plus hand. Cards holds card
// IDs in a stable order; the engine appends on draw and removes on play.
type RoomUser struct {
	User  User     `json:"user"`
	Cards []string `json:"cards"`
}

// Options holds the mutable per-game state of a room.
type Options struct {
	Order       string   `json:"order"`
	CurrentUser string   `json:"currentUser,omitempty"`
	Deck        []string `json:"deck"`
	Discard     []string `json:"discard"`
	ChosenColor string   `json:"chosenColor"`
}

// Room is the persisted document for one hosted game session.
type Room struct {
	Code    string     `json:"code"`
	Status  string     `json:"status"`
	Users   []RoomUser `json:"users"`
	Options Options    `json:"options"`
	Created time.Time  `json:"created"`
}

// FindUser returns the index of the user with the given id in Users, or -1.
func (r *Room) FindUser(id string) int {
	for i := range r.Users {
		if r.Users[i].User.ID == id {
			return i
		}
	}
	return -1
}

// Move action kinds accepted by the engine.
const (
	MoveCommon              = "common"
	MoveTakeFromDeck        = "takeFromDeck"
	MoveSkip                = "skip"
	MoveReverse             = "reverse"
	MoveTakeTwo             = "takeTwo"
	MoveChangeColor         = "changeColor"
	MoveChangeColorTakeFour = "changeColorTakeFour"
)

// MoveData carries the optional parameters of a move.
type MoveData struct {
	CardID      string `json:"cardId,omitempty"`
	ChosenColor string `json:"chosenColor,omitempty"`
}

// MoveRequest is the inbound move shape submitted by a client.
type MoveRequest struct {
	Action string   `json:"action"`
	Data   MoveData `json:"data"`
}
