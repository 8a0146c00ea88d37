package models

import "github.com/google/uuid"

// Pile is a named discard pile definition. Board piles are shared by all
// players; player piles exist once per player, with cards in them carrying
// that player's id. Grid coordinates are presentational only and ignored by
// the engine.
type Pile struct {
	PileID       uuid.UUID `json:"pileId"`
	GameID       uuid.UUID `json:"gameId"`
	Name         string    `json:"name"`
	IsPlayerPile bool      `json:"isPlayerPile"`
	IsFaceUp     bool      `json:"isFaceUp"`
	HideValues   bool      `json:"hideValues"`
	GridRow      int       `json:"gridRow"`
	GridColumn   int       `json:"gridColumn"`
}
