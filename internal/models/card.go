package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CardDefinition is an immutable card template owned by the Card Catalog.
// Definitions are authored with the game template and never change once a
// session has been created from them.
type CardDefinition struct {
	DeckID      uuid.UUID `json:"deckId"`
	CardID      uuid.UUID `json:"cardId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	FrontImage  string    `json:"frontImage"`
	BackImage   string    `json:"backImage"`
	DropOrder   int       `json:"dropOrder"`
	Count       int       `json:"count"` // physical copies created per session
}

// LocationKind discriminates the three legal places a card instance can be.
type LocationKind uint8

const (
	LocationDeck LocationKind = iota
	LocationHand
	LocationPile
)

// CardLocation is a tagged variant: a card is in the draw deck (ordered by
// Position, 1 = next to draw), in a player's hand, or in a pile (Position is
// the 1-based stack order, 1 = top). For pile locations PlayerID records the
// player whose cards these are; it is uuid.Nil for untouched board piles.
type CardLocation struct {
	Kind     LocationKind
	PlayerID uuid.UUID
	PileID   uuid.UUID
	Position int
}

// DeckLocation places a card at the given draw-deck position.
func DeckLocation(position int) CardLocation {
	return CardLocation{Kind: LocationDeck, Position: position}
}

// HandLocation places a card in a player's hand.
func HandLocation(playerID uuid.UUID) CardLocation {
	return CardLocation{Kind: LocationHand, PlayerID: playerID}
}

// PileLocation places a card at a stack position within a pile. playerID may
// be uuid.Nil for shared board piles.
func PileLocation(pileID, playerID uuid.UUID, stackPos int) CardLocation {
	return CardLocation{Kind: LocationPile, PileID: pileID, PlayerID: playerID, Position: stackPos}
}

func (l CardLocation) InDeck() bool { return l.Kind == LocationDeck }
func (l CardLocation) InHand() bool { return l.Kind == LocationHand }
func (l CardLocation) InPile() bool { return l.Kind == LocationPile }

// Valid reports whether the location satisfies exactly one of the three
// placement predicates.
func (l CardLocation) Valid() bool {
	switch l.Kind {
	case LocationDeck:
		return l.PlayerID == uuid.Nil && l.PileID == uuid.Nil && l.Position > 0
	case LocationHand:
		return l.PlayerID != uuid.Nil && l.PileID == uuid.Nil && l.Position == 0
	case LocationPile:
		return l.PileID != uuid.Nil && l.Position > 0
	default:
		return false
	}
}

// locationWire is the client-facing encoding: the legacy nullable-field shape.
type locationWire struct {
	PlayerID *uuid.UUID `json:"playerId"`
	PileID   *uuid.UUID `json:"pileId"`
	Position int        `json:"position"`
}

// MarshalJSON encodes the variant in the nullable playerId/pileId/position
// wire shape clients already understand.
func (l CardLocation) MarshalJSON() ([]byte, error) {
	w := locationWire{Position: l.Position}
	if l.PlayerID != uuid.Nil {
		pid := l.PlayerID
		w.PlayerID = &pid
	}
	if l.PileID != uuid.Nil {
		id := l.PileID
		w.PileID = &id
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire shape back into the tagged variant,
// rejecting combinations that satisfy none of the placement predicates.
func (l *CardLocation) UnmarshalJSON(data []byte) error {
	var w locationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	loc := CardLocation{Position: w.Position}
	if w.PlayerID != nil {
		loc.PlayerID = *w.PlayerID
	}
	if w.PileID != nil {
		loc.PileID = *w.PileID
	}
	switch {
	case loc.PileID != uuid.Nil:
		loc.Kind = LocationPile
	case loc.PlayerID != uuid.Nil:
		loc.Kind = LocationHand
	default:
		loc.Kind = LocationDeck
	}
	if !loc.Valid() {
		return fmt.Errorf("invalid card location: player=%v pile=%v position=%d", loc.PlayerID, loc.PileID, loc.Position)
	}
	*l = loc
	return nil
}

// SessionCardInstance is one physical copy of a card definition within a
// session. Instances are created at session start and only move; they are
// never created or destroyed mid-session.
type SessionCardInstance struct {
	SessionID         uuid.UUID    `json:"sessionId"`
	InstanceID        uuid.UUID    `json:"instanceId"`
	CardID            uuid.UUID    `json:"cardId"`
	DeckID            uuid.UUID    `json:"deckId"`
	Location          CardLocation `json:"location"`
	IsRevealed        bool         `json:"isRevealed"`
	IsHiddenFromOwner bool         `json:"isHiddenFromOwner"`
}
