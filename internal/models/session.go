package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the singleton state row for one live game instance.
type Session struct {
	SessionID           uuid.UUID `json:"sessionId"`
	GameID              uuid.UUID `json:"gameId"`
	NumPointsRemaining  int       `json:"numPointsRemaining"`
	IsLive              bool      `json:"isLive"`
	HandHidden          bool      `json:"handHidden"`
	LockedPlayerDiscard bool      `json:"lockedPlayerDiscard"`
}

// SessionAction is one append-only action-log row, ordered by ActionID.
type SessionAction struct {
	SessionID   uuid.UUID `json:"sessionId"`
	ActionID    int       `json:"actionId"`
	PlayerID    uuid.UUID `json:"playerId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
