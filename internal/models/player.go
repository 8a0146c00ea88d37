package models

import (
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// SessionPlayer is one seat in a live session. Players join before the
// session goes live and are never deleted mid-session; disconnects only flip
// Connected.
type SessionPlayer struct {
	SessionID    uuid.UUID `json:"sessionId"`
	PlayerID     uuid.UUID `json:"playerId"`
	Username     string    `json:"username"`
	NumPoints    int       `json:"numPoints"`
	PlayerOrder  int       `json:"playerOrder"` // dense 1..N, fixed at join
	IsTurn       bool      `json:"isTurn"`
	LastActionAt time.Time `json:"lastActionAt"`

	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`
}

// NewSessionPlayer creates a seated player with a fresh id.
func NewSessionPlayer(sessionID uuid.UUID, username string, order int) (*SessionPlayer, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &SessionPlayer{
		SessionID:    sessionID,
		PlayerID:     id,
		Username:     username,
		PlayerOrder:  order,
		Connected:    true,
		LastActionAt: time.Now(),
	}, nil
}
