// internal/session/points.go
package session

import (
	"fmt"

	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// Point economy. The sum of player balances plus the session pool must equal
// the configured total after every operation, so both sides of a transfer
// are written inside the same locked mutation before any delta leaves the
// engine.

func (e *Engine) drawPointsIntent(p *models.SessionPlayer, payload map[string]interface{}) error {
	if !e.Config.CanDrawPoints {
		return fmt.Errorf("%w: drawing points is disabled", ErrValidation)
	}
	if err := e.requireTurn(p); err != nil {
		return err
	}
	n, err := payloadCount(payload)
	if err != nil {
		return err
	}
	if e.State.NumPointsRemaining < n {
		return fmt.Errorf("%w: %d requested, %d remaining", ErrInsufficientPool, n, e.State.NumPointsRemaining)
	}

	e.State.NumPointsRemaining -= n
	p.NumPoints += n
	e.broadcastSession()
	e.broadcastPlayer(p, EventUpdate)
	e.record(p.PlayerID, fmt.Sprintf("%s drew %d point(s)", p.Username, n))
	return nil
}

func (e *Engine) givePointsIntent(p *models.SessionPlayer, payload map[string]interface{}) error {
	if !e.Config.CanPassPoints {
		return fmt.Errorf("%w: passing points is disabled", ErrValidation)
	}
	n, err := payloadCount(payload)
	if err != nil {
		return err
	}
	if p.NumPoints < n {
		return fmt.Errorf("%w: %d requested, %d held", ErrInsufficientBalance, n, p.NumPoints)
	}

	// Receiver is either another player or "Board", the session pool.
	if raw, exists := payload["toPlayerId"]; exists && raw != nil {
		toID, err := payloadUUID(payload, "toPlayerId")
		if err != nil {
			return err
		}
		to := e.playerByID(toID)
		if to == nil {
			return fmt.Errorf("%w: player %s", ErrNotFound, toID)
		}
		p.NumPoints -= n
		to.NumPoints += n
		e.broadcastPlayer(p, EventUpdate)
		e.broadcastPlayer(to, EventUpdate)
		e.record(p.PlayerID, fmt.Sprintf("%s gave %d point(s) to %s", p.Username, n, to.Username))
		return nil
	}

	p.NumPoints -= n
	e.State.NumPointsRemaining += n
	e.broadcastPlayer(p, EventUpdate)
	e.broadcastSession()
	e.record(p.PlayerID, fmt.Sprintf("%s returned %d point(s) to the board", p.Username, n))
	return nil
}

// TotalPoints sums player balances and the pool; used to assert the
// conservation invariant.
func (e *Engine) TotalPoints() int {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	total := e.State.NumPointsRemaining
	for _, p := range e.Players {
		total += p.NumPoints
	}
	return total
}

// payloadCount extracts a positive point count from an intent payload.
func payloadCount(payload map[string]interface{}) (int, error) {
	raw, exists := payload["count"]
	if !exists || raw == nil {
		return 0, fmt.Errorf("%w: missing count", ErrValidation)
	}
	var n int
	switch v := raw.(type) {
	case float64:
		n = int(v)
	case int:
		n = v
	default:
		return 0, fmt.Errorf("%w: count must be a number", ErrValidation)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: count must be positive", ErrValidation)
	}
	return n, nil
}
