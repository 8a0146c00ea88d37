// internal/session/turns.go
package session

import (
	"fmt"

	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// Turn rotation state machine. Two modes govern isTurn:
//
// Fixed rotation (claimTurns=false): exactly one player holds the turn once
// the session is live; passing clears everyone then sets the next player by
// order, wrapping at the max.
//
// Claim mode (claimTurns=true): zero or one player holds the turn; any
// player may claim it only while nobody does.

func (e *Engine) passTurnIntent(p *models.SessionPlayer) error {
	if !e.Config.TurnBased || e.Config.ClaimTurns {
		return fmt.Errorf("%w: fixed turn rotation is not enabled", ErrValidation)
	}
	if !p.IsTurn {
		return ErrNotYourTurn
	}
	e.passTurn(p)
	e.record(p.PlayerID, fmt.Sprintf("%s ended their turn", p.Username))
	return nil
}

func (e *Engine) claimTurnIntent(p *models.SessionPlayer) error {
	if !e.Config.ClaimTurns {
		return fmt.Errorf("%w: claiming turns is not enabled", ErrValidation)
	}
	if !e.canClaimTurn(p) {
		return fmt.Errorf("%w: the turn is already held", ErrValidation)
	}
	e.clearTurns()
	p.IsTurn = true
	for _, seat := range e.Players {
		e.broadcastPlayer(seat, EventUpdate)
	}
	e.record(p.PlayerID, fmt.Sprintf("%s claimed the turn", p.Username))
	return nil
}

// passTurn advances the rotation: clear all, then set the seat whose order
// follows the current player's, wrapping max -> 1. Assumes lock is held.
func (e *Engine) passTurn(current *models.SessionPlayer) {
	next := current.PlayerOrder + 1
	if current.PlayerOrder == e.maxOrder() {
		next = 1
	}
	e.clearTurns()
	for _, p := range e.Players {
		if p.PlayerOrder == next {
			p.IsTurn = true
		}
	}
	for _, p := range e.Players {
		e.broadcastPlayer(p, EventUpdate)
	}
}

// setFirstTurn gives the turn to player order 1, used at session start and
// reset. Assumes lock is held.
func (e *Engine) setFirstTurn() {
	e.clearTurns()
	for _, p := range e.Players {
		if p.PlayerOrder == 1 {
			p.IsTurn = true
		}
	}
}

// clearTurns assumes lock is held.
func (e *Engine) clearTurns() {
	for _, p := range e.Players {
		p.IsTurn = false
	}
}

// canClaimTurn: a player may claim only when nobody (including themselves)
// holds the turn. Assumes lock is held.
func (e *Engine) canClaimTurn(p *models.SessionPlayer) bool {
	return !e.anyTurnHeld() && !p.IsTurn
}

// anyTurnHeld assumes lock is held.
func (e *Engine) anyTurnHeld() bool {
	for _, p := range e.Players {
		if p.IsTurn {
			return true
		}
	}
	return false
}

// maxOrder assumes lock is held.
func (e *Engine) maxOrder() int {
	max := 0
	for _, p := range e.Players {
		if p.PlayerOrder > max {
			max = p.PlayerOrder
		}
	}
	return max
}
