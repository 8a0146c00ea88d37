// internal/session/errors.go
package session

import "errors"

// Engine error taxonomy. All of these are local validation failures: the
// operation that returns one has written nothing. Callers match with
// errors.Is and surface the failure to the issuing client; none is fatal to
// the session or the process.
var (
	// ErrValidation: the game configuration disallows this intent.
	ErrValidation = errors.New("action not permitted by game configuration")

	// ErrEmptyDeck: a draw was attempted with no cards left in the deck.
	ErrEmptyDeck = errors.New("draw deck is empty")

	// ErrHandFull: the player's hand is at maxCardsPerPlayer.
	ErrHandFull = errors.New("hand is at maximum size")

	// ErrInsufficientPool: the session point pool cannot cover the draw.
	ErrInsufficientPool = errors.New("not enough points remaining in the pool")

	// ErrInsufficientBalance: the sending player cannot cover the transfer.
	ErrInsufficientBalance = errors.New("player does not have enough points")

	// ErrNotFound: unknown card instance, pile, or player id.
	ErrNotFound = errors.New("unknown card, pile, or player")

	// ErrConflict: an update batch targeted the same instance twice.
	ErrConflict = errors.New("duplicate instance in update batch")

	// ErrPersistence wraps collaborator I/O failures.
	ErrPersistence = errors.New("persistence failure")

	// ErrSessionLive: joins are rejected once the session has started.
	ErrSessionLive = errors.New("session is already live")

	// ErrSessionFull: the player cap has been reached.
	ErrSessionFull = errors.New("player cap reached")

	// ErrNotYourTurn: turn-locked sessions reject intents from other seats.
	ErrNotYourTurn = errors.New("not your turn")
)
