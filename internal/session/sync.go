// internal/session/sync.go
package session

import (
	"github.com/google/uuid"

	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// EntityType names the row kind a delta applies to.
type EntityType string

const (
	EntityCard    EntityType = "card"
	EntityPlayer  EntityType = "player"
	EntitySession EntityType = "session"
	EntityAction  EntityType = "action"
)

// EventType is the mutation kind of a delta.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// DeltaRow carries exactly one typed row inside a delta.
type DeltaRow struct {
	Card    *models.SessionCardInstance `json:"card,omitempty"`
	Player  *models.SessionPlayer       `json:"player,omitempty"`
	Session *models.Session             `json:"session,omitempty"`
	Action  *models.SessionAction       `json:"action,omitempty"`
}

// Delta is one committed change, fanned out to every subscriber of the
// session (including the issuer). Update replaces the row wholesale by
// primary key; there is no field-level merge.
type Delta struct {
	Entity EntityType `json:"entity"`
	Event  EventType  `json:"event"`
	Before *DeltaRow  `json:"before,omitempty"`
	After  *DeltaRow  `json:"after,omitempty"`
}

// Event is the envelope pushed to clients. Committed changes travel as
// "delta" events; "peek" carries a private read-only reveal, "state" a full
// hydration snapshot, "error" a surfaced failure.
type Event struct {
	Type     string                      `json:"type"`
	Delta    *Delta                      `json:"delta,omitempty"`
	Card     *models.SessionCardInstance `json:"card,omitempty"`
	CardName string                      `json:"cardName,omitempty"`
	State    *SessionState               `json:"state,omitempty"`
	Message  string                      `json:"message,omitempty"`
}

// SessionState is the hydration snapshot sent to a newly connecting client
// before it starts consuming deltas.
type SessionState struct {
	Session models.Session               `json:"session"`
	Players []models.SessionPlayer       `json:"players"`
	Cards   []models.SessionCardInstance `json:"cards"`
	Piles   []models.Pile                `json:"piles"`
	Actions []models.SessionAction       `json:"actions"`
}

// Replica is a client-side read copy of session state, maintained by
// applying deltas by primary key. It exists so every subscriber merges
// changes into one canonical local store instead of per-component copies.
type Replica struct {
	Session models.Session
	Players map[uuid.UUID]models.SessionPlayer
	Cards   map[uuid.UUID]models.SessionCardInstance
	Piles   []models.Pile
	Actions []models.SessionAction
}

// NewReplica hydrates a replica from a snapshot.
func NewReplica(state SessionState) *Replica {
	r := &Replica{
		Session: state.Session,
		Players: make(map[uuid.UUID]models.SessionPlayer, len(state.Players)),
		Cards:   make(map[uuid.UUID]models.SessionCardInstance, len(state.Cards)),
		Piles:   state.Piles,
		Actions: state.Actions,
	}
	for _, p := range state.Players {
		r.Players[p.PlayerID] = p
	}
	for _, c := range state.Cards {
		r.Cards[c.InstanceID] = c
	}
	return r
}

// ApplyDelta merges one delta into the replica. Updates replace the stored
// row wholesale; deletes remove by key; inserts append.
func (r *Replica) ApplyDelta(d Delta) {
	switch d.Entity {
	case EntityCard:
		switch d.Event {
		case EventInsert, EventUpdate:
			if d.After != nil && d.After.Card != nil {
				r.Cards[d.After.Card.InstanceID] = *d.After.Card
			}
		case EventDelete:
			if d.Before != nil && d.Before.Card != nil {
				delete(r.Cards, d.Before.Card.InstanceID)
			}
		}
	case EntityPlayer:
		switch d.Event {
		case EventInsert, EventUpdate:
			if d.After != nil && d.After.Player != nil {
				r.Players[d.After.Player.PlayerID] = *d.After.Player
			}
		case EventDelete:
			if d.Before != nil && d.Before.Player != nil {
				delete(r.Players, d.Before.Player.PlayerID)
			}
		}
	case EntitySession:
		if d.Event != EventDelete && d.After != nil && d.After.Session != nil {
			r.Session = *d.After.Session
		}
	case EntityAction:
		if d.Event == EventInsert && d.After != nil && d.After.Action != nil {
			r.Actions = append(r.Actions, *d.After.Action)
		}
	}
}
