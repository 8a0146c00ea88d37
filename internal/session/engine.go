// internal/session/engine.go
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/calebheinzman/tabletop-arcade/internal/catalog"
	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// Intent type strings accepted by HandleIntent.
const (
	IntentDrawCard       = "draw_card"
	IntentDiscardCard    = "discard_card"
	IntentShuffleDeck    = "shuffle_deck"
	IntentRedeal         = "redeal"
	IntentPickupPile     = "pickup_pile"
	IntentPassCard       = "pass_card"
	IntentTradeCards     = "trade_cards"
	IntentRevealCard     = "reveal_card"
	IntentRevealHands    = "reveal_hands"
	IntentPeekTop        = "peek_top"
	IntentDrawPoints     = "draw_points"
	IntentGivePoints     = "give_points"
	IntentPassTurn       = "pass_turn"
	IntentEndTurn        = "end_turn"
	IntentClaimTurn      = "claim_turn"
	IntentMovePileToDeck = "move_pile_to_deck"
	IntentMovePileToPile = "move_pile_to_pile"
)

// Engine holds the entire authoritative state for one session and is its
// only writer. Every client intent goes through HandleIntent, which performs
// the read-validate-write sequence under one lock and fans the committed
// deltas out to subscribers. Nothing here is ambient: construct one Engine
// per session and hand references to callers.
type Engine struct {
	ID     uuid.UUID
	GameID uuid.UUID

	Catalog *catalog.Catalog
	Config  models.GameConfiguration

	Table   *CardTable
	Players []*models.SessionPlayer
	State   models.Session
	Actions []models.SessionAction

	Mu sync.Mutex

	// BroadcastFn sends an event to all connected players. If nil, no
	// broadcast is done.
	BroadcastFn func(ev Event)

	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev Event)

	// PublishActionFn forwards a committed action-log row to the feed queue.
	// Called fire-and-forget; a failure is logged, never propagated.
	PublishActionFn func(act models.SessionAction) error

	// PersistSnapshotFn stores a full snapshot with the persistence
	// collaborator. Called fire-and-forget on lifecycle transitions.
	PersistSnapshotFn func(state SessionState) error

	log *logrus.Entry
}

// NewEngine builds a fresh session over a game catalog: one card instance
// per copy of every definition, an empty seat list, and the full point pool.
func NewEngine(cat *catalog.Catalog) *Engine {
	id := uuid.New()
	cfg := cat.Config
	return &Engine{
		ID:      id,
		GameID:  cat.GameID,
		Catalog: cat,
		Config:  cfg,
		Table:   NewCardTable(id, cat.Definitions()),
		State: models.Session{
			SessionID:           id,
			GameID:              cat.GameID,
			NumPointsRemaining:  cfg.NumPoints,
			HandHidden:          cfg.HideHand,
			LockedPlayerDiscard: cfg.LockPlayerDiscard,
		},
		log: logrus.WithField("session", id),
	}
}

// Join seats a new player. Joins are rejected once the session is live and
// when the player cap is reached; playerOrder is dense and fixed at join.
func (e *Engine) Join(username string) (*models.SessionPlayer, error) {
	e.Mu.Lock()
	defer e.Mu.Unlock()

	if e.State.IsLive {
		return nil, ErrSessionLive
	}
	if e.Config.MaxPlayers > 0 && len(e.Players) >= e.Config.MaxPlayers {
		return nil, ErrSessionFull
	}
	p, err := models.NewSessionPlayer(e.ID, username, len(e.Players)+1)
	if err != nil {
		return nil, err
	}
	e.Players = append(e.Players, p)
	e.broadcastPlayer(p, EventInsert)
	e.record(p.PlayerID, fmt.Sprintf("%s joined the session", username))
	return p, nil
}

// StartSession deals hands, seeds the point economy, assigns the first turn
// in rotation mode and marks the session live.
func (e *Engine) StartSession() error {
	e.Mu.Lock()
	defer e.Mu.Unlock()

	if e.State.IsLive {
		return ErrSessionLive
	}
	if len(e.Players) == 0 {
		return fmt.Errorf("%w: no players have joined", ErrValidation)
	}
	if err := e.dealAndReset(); err != nil {
		return err
	}
	e.State.IsLive = true
	e.broadcastSession()
	e.record(uuid.Nil, "Session started")
	e.persistSnapshot()
	return nil
}

// ResetSession redeals every card, restores the point economy and returns
// the turn to player order 1. The seat list is untouched.
func (e *Engine) ResetSession() error {
	e.Mu.Lock()
	defer e.Mu.Unlock()

	if len(e.Players) == 0 {
		return fmt.Errorf("%w: no players have joined", ErrValidation)
	}
	if err := e.dealAndReset(); err != nil {
		return err
	}
	e.broadcastSession()
	e.record(uuid.Nil, "Session reset")
	e.persistSnapshot()
	return nil
}

// dealAndReset is the shared start/reset body. Assumes lock is held.
func (e *Engine) dealAndReset() error {
	stake := e.Config.StartingNumPoints * len(e.Players)
	if stake > e.Config.NumPoints {
		return fmt.Errorf("%w: starting points exceed the configured total", ErrInsufficientPool)
	}

	changed, err := e.Table.Redeal(e.Config, e.Players, e.Catalog.DropOrders())
	if err != nil {
		return err
	}
	e.broadcastCards(changed)

	e.State.NumPointsRemaining = e.Config.NumPoints - stake
	for _, p := range e.Players {
		p.NumPoints = e.Config.StartingNumPoints
	}
	if e.Config.TurnBased && !e.Config.ClaimTurns {
		e.setFirstTurn()
	} else {
		e.clearTurns()
	}
	for _, p := range e.Players {
		e.broadcastPlayer(p, EventUpdate)
	}
	return nil
}

// HandleIntent validates and executes one client intent. All failures are
// local: the state is untouched and the error is surfaced to the caller.
func (e *Engine) HandleIntent(playerID uuid.UUID, intent models.Intent) error {
	e.Mu.Lock()
	defer e.Mu.Unlock()

	if !e.State.IsLive {
		return fmt.Errorf("%w: session is not live", ErrValidation)
	}
	player := e.playerByID(playerID)
	if player == nil {
		return fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	player.LastActionAt = time.Now()

	var err error
	switch intent.Type {
	case IntentDrawCard:
		err = e.drawCard(player)
	case IntentDiscardCard:
		err = e.discardCard(player, intent.Payload)
	case IntentShuffleDeck:
		err = e.shuffleDeck(player)
	case IntentRedeal:
		err = e.redeal(player)
	case IntentPickupPile:
		err = e.pickupPile(player, intent.Payload)
	case IntentPassCard:
		err = e.passCard(player, intent.Payload)
	case IntentTradeCards:
		err = e.tradeCards(player, intent.Payload)
	case IntentRevealCard:
		err = e.revealCard(player, intent.Payload)
	case IntentRevealHands:
		err = e.revealHands(player)
	case IntentPeekTop:
		err = e.peekTop(player, intent.Payload)
	case IntentDrawPoints:
		err = e.drawPointsIntent(player, intent.Payload)
	case IntentGivePoints:
		err = e.givePointsIntent(player, intent.Payload)
	case IntentPassTurn, IntentEndTurn:
		err = e.passTurnIntent(player)
	case IntentClaimTurn:
		err = e.claimTurnIntent(player)
	case IntentMovePileToDeck:
		err = e.movePileToDeck(player, intent.Payload)
	case IntentMovePileToPile:
		err = e.movePileToPile(player, intent.Payload)
	default:
		err = fmt.Errorf("%w: unknown intent type %q", ErrValidation, intent.Type)
	}
	if err != nil {
		e.log.WithFields(logrus.Fields{"player": playerID, "intent": intent.Type}).
			Warnf("intent rejected: %v", err)
	}
	return err
}

// requireTurn gates mutating intents to the turn holder when the
// configuration locks turns.
func (e *Engine) requireTurn(p *models.SessionPlayer) error {
	if e.Config.TurnBased && e.Config.LockTurn && !p.IsTurn {
		return ErrNotYourTurn
	}
	return nil
}

func (e *Engine) drawCard(p *models.SessionPlayer) error {
	if !e.Config.CanDrawCards {
		return fmt.Errorf("%w: drawing cards is disabled", ErrValidation)
	}
	if err := e.requireTurn(p); err != nil {
		return err
	}
	changed, err := e.Table.DrawTop(p.PlayerID, e.State.HandHidden, e.Config.MaxCardsPerPlayer)
	if err != nil {
		return err
	}
	e.broadcastCards(changed)
	e.record(p.PlayerID, fmt.Sprintf("%s drew a card", p.Username))
	return nil
}

func (e *Engine) discardCard(p *models.SessionPlayer, payload map[string]interface{}) error {
	if !e.Config.CanDiscard {
		return fmt.Errorf("%w: discarding is disabled", ErrValidation)
	}
	if err := e.requireTurn(p); err != nil {
		return err
	}
	instanceID, err := payloadUUID(payload, "instanceId")
	if err != nil {
		return err
	}

	var pile *models.Pile
	if raw, exists := payload["pileId"]; exists && raw != nil {
		pileID, err := payloadUUID(payload, "pileId")
		if err != nil {
			return err
		}
		def, ok := e.Catalog.Pile(pileID)
		if !ok {
			return fmt.Errorf("%w: pile %s", ErrNotFound, pileID)
		}
		pile = def
	}

	changed, err := e.Table.Discard(p.PlayerID, instanceID, pile)
	if err != nil {
		return err
	}
	e.broadcastCards(changed)

	if pile == nil {
		e.record(p.PlayerID, fmt.Sprintf("%s returned a card to the deck", p.Username))
	} else {
		e.record(p.PlayerID, fmt.Sprintf("%s discarded %s to %s", p.Username, e.describeCard(instanceID), pile.Name))
	}
	return nil
}

func (e *Engine) shuffleDeck(p *models.SessionPlayer) error {
	if err := e.requireTurn(p); err != nil {
		return err
	}
	changed, err := e.Table.Shuffle()
	if err != nil {
		return err
	}
	e.broadcastCards(changed)
	e.record(p.PlayerID, fmt.Sprintf("%s shuffled the deck", p.Username))
	return nil
}

func (e *Engine) redeal(p *models.SessionPlayer) error {
	if !e.Config.RedealCards {
		return fmt.Errorf("%w: redealing is disabled", ErrValidation)
	}
	changed, err := e.Table.Redeal(e.Config, e.Players, e.Catalog.DropOrders())
	if err != nil {
		return err
	}
	e.broadcastCards(changed)
	e.record(p.PlayerID, fmt.Sprintf("%s redealt all cards", p.Username))
	return nil
}

func (e *Engine) pickupPile(p *models.SessionPlayer, payload map[string]interface{}) error {
	if err := e.requireTurn(p); err != nil {
		return err
	}
	pileID, err := payloadUUID(payload, "pileId")
	if err != nil {
		return err
	}
	pile, ok := e.Catalog.Pile(pileID)
	if !ok {
		return fmt.Errorf("%w: pile %s", ErrNotFound, pileID)
	}
	changed, err := e.Table.Pickup(p.PlayerID, pile)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		return nil
	}
	e.broadcastCards(changed)
	e.record(p.PlayerID, fmt.Sprintf("%s picked up the %s pile", p.Username, pile.Name))
	return nil
}

func (e *Engine) passCard(p *models.SessionPlayer, payload map[string]interface{}) error {
	if !e.Config.PassCards {
		return fmt.Errorf("%w: passing cards is disabled", ErrValidation)
	}
	if err := e.requireTurn(p); err != nil {
		return err
	}
	instanceID, err := payloadUUID(payload, "instanceId")
	if err != nil {
		return err
	}
	toID, err := payloadUUID(payload, "toPlayerId")
	if err != nil {
		return err
	}
	to := e.playerByID(toID)
	if to == nil {
		return fmt.Errorf("%w: player %s", ErrNotFound, toID)
	}
	changed, err := e.Table.Pass(p.PlayerID, instanceID, toID)
	if err != nil {
		return err
	}
	e.broadcastCards(changed)
	e.record(p.PlayerID, fmt.Sprintf("%s passed a card to %s", p.Username, to.Username))
	return nil
}

func (e *Engine) tradeCards(p *models.SessionPlayer, payload map[string]interface{}) error {
	if !e.Config.TradeCards {
		return fmt.Errorf("%w: trading cards is disabled", ErrValidation)
	}
	if err := e.requireTurn(p); err != nil {
		return err
	}
	instA, err := payloadUUID(payload, "instanceA")
	if err != nil {
		return err
	}
	instB, err := payloadUUID(payload, "instanceB")
	if err != nil {
		return err
	}
	changed, err := e.Table.Trade(instA, instB)
	if err != nil {
		return err
	}
	e.broadcastCards(changed)
	e.record(p.PlayerID, fmt.Sprintf("%s traded cards", p.Username))
	return nil
}

func (e *Engine) revealCard(p *models.SessionPlayer, payload map[string]interface{}) error {
	if !e.Config.CanReveal {
		return fmt.Errorf("%w: revealing cards is disabled", ErrValidation)
	}
	instanceID, err := payloadUUID(payload, "instanceId")
	if err != nil {
		return err
	}
	changed, err := e.Table.ToggleRevealed(instanceID)
	if err != nil {
		return err
	}
	e.broadcastCards(changed)
	if changed[0].IsRevealed {
		e.record(p.PlayerID, fmt.Sprintf("%s revealed %s", p.Username, e.describeCard(instanceID)))
	} else {
		e.record(p.PlayerID, fmt.Sprintf("%s hid a card", p.Username))
	}
	return nil
}

// revealHands flips every hand card face up. Built as one Apply batch; the
// batch is de-duplicated first, keeping the first write, per the table's
// conflict contract.
func (e *Engine) revealHands(p *models.SessionPlayer) error {
	if !e.Config.RevealHands {
		return fmt.Errorf("%w: revealing hands is disabled", ErrValidation)
	}
	var updates []CardUpdate
	for _, seat := range e.Players {
		for _, inst := range e.Table.HandOf(seat.PlayerID) {
			updates = append(updates, CardUpdate{
				InstanceID:        inst.InstanceID,
				Location:          inst.Location,
				IsRevealed:        true,
				IsHiddenFromOwner: inst.IsHiddenFromOwner,
			})
		}
	}
	updates, dropped := DedupeUpdates(updates)
	if dropped {
		e.log.Warn("duplicate card updates dropped from reveal-hands batch")
	}
	changed, err := e.Table.Apply(updates)
	if err != nil {
		return err
	}
	e.broadcastCards(changed)
	e.record(p.PlayerID, fmt.Sprintf("%s revealed all hands", p.Username))
	return nil
}

// peekTop privately shows the top of the deck (no pileId) or a pile without
// moving anything. The log line never includes the card identity.
func (e *Engine) peekTop(p *models.SessionPlayer, payload map[string]interface{}) error {
	if !e.Config.PeakCards {
		return fmt.Errorf("%w: peeking is disabled", ErrValidation)
	}

	var top models.SessionCardInstance
	var source string
	if raw, exists := payload["pileId"]; exists && raw != nil {
		pileID, err := payloadUUID(payload, "pileId")
		if err != nil {
			return err
		}
		pile, ok := e.Catalog.Pile(pileID)
		if !ok {
			return fmt.Errorf("%w: pile %s", ErrNotFound, pileID)
		}
		stack := e.Table.PileCards(pile, p.PlayerID)
		if len(stack) == 0 {
			return fmt.Errorf("%w: pile %s is empty", ErrValidation, pile.Name)
		}
		top = stack[0]
		source = pile.Name
	} else {
		deck := e.Table.DeckCards()
		if len(deck) == 0 {
			return ErrEmptyDeck
		}
		top = deck[0]
		source = "the deck"
	}

	name := ""
	if def, ok := e.Catalog.Card(top.CardID); ok {
		name = def.Name
	}
	e.fireEventToPlayer(p.PlayerID, Event{Type: "peek", Card: &top, CardName: name})
	e.record(p.PlayerID, fmt.Sprintf("%s peeked at the top of %s", p.Username, source))
	return nil
}

func (e *Engine) movePileToDeck(p *models.SessionPlayer, payload map[string]interface{}) error {
	if err := e.requireTurn(p); err != nil {
		return err
	}
	sel, err := e.selectorFromPayload(p, payload)
	if err != nil {
		return err
	}
	changed, err := e.Table.MoveAllToDeck(sel)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		return nil
	}
	e.broadcastCards(changed)
	e.record(p.PlayerID, fmt.Sprintf("%s moved cards back to the deck", p.Username))
	return nil
}

func (e *Engine) movePileToPile(p *models.SessionPlayer, payload map[string]interface{}) error {
	if err := e.requireTurn(p); err != nil {
		return err
	}
	sel, err := e.selectorFromPayload(p, payload)
	if err != nil {
		return err
	}
	targetID, err := payloadUUID(payload, "targetPileId")
	if err != nil {
		return err
	}
	target, ok := e.Catalog.Pile(targetID)
	if !ok {
		return fmt.Errorf("%w: pile %s", ErrNotFound, targetID)
	}
	targetPlayer := uuid.Nil
	if target.IsPlayerPile {
		targetPlayer = p.PlayerID
		if raw, exists := payload["targetPlayerId"]; exists && raw != nil {
			targetPlayer, err = payloadUUID(payload, "targetPlayerId")
			if err != nil {
				return err
			}
		}
		if e.State.LockedPlayerDiscard && targetPlayer != p.PlayerID {
			return fmt.Errorf("%w: player discard piles are locked", ErrValidation)
		}
	}
	changed, err := e.Table.MoveToOtherPile(sel, target, targetPlayer)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		return nil
	}
	e.broadcastCards(changed)
	e.record(p.PlayerID, fmt.Sprintf("%s moved cards to %s", p.Username, target.Name))
	return nil
}

// selectorFromPayload builds the bulk-move source: a pile when pileId is
// present, otherwise the acting player's hand.
func (e *Engine) selectorFromPayload(p *models.SessionPlayer, payload map[string]interface{}) (CardSelector, error) {
	sel := CardSelector{}
	if raw, exists := payload["pileId"]; exists && raw != nil {
		pileID, err := payloadUUID(payload, "pileId")
		if err != nil {
			return sel, err
		}
		pile, ok := e.Catalog.Pile(pileID)
		if !ok {
			return sel, fmt.Errorf("%w: pile %s", ErrNotFound, pileID)
		}
		sel.PileID = pileID
		if pile.IsPlayerPile {
			sel.PlayerID = p.PlayerID
		}
	} else {
		sel.PlayerID = p.PlayerID
	}
	return sel, nil
}

// HandleDisconnect marks a player disconnected. Players are never removed
// mid-session; their seat and cards stay put.
func (e *Engine) HandleDisconnect(playerID uuid.UUID) {
	e.Mu.Lock()
	defer e.Mu.Unlock()

	p := e.playerByID(playerID)
	if p == nil || !p.Connected {
		return
	}
	p.Connected = false
	p.Conn = nil
	e.broadcastPlayer(p, EventUpdate)
	e.log.WithField("player", playerID).Info("player disconnected")
}

// HandleReconnect re-binds a returning player's connection and re-sends the
// hydration snapshot so their replica can catch up.
func (e *Engine) HandleReconnect(playerID uuid.UUID, conn *websocket.Conn) error {
	e.Mu.Lock()
	defer e.Mu.Unlock()

	p := e.playerByID(playerID)
	if p == nil {
		return fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	p.Connected = true
	p.Conn = conn
	e.broadcastPlayer(p, EventUpdate)

	state := e.sessionStateFor(playerID)
	e.fireEventToPlayer(playerID, Event{Type: "state", State: &state})
	return nil
}

// SessionStateFor returns the hydration snapshot as seen by one player:
// cards that player may not see have their identity stripped.
func (e *Engine) SessionStateFor(playerID uuid.UUID) SessionState {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	return e.sessionStateFor(playerID)
}

// sessionStateFor assumes lock is held.
func (e *Engine) sessionStateFor(playerID uuid.UUID) SessionState {
	state := SessionState{
		Session: e.State,
		Piles:   e.Catalog.Piles(),
		Actions: append([]models.SessionAction(nil), e.Actions...),
	}
	for _, p := range e.Players {
		state.Players = append(state.Players, *p)
	}
	for _, inst := range e.Table.Snapshot() {
		state.Cards = append(state.Cards, e.obfuscateCard(inst, playerID))
	}
	return state
}

// cardVisibleTo decides whether a viewer may learn a card's identity:
// revealed cards are public unless their pile hides values; hand cards are
// visible to their owner unless dealt hidden.
func (e *Engine) cardVisibleTo(inst models.SessionCardInstance, viewerID uuid.UUID) bool {
	if inst.Location.InPile() {
		if pile, ok := e.Catalog.Pile(inst.Location.PileID); ok && pile.HideValues {
			return false
		}
	}
	if inst.IsRevealed {
		return true
	}
	if inst.Location.InHand() && inst.Location.PlayerID == viewerID && !inst.IsHiddenFromOwner {
		return true
	}
	return false
}

// obfuscateCard strips the card identity from rows the viewer may not see.
// The instance id, deck id and location stay intact so replicas track
// movement without learning values.
func (e *Engine) obfuscateCard(inst models.SessionCardInstance, viewerID uuid.UUID) models.SessionCardInstance {
	if e.cardVisibleTo(inst, viewerID) {
		return inst
	}
	obf := inst
	obf.CardID = uuid.Nil
	return obf
}

// record appends an action-log row, fans it out, and forwards it to the
// feed queue. A log write must never block or fail the mutation it
// describes: publish errors are logged and dropped.
func (e *Engine) record(playerID uuid.UUID, description string) {
	act := models.SessionAction{
		SessionID:   e.ID,
		ActionID:    len(e.Actions) + 1,
		PlayerID:    playerID,
		Description: description,
		CreatedAt:   time.Now(),
	}
	e.Actions = append(e.Actions, act)
	e.fireEvent(Event{Type: "delta", Delta: &Delta{
		Entity: EntityAction,
		Event:  EventInsert,
		After:  &DeltaRow{Action: &act},
	}})

	if e.PublishActionFn != nil {
		go func(act models.SessionAction) {
			if err := e.PublishActionFn(act); err != nil {
				e.log.WithField("actionId", act.ActionID).Warnf("failed to publish action record: %v", err)
			}
		}(act)
	}
}

// persistSnapshot stores the unobfuscated state fire-and-forget. Assumes
// lock is held.
func (e *Engine) persistSnapshot() {
	if e.PersistSnapshotFn == nil {
		return
	}
	state := SessionState{
		Session: e.State,
		Piles:   e.Catalog.Piles(),
		Cards:   e.Table.Snapshot(),
		Actions: append([]models.SessionAction(nil), e.Actions...),
	}
	for _, p := range e.Players {
		state.Players = append(state.Players, *p)
	}
	go func() {
		if err := e.PersistSnapshotFn(state); err != nil {
			e.log.Warnf("failed to persist session snapshot: %v", err)
		}
	}()
}

// broadcastCards fans changed card rows out per player, obfuscating each row
// for its viewer. Assumes lock is held.
func (e *Engine) broadcastCards(changed []models.SessionCardInstance) {
	for _, inst := range changed {
		for _, p := range e.Players {
			obf := e.obfuscateCard(inst, p.PlayerID)
			e.fireEventToPlayer(p.PlayerID, Event{Type: "delta", Delta: &Delta{
				Entity: EntityCard,
				Event:  EventUpdate,
				After:  &DeltaRow{Card: &obf},
			}})
		}
	}
}

// broadcastPlayer fans one player row out to everyone. Assumes lock is held.
func (e *Engine) broadcastPlayer(p *models.SessionPlayer, event EventType) {
	row := *p
	e.fireEvent(Event{Type: "delta", Delta: &Delta{
		Entity: EntityPlayer,
		Event:  event,
		After:  &DeltaRow{Player: &row},
	}})
}

// broadcastSession fans the session row out to everyone. Assumes lock is
// held.
func (e *Engine) broadcastSession() {
	row := e.State
	e.fireEvent(Event{Type: "delta", Delta: &Delta{
		Entity: EntitySession,
		Event:  EventUpdate,
		After:  &DeltaRow{Session: &row},
	}})
}

// fireEvent broadcasts an event to all connected players. Assumes lock is
// held.
func (e *Engine) fireEvent(ev Event) {
	if e.BroadcastFn != nil {
		e.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends an event only to a specific player. Assumes lock
// is held.
func (e *Engine) fireEventToPlayer(playerID uuid.UUID, ev Event) {
	if e.BroadcastToPlayerFn != nil {
		e.BroadcastToPlayerFn(playerID, ev)
	}
}

// playerByID assumes lock is held.
func (e *Engine) playerByID(playerID uuid.UUID) *models.SessionPlayer {
	for _, p := range e.Players {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

// describeCard names a card for the action log when it is face up, and says
// "a card" otherwise so the log never leaks hidden identities.
func (e *Engine) describeCard(instanceID uuid.UUID) string {
	inst, ok := e.Table.Instance(instanceID)
	if !ok || !inst.IsRevealed {
		return "a card"
	}
	if def, defOK := e.Catalog.Card(inst.CardID); defOK {
		return def.Name
	}
	return "a card"
}

// payloadUUID extracts and parses a uuid field from an intent payload.
func payloadUUID(payload map[string]interface{}, key string) (uuid.UUID, error) {
	raw, exists := payload[key]
	if !exists || raw == nil {
		return uuid.Nil, fmt.Errorf("%w: missing %s", ErrValidation, key)
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s must be a string", ErrValidation, key)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", ErrValidation, key)
	}
	return id, nil
}
