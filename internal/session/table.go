// internal/session/table.go
package session

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// CardUpdate is one target-state row for CardTable.Apply.
type CardUpdate struct {
	InstanceID        uuid.UUID           `json:"instanceId"`
	Location          models.CardLocation `json:"location"`
	IsRevealed        bool                `json:"isRevealed"`
	IsHiddenFromOwner bool                `json:"isHiddenFromOwner"`
}

// CardSelector names a group of instances for bulk re-homing: a pile
// (optionally narrowed to one player's cards), or a player's hand when
// PileID is nil.
type CardSelector struct {
	PileID   uuid.UUID
	PlayerID uuid.UUID
}

// CardTable is the authoritative ledger of every card instance in a session.
// It is the only component permitted to change a card's location or
// visibility flags. The table itself is not goroutine-safe; the owning
// engine serializes access.
type CardTable struct {
	sessionID uuid.UUID
	cards     map[uuid.UUID]*models.SessionCardInstance
	rng       *rand.Rand
}

// NewCardTable creates one instance per copy of every card definition, laid
// out as an unshuffled deck in authoring order.
func NewCardTable(sessionID uuid.UUID, defs []models.CardDefinition) *CardTable {
	t := &CardTable{
		sessionID: sessionID,
		cards:     make(map[uuid.UUID]*models.SessionCardInstance),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	pos := 1
	for _, def := range defs {
		count := def.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			inst := &models.SessionCardInstance{
				SessionID:  sessionID,
				InstanceID: uuid.New(),
				CardID:     def.CardID,
				DeckID:     def.DeckID,
				Location:   models.DeckLocation(pos),
			}
			t.cards[inst.InstanceID] = inst
			pos++
		}
	}
	return t
}

// Instance returns a copy of one row.
func (t *CardTable) Instance(instanceID uuid.UUID) (models.SessionCardInstance, bool) {
	inst, ok := t.cards[instanceID]
	if !ok {
		return models.SessionCardInstance{}, false
	}
	return *inst, true
}

// Size is the total number of instances on the table.
func (t *CardTable) Size() int { return len(t.cards) }

// DeckSize is the number of instances currently in the draw deck.
func (t *CardTable) DeckSize() int { return len(t.deckCards()) }

// Snapshot returns a copy of every row, ordered by instance id for
// determinism.
func (t *CardTable) Snapshot() []models.SessionCardInstance {
	out := make([]models.SessionCardInstance, 0, len(t.cards))
	for _, inst := range t.cards {
		out = append(out, *inst)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InstanceID.String() < out[j].InstanceID.String()
	})
	return out
}

// DeckCards returns the draw deck in draw order (position 1 first).
func (t *CardTable) DeckCards() []models.SessionCardInstance {
	deck := t.deckCards()
	out := make([]models.SessionCardInstance, len(deck))
	for i, inst := range deck {
		out[i] = *inst
	}
	return out
}

// HandOf returns a player's hand, ordered by instance id.
func (t *CardTable) HandOf(playerID uuid.UUID) []models.SessionCardInstance {
	var out []models.SessionCardInstance
	for _, inst := range t.cards {
		if inst.Location.InHand() && inst.Location.PlayerID == playerID {
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InstanceID.String() < out[j].InstanceID.String()
	})
	return out
}

// PileCards returns the stack for a pile, top (position 1) first. For player
// piles the stack is the given player's; board piles share one stack.
func (t *CardTable) PileCards(pile *models.Pile, playerID uuid.UUID) []models.SessionCardInstance {
	stack := t.pileStack(pile, playerID)
	out := make([]models.SessionCardInstance, len(stack))
	for i, inst := range stack {
		out[i] = *inst
	}
	return out
}

// DedupeUpdates drops duplicate writes to the same instance, keeping the
// first. The returned flag reports whether anything was dropped; callers are
// expected to de-duplicate before Apply and to log when they had to.
func DedupeUpdates(updates []CardUpdate) ([]CardUpdate, bool) {
	seen := make(map[uuid.UUID]bool, len(updates))
	out := updates[:0:0]
	dropped := false
	for _, u := range updates {
		if seen[u.InstanceID] {
			dropped = true
			continue
		}
		seen[u.InstanceID] = true
		out = append(out, u)
	}
	return out, dropped
}

// Apply writes a batch of target-state rows as one unit. It fails with
// ErrConflict if two updates target the same instance (de-duplication is the
// caller's job) and with ErrNotFound or ErrValidation before anything is
// written. On success it returns the new state of every touched row.
func (t *CardTable) Apply(updates []CardUpdate) ([]models.SessionCardInstance, error) {
	seen := make(map[uuid.UUID]bool, len(updates))
	for _, u := range updates {
		if seen[u.InstanceID] {
			return nil, fmt.Errorf("%w: instance %s", ErrConflict, u.InstanceID)
		}
		seen[u.InstanceID] = true
		if _, ok := t.cards[u.InstanceID]; !ok {
			return nil, fmt.Errorf("%w: instance %s", ErrNotFound, u.InstanceID)
		}
		if !u.Location.Valid() {
			return nil, fmt.Errorf("%w: illegal location for instance %s", ErrValidation, u.InstanceID)
		}
	}
	changed := make([]models.SessionCardInstance, 0, len(updates))
	for _, u := range updates {
		inst := t.cards[u.InstanceID]
		inst.Location = u.Location
		inst.IsRevealed = u.IsRevealed
		inst.IsHiddenFromOwner = u.IsHiddenFromOwner
		changed = append(changed, *inst)
	}
	return changed, nil
}

// DrawTop moves the next deck card into the player's hand and renumbers the
// remaining deck to stay contiguous from 1. maxCards <= 0 disables the hand
// cap.
func (t *CardTable) DrawTop(playerID uuid.UUID, hidden bool, maxCards int) ([]models.SessionCardInstance, error) {
	deck := t.deckCards()
	if len(deck) == 0 {
		return nil, ErrEmptyDeck
	}
	if maxCards > 0 && len(t.HandOf(playerID)) >= maxCards {
		return nil, ErrHandFull
	}

	top := deck[0]
	top.Location = models.HandLocation(playerID)
	top.IsRevealed = false
	top.IsHiddenFromOwner = hidden

	changed := []models.SessionCardInstance{*top}
	// Close the position gap, preserving relative order.
	for i, inst := range deck[1:] {
		if inst.Location.Position != i+1 {
			inst.Location = models.DeckLocation(i + 1)
		}
		changed = append(changed, *inst)
	}
	return changed, nil
}

// Discard moves a card out of the player's hand. With no pile the card
// returns to the deck and the whole deck is reshuffled; with a pile it lands
// on top (position 1) and the rest of that stack shifts down. Visibility is
// forced to the pile's face-up flag.
func (t *CardTable) Discard(playerID, instanceID uuid.UUID, pile *models.Pile) ([]models.SessionCardInstance, error) {
	inst, ok := t.cards[instanceID]
	if !ok {
		return nil, fmt.Errorf("%w: instance %s", ErrNotFound, instanceID)
	}
	if !inst.Location.InHand() || inst.Location.PlayerID != playerID {
		return nil, fmt.Errorf("%w: card is not in your hand", ErrValidation)
	}

	if pile == nil {
		inst.Location = models.DeckLocation(len(t.deckCards()) + 1)
		inst.IsRevealed = false
		inst.IsHiddenFromOwner = false
		return t.Shuffle()
	}

	changed := make([]models.SessionCardInstance, 0, 4)
	for _, other := range t.pileStack(pile, playerID) {
		other.Location.Position++
		changed = append(changed, *other)
	}
	inst.Location = models.PileLocation(pile.PileID, playerID, 1)
	inst.IsRevealed = pile.IsFaceUp
	inst.IsHiddenFromOwner = false
	changed = append(changed, *inst)
	return changed, nil
}

// Shuffle assigns a uniform random permutation of positions to the deck.
// The permutation is Fisher-Yates over the position set rather than a
// repeated swap of the cards, so every ordering is equally likely. Deck
// cards come out face down.
func (t *CardTable) Shuffle() ([]models.SessionCardInstance, error) {
	deck := t.deckCards()
	n := len(deck)
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i + 1
	}
	for i := n - 1; i > 0; i-- {
		j := t.rng.Intn(i + 1)
		positions[i], positions[j] = positions[j], positions[i]
	}

	changed := make([]models.SessionCardInstance, 0, n)
	for i, inst := range deck {
		inst.Location = models.DeckLocation(positions[i])
		inst.IsRevealed = false
		inst.IsHiddenFromOwner = false
		changed = append(changed, *inst)
	}
	return changed, nil
}

// Redeal gathers every instance regardless of where it sits, shuffles, and
// deals fresh hands: a fixed startingNumCards per player round-robin by
// player order, or floor(total/players) each when dealAllCards is set (after
// a dropOrder-descending pre-sort). The remainder becomes the new deck,
// numbered from 1. All visibility flags reset.
func (t *CardTable) Redeal(cfg models.GameConfiguration, players []*models.SessionPlayer, dropOrder map[uuid.UUID]int) ([]models.SessionCardInstance, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: no players to deal to", ErrValidation)
	}

	all := make([]*models.SessionCardInstance, 0, len(t.cards))
	for _, inst := range t.cards {
		all = append(all, inst)
	}
	// Deterministic base order before shuffling.
	sort.Slice(all, func(i, j int) bool {
		return all[i].InstanceID.String() < all[j].InstanceID.String()
	})

	if cfg.DealAllCards {
		sort.SliceStable(all, func(i, j int) bool {
			return dropOrder[all[i].CardID] > dropOrder[all[j].CardID]
		})
	}

	for i := len(all) - 1; i > 0; i-- {
		j := t.rng.Intn(i + 1)
		all[i], all[j] = all[j], all[i]
	}

	seats := make([]*models.SessionPlayer, len(players))
	copy(seats, players)
	sort.Slice(seats, func(i, j int) bool {
		return seats[i].PlayerOrder < seats[j].PlayerOrder
	})

	perPlayer := cfg.StartingNumCards
	if cfg.DealAllCards {
		perPlayer = len(all) / len(seats)
	}
	dealt := perPlayer * len(seats)
	if dealt > len(all) {
		dealt = len(all)
	}

	changed := make([]models.SessionCardInstance, 0, len(all))
	for i := 0; i < dealt; i++ {
		inst := all[i]
		inst.Location = models.HandLocation(seats[i%len(seats)].PlayerID)
		inst.IsRevealed = false
		inst.IsHiddenFromOwner = false
		changed = append(changed, *inst)
	}
	for i := dealt; i < len(all); i++ {
		inst := all[i]
		inst.Location = models.DeckLocation(i - dealt + 1)
		inst.IsRevealed = false
		inst.IsHiddenFromOwner = false
		changed = append(changed, *inst)
	}
	return changed, nil
}

// Pickup moves every card the player owns in the given pile into their hand.
// No-op (and no error) when none match. The rest of the stack is renumbered
// to stay contiguous.
func (t *CardTable) Pickup(playerID uuid.UUID, pile *models.Pile) ([]models.SessionCardInstance, error) {
	var picked, remaining []*models.SessionCardInstance
	for _, inst := range t.cards {
		if !inst.Location.InPile() || inst.Location.PileID != pile.PileID {
			continue
		}
		if inst.Location.PlayerID == playerID {
			picked = append(picked, inst)
		} else {
			remaining = append(remaining, inst)
		}
	}
	if len(picked) == 0 {
		return nil, nil
	}

	changed := make([]models.SessionCardInstance, 0, len(picked)+len(remaining))
	for _, inst := range picked {
		inst.Location = models.HandLocation(playerID)
		changed = append(changed, *inst)
	}
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].Location.Position < remaining[j].Location.Position
	})
	for i, inst := range remaining {
		if inst.Location.Position != i+1 {
			inst.Location.Position = i + 1
			changed = append(changed, *inst)
		}
	}
	return changed, nil
}

// MoveAllToDeck re-homes every card matched by the selector to the bottom of
// the deck, preserving their relative order.
func (t *CardTable) MoveAllToDeck(sel CardSelector) ([]models.SessionCardInstance, error) {
	moved := t.selectCards(sel)
	if len(moved) == 0 {
		return nil, nil
	}
	base := len(t.deckCards())
	changed := make([]models.SessionCardInstance, 0, len(moved))
	for i, inst := range moved {
		inst.Location = models.DeckLocation(base + i + 1)
		inst.IsRevealed = false
		inst.IsHiddenFromOwner = false
		changed = append(changed, *inst)
	}
	return changed, nil
}

// MoveToOtherPile re-homes every card matched by the selector onto the top
// of the target pile, preserving relative order: the moved group takes
// positions 1..k and the existing stack shifts down by k. Visibility follows
// the target pile's face-up flag.
func (t *CardTable) MoveToOtherPile(sel CardSelector, target *models.Pile, targetPlayerID uuid.UUID) ([]models.SessionCardInstance, error) {
	moved := t.selectCards(sel)
	if len(moved) == 0 {
		return nil, nil
	}
	changed := make([]models.SessionCardInstance, 0, len(moved))
	for _, inst := range t.pileStack(target, targetPlayerID) {
		inst.Location.Position += len(moved)
		changed = append(changed, *inst)
	}
	for i, inst := range moved {
		inst.Location = models.PileLocation(target.PileID, targetPlayerID, i+1)
		inst.IsRevealed = target.IsFaceUp
		inst.IsHiddenFromOwner = false
		changed = append(changed, *inst)
	}
	return changed, nil
}

// ToggleRevealed flips a card's reveal flag, independent of ownership.
func (t *CardTable) ToggleRevealed(instanceID uuid.UUID) ([]models.SessionCardInstance, error) {
	inst, ok := t.cards[instanceID]
	if !ok {
		return nil, fmt.Errorf("%w: instance %s", ErrNotFound, instanceID)
	}
	inst.IsRevealed = !inst.IsRevealed
	return []models.SessionCardInstance{*inst}, nil
}

// Pass reassigns one hand card to another player.
func (t *CardTable) Pass(fromPlayerID, instanceID, toPlayerID uuid.UUID) ([]models.SessionCardInstance, error) {
	inst, ok := t.cards[instanceID]
	if !ok {
		return nil, fmt.Errorf("%w: instance %s", ErrNotFound, instanceID)
	}
	if !inst.Location.InHand() || inst.Location.PlayerID != fromPlayerID {
		return nil, fmt.Errorf("%w: card is not in your hand", ErrValidation)
	}
	inst.Location = models.HandLocation(toPlayerID)
	return []models.SessionCardInstance{*inst}, nil
}

// Trade swaps the owners of two hand cards in a single mutation, so no
// observer ever sees either card ownerless.
func (t *CardTable) Trade(instA, instB uuid.UUID) ([]models.SessionCardInstance, error) {
	a, ok := t.cards[instA]
	if !ok {
		return nil, fmt.Errorf("%w: instance %s", ErrNotFound, instA)
	}
	b, ok := t.cards[instB]
	if !ok {
		return nil, fmt.Errorf("%w: instance %s", ErrNotFound, instB)
	}
	if !a.Location.InHand() || !b.Location.InHand() {
		return nil, fmt.Errorf("%w: both cards must be in hands to trade", ErrValidation)
	}
	a.Location.PlayerID, b.Location.PlayerID = b.Location.PlayerID, a.Location.PlayerID
	return []models.SessionCardInstance{*a, *b}, nil
}

// CheckInvariant reports the first instance violating the location
// predicates, if any. Used by tests and the engine's debug logging.
func (t *CardTable) CheckInvariant() error {
	seen := make(map[string]uuid.UUID)
	for _, inst := range t.cards {
		if !inst.Location.Valid() {
			return fmt.Errorf("instance %s has illegal location", inst.InstanceID)
		}
		if inst.Location.InDeck() {
			key := fmt.Sprintf("deck:%d", inst.Location.Position)
			if other, dup := seen[key]; dup {
				return fmt.Errorf("deck position %d held by both %s and %s", inst.Location.Position, other, inst.InstanceID)
			}
			seen[key] = inst.InstanceID
		}
	}
	return nil
}

// deckCards returns the live deck rows sorted by position.
func (t *CardTable) deckCards() []*models.SessionCardInstance {
	var deck []*models.SessionCardInstance
	for _, inst := range t.cards {
		if inst.Location.InDeck() {
			deck = append(deck, inst)
		}
	}
	sort.Slice(deck, func(i, j int) bool {
		return deck[i].Location.Position < deck[j].Location.Position
	})
	return deck
}

// pileStack returns the live rows of one pile stack sorted by position.
// Player piles are keyed by (pile, player); board piles share one stack.
func (t *CardTable) pileStack(pile *models.Pile, playerID uuid.UUID) []*models.SessionCardInstance {
	var stack []*models.SessionCardInstance
	for _, inst := range t.cards {
		if !inst.Location.InPile() || inst.Location.PileID != pile.PileID {
			continue
		}
		if pile.IsPlayerPile && inst.Location.PlayerID != playerID {
			continue
		}
		stack = append(stack, inst)
	}
	sort.Slice(stack, func(i, j int) bool {
		return stack[i].Location.Position < stack[j].Location.Position
	})
	return stack
}

// selectCards resolves a CardSelector to live rows in stable order: pile
// cards by stack position, hand cards by instance id.
func (t *CardTable) selectCards(sel CardSelector) []*models.SessionCardInstance {
	var out []*models.SessionCardInstance
	for _, inst := range t.cards {
		switch {
		case sel.PileID != uuid.Nil:
			if !inst.Location.InPile() || inst.Location.PileID != sel.PileID {
				continue
			}
			if sel.PlayerID != uuid.Nil && inst.Location.PlayerID != sel.PlayerID {
				continue
			}
		default:
			if !inst.Location.InHand() || inst.Location.PlayerID != sel.PlayerID {
				continue
			}
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location.Position != out[j].Location.Position {
			return out[i].Location.Position < out[j].Location.Position
		}
		return out[i].InstanceID.String() < out[j].InstanceID.String()
	})
	return out
}
