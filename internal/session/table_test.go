// internal/session/table_test.go
package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// newBareTable builds a table directly, bypassing the engine, for unit tests
// of pure card movement.
func newBareTable(t *testing.T, numDefs, countPer int) *CardTable {
	t.Helper()
	return NewCardTable(uuid.New(), testDefinitions(numDefs, countPer))
}

// instanceIDs collects the id multiset of a slice of rows.
func instanceIDs(rows []models.SessionCardInstance) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(rows))
	for _, r := range rows {
		out[r.InstanceID] = true
	}
	return out
}

func TestNewCardTableLaysOutContiguousDeck(t *testing.T) {
	table := newBareTable(t, 4, 2)

	require.Equal(t, 8, table.Size())
	deck := table.DeckCards()
	require.Len(t, deck, 8)
	for i, inst := range deck {
		assert.Equal(t, i+1, inst.Location.Position, "deck should be contiguous from 1")
		assert.False(t, inst.IsRevealed)
	}
	require.NoError(t, table.CheckInvariant())
}

func TestDrawTopRenumbersDeck(t *testing.T) {
	table := newBareTable(t, 4, 2)
	playerID := uuid.New()

	changed, err := table.DrawTop(playerID, false, 0)
	require.NoError(t, err)
	require.NotEmpty(t, changed)

	hand := table.HandOf(playerID)
	require.Len(t, hand, 1)
	assert.True(t, hand[0].Location.InHand())
	assert.False(t, hand[0].IsRevealed, "drawn cards come up face down")

	deck := table.DeckCards()
	require.Len(t, deck, 7)
	for i, inst := range deck {
		assert.Equal(t, i+1, inst.Location.Position, "deck must stay contiguous after a draw")
	}
	require.NoError(t, table.CheckInvariant())
}

func TestDrawTopTakesTopCardAndKeepsOrder(t *testing.T) {
	table := newBareTable(t, 5, 1)
	playerID := uuid.New()

	before := table.DeckCards()
	require.Len(t, before, 5)

	_, err := table.DrawTop(playerID, false, 0)
	require.NoError(t, err)

	hand := table.HandOf(playerID)
	require.Len(t, hand, 1)
	assert.Equal(t, before[0].InstanceID, hand[0].InstanceID, "the drawn card is the one at position 1")

	deck := table.DeckCards()
	require.Len(t, deck, 4)
	for i, inst := range deck {
		assert.Equal(t, before[i+1].InstanceID, inst.InstanceID, "survivors keep their relative order")
		assert.Equal(t, i+1, inst.Location.Position)
	}
	require.NoError(t, table.CheckInvariant())
}

func TestDrawTopEmptyDeck(t *testing.T) {
	table := newBareTable(t, 2, 1)
	playerID := uuid.New()

	for i := 0; i < 2; i++ {
		_, err := table.DrawTop(playerID, false, 0)
		require.NoError(t, err)
	}
	_, err := table.DrawTop(playerID, false, 0)
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

func TestDrawTopHandCap(t *testing.T) {
	table := newBareTable(t, 4, 1)
	playerID := uuid.New()

	_, err := table.DrawTop(playerID, false, 1)
	require.NoError(t, err)
	_, err = table.DrawTop(playerID, false, 1)
	assert.ErrorIs(t, err, ErrHandFull)
}

func TestDrawTopHiddenFromOwner(t *testing.T) {
	table := newBareTable(t, 2, 1)
	playerID := uuid.New()

	_, err := table.DrawTop(playerID, true, 0)
	require.NoError(t, err)
	hand := table.HandOf(playerID)
	require.Len(t, hand, 1)
	assert.True(t, hand[0].IsHiddenFromOwner)
}

func TestDiscardToPileStacksOnTop(t *testing.T) {
	table := newBareTable(t, 4, 2)
	playerID := uuid.New()
	pile := &models.Pile{PileID: uuid.New(), Name: "Discard", IsFaceUp: true}

	for i := 0; i < 2; i++ {
		_, err := table.DrawTop(playerID, false, 0)
		require.NoError(t, err)
	}
	hand := table.HandOf(playerID)
	require.Len(t, hand, 2)
	first, second := hand[0].InstanceID, hand[1].InstanceID

	_, err := table.Discard(playerID, first, pile)
	require.NoError(t, err)
	_, err = table.Discard(playerID, second, pile)
	require.NoError(t, err)

	stack := table.PileCards(pile, playerID)
	require.Len(t, stack, 2)
	assert.Equal(t, second, stack[0].InstanceID, "last discard should be on top")
	assert.Equal(t, 1, stack[0].Location.Position)
	assert.Equal(t, first, stack[1].InstanceID)
	assert.Equal(t, 2, stack[1].Location.Position)
	assert.True(t, stack[0].IsRevealed, "face-up pile forces cards face up")
	require.NoError(t, table.CheckInvariant())
}

func TestDiscardToDeckReshuffles(t *testing.T) {
	table := newBareTable(t, 4, 2)
	playerID := uuid.New()
	before := instanceIDs(table.Snapshot())

	_, err := table.DrawTop(playerID, false, 0)
	require.NoError(t, err)
	hand := table.HandOf(playerID)
	require.Len(t, hand, 1)

	_, err = table.Discard(playerID, hand[0].InstanceID, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, table.DeckSize(), "card should be back in the deck")
	assert.Empty(t, table.HandOf(playerID))
	assert.Equal(t, before, instanceIDs(table.Snapshot()), "no instance created or destroyed")
	require.NoError(t, table.CheckInvariant())
}

func TestDiscardRequiresOwnership(t *testing.T) {
	table := newBareTable(t, 4, 2)
	owner, thief := uuid.New(), uuid.New()

	_, err := table.DrawTop(owner, false, 0)
	require.NoError(t, err)
	hand := table.HandOf(owner)

	_, err = table.Discard(thief, hand[0].InstanceID, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = table.Discard(owner, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShuffleIsAPermutation(t *testing.T) {
	table := newBareTable(t, 4, 2)
	before := instanceIDs(table.DeckCards())

	changed, err := table.Shuffle()
	require.NoError(t, err)
	require.Len(t, changed, 8)

	deck := table.DeckCards()
	require.Len(t, deck, 8)
	seen := make(map[int]bool)
	for _, inst := range deck {
		assert.False(t, seen[inst.Location.Position], "positions must be unique")
		seen[inst.Location.Position] = true
		assert.GreaterOrEqual(t, inst.Location.Position, 1)
		assert.LessOrEqual(t, inst.Location.Position, 8)
		assert.False(t, inst.IsRevealed, "deck cards come out face down")
	}
	assert.Equal(t, before, instanceIDs(deck))
	require.NoError(t, table.CheckInvariant())
}

func TestRedealRoundRobin(t *testing.T) {
	table := newBareTable(t, 4, 2)
	cfg := defaultTestConfig()

	p1 := &models.SessionPlayer{PlayerID: uuid.New(), PlayerOrder: 1}
	p2 := &models.SessionPlayer{PlayerID: uuid.New(), PlayerOrder: 2}

	changed, err := table.Redeal(cfg, []*models.SessionPlayer{p2, p1}, map[uuid.UUID]int{})
	require.NoError(t, err)
	require.Len(t, changed, 8, "every instance is touched by a redeal")

	assert.Len(t, table.HandOf(p1.PlayerID), 2)
	assert.Len(t, table.HandOf(p2.PlayerID), 2)
	deck := table.DeckCards()
	require.Len(t, deck, 4)
	for i, inst := range deck {
		assert.Equal(t, i+1, inst.Location.Position)
	}
	for _, inst := range table.Snapshot() {
		assert.False(t, inst.IsRevealed, "redeal resets visibility")
		assert.False(t, inst.IsHiddenFromOwner)
	}
	require.NoError(t, table.CheckInvariant())
}

func TestRedealDealAllCards(t *testing.T) {
	table := newBareTable(t, 4, 2)
	cfg := defaultTestConfig()
	cfg.DealAllCards = true

	p1 := &models.SessionPlayer{PlayerID: uuid.New(), PlayerOrder: 1}
	p2 := &models.SessionPlayer{PlayerID: uuid.New(), PlayerOrder: 2}

	_, err := table.Redeal(cfg, []*models.SessionPlayer{p1, p2}, map[uuid.UUID]int{})
	require.NoError(t, err)

	assert.Len(t, table.HandOf(p1.PlayerID), 4)
	assert.Len(t, table.HandOf(p2.PlayerID), 4)
	assert.Zero(t, table.DeckSize())
	require.NoError(t, table.CheckInvariant())
}

func TestRedealNoPlayers(t *testing.T) {
	table := newBareTable(t, 2, 1)
	_, err := table.Redeal(defaultTestConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPickupReturnsOwnCards(t *testing.T) {
	table := newBareTable(t, 4, 2)
	playerID := uuid.New()
	pile := &models.Pile{PileID: uuid.New(), Name: "Played", IsPlayerPile: true, IsFaceUp: true}

	for i := 0; i < 2; i++ {
		_, err := table.DrawTop(playerID, false, 0)
		require.NoError(t, err)
	}
	for _, inst := range table.HandOf(playerID) {
		_, err := table.Discard(playerID, inst.InstanceID, pile)
		require.NoError(t, err)
	}
	require.Empty(t, table.HandOf(playerID))

	changed, err := table.Pickup(playerID, pile)
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Len(t, table.HandOf(playerID), 2)
	assert.Empty(t, table.PileCards(pile, playerID))

	// Picking up an empty pile is a silent no-op.
	changed, err = table.Pickup(playerID, pile)
	require.NoError(t, err)
	assert.Empty(t, changed)
	require.NoError(t, table.CheckInvariant())
}

func TestPickupRenumbersRemainingStack(t *testing.T) {
	table := newBareTable(t, 4, 2)
	a, b := uuid.New(), uuid.New()
	pile := &models.Pile{PileID: uuid.New(), Name: "Discard", IsFaceUp: true}

	// Interleave discards from two players onto the shared pile.
	for i := 0; i < 2; i++ {
		_, err := table.DrawTop(a, false, 0)
		require.NoError(t, err)
		_, err = table.DrawTop(b, false, 0)
		require.NoError(t, err)
	}
	for _, owner := range []uuid.UUID{a, b, a, b} {
		hand := table.HandOf(owner)
		require.NotEmpty(t, hand)
		_, err := table.Discard(owner, hand[0].InstanceID, pile)
		require.NoError(t, err)
	}

	_, err := table.Pickup(a, pile)
	require.NoError(t, err)
	assert.Len(t, table.HandOf(a), 2)

	stack := table.PileCards(pile, b)
	require.Len(t, stack, 2)
	for i, inst := range stack {
		assert.Equal(t, i+1, inst.Location.Position, "remaining stack must be renumbered")
		assert.Equal(t, b, inst.Location.PlayerID)
	}
	require.NoError(t, table.CheckInvariant())
}

func TestApplyRejectsConflictingUpdates(t *testing.T) {
	table := newBareTable(t, 2, 1)
	deck := table.DeckCards()
	target := deck[0]

	updates := []CardUpdate{
		{InstanceID: target.InstanceID, Location: models.HandLocation(uuid.New())},
		{InstanceID: target.InstanceID, Location: models.DeckLocation(1)},
	}
	_, err := table.Apply(updates)
	assert.ErrorIs(t, err, ErrConflict)

	// The table is untouched after a rejected batch.
	inst, ok := table.Instance(target.InstanceID)
	require.True(t, ok)
	assert.True(t, inst.Location.InDeck())
}

func TestApplyValidatesBeforeWriting(t *testing.T) {
	table := newBareTable(t, 2, 1)
	deck := table.DeckCards()

	updates := []CardUpdate{
		{InstanceID: deck[0].InstanceID, Location: models.HandLocation(uuid.New())},
		{InstanceID: deck[1].InstanceID, Location: models.CardLocation{Kind: models.LocationHand}}, // nil player: illegal
	}
	_, err := table.Apply(updates)
	assert.ErrorIs(t, err, ErrValidation)

	inst, ok := table.Instance(deck[0].InstanceID)
	require.True(t, ok)
	assert.True(t, inst.Location.InDeck(), "nothing may be written when any row fails validation")
}

func TestDedupeUpdatesKeepsFirstWrite(t *testing.T) {
	id := uuid.New()
	other := uuid.New()
	updates := []CardUpdate{
		{InstanceID: id, Location: models.DeckLocation(1)},
		{InstanceID: other, Location: models.DeckLocation(2)},
		{InstanceID: id, Location: models.DeckLocation(3)},
	}

	deduped, dropped := DedupeUpdates(updates)
	assert.True(t, dropped)
	require.Len(t, deduped, 2)
	assert.Equal(t, 1, deduped[0].Location.Position, "first write wins")

	deduped, dropped = DedupeUpdates(deduped)
	assert.False(t, dropped)
	assert.Len(t, deduped, 2)
}

func TestPassMovesCardBetweenHands(t *testing.T) {
	table := newBareTable(t, 2, 1)
	from, to := uuid.New(), uuid.New()

	_, err := table.DrawTop(from, false, 0)
	require.NoError(t, err)
	inst := table.HandOf(from)[0]

	_, err = table.Pass(from, inst.InstanceID, to)
	require.NoError(t, err)
	assert.Empty(t, table.HandOf(from))
	require.Len(t, table.HandOf(to), 1)

	// Only the current owner may pass.
	_, err = table.Pass(from, inst.InstanceID, from)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTradeSwapsOwners(t *testing.T) {
	table := newBareTable(t, 4, 1)
	a, b := uuid.New(), uuid.New()

	_, err := table.DrawTop(a, false, 0)
	require.NoError(t, err)
	_, err = table.DrawTop(b, false, 0)
	require.NoError(t, err)
	cardA := table.HandOf(a)[0]
	cardB := table.HandOf(b)[0]

	changed, err := table.Trade(cardA.InstanceID, cardB.InstanceID)
	require.NoError(t, err)
	require.Len(t, changed, 2)

	assert.Equal(t, cardB.InstanceID, table.HandOf(a)[0].InstanceID)
	assert.Equal(t, cardA.InstanceID, table.HandOf(b)[0].InstanceID)

	// Deck cards cannot take part in a trade.
	deckCard := table.DeckCards()[0]
	_, err = table.Trade(cardA.InstanceID, deckCard.InstanceID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMoveAllToDeckPreservesRelativeOrder(t *testing.T) {
	table := newBareTable(t, 4, 2)
	playerID := uuid.New()
	pile := &models.Pile{PileID: uuid.New(), Name: "Discard", IsFaceUp: true}

	for i := 0; i < 3; i++ {
		_, err := table.DrawTop(playerID, false, 0)
		require.NoError(t, err)
	}
	var order []uuid.UUID
	for i := 0; i < 3; i++ {
		hand := table.HandOf(playerID)
		_, err := table.Discard(playerID, hand[0].InstanceID, pile)
		require.NoError(t, err)
	}
	for _, inst := range table.PileCards(pile, playerID) {
		order = append(order, inst.InstanceID)
	}

	deckBefore := table.DeckSize()
	changed, err := table.MoveAllToDeck(CardSelector{PileID: pile.PileID})
	require.NoError(t, err)
	require.Len(t, changed, 3)

	deck := table.DeckCards()
	require.Len(t, deck, deckBefore+3)
	bottom := deck[deckBefore:]
	for i, inst := range bottom {
		assert.Equal(t, order[i], inst.InstanceID, "stack order must survive the move")
		assert.False(t, inst.IsRevealed)
	}
	require.NoError(t, table.CheckInvariant())
}

func TestMoveToOtherPileShiftsTarget(t *testing.T) {
	table := newBareTable(t, 4, 2)
	playerID := uuid.New()
	src := &models.Pile{PileID: uuid.New(), Name: "Discard", IsFaceUp: true}
	dst := &models.Pile{PileID: uuid.New(), Name: "Burn"}

	for i := 0; i < 3; i++ {
		_, err := table.DrawTop(playerID, false, 0)
		require.NoError(t, err)
	}
	hand := table.HandOf(playerID)
	_, err := table.Discard(playerID, hand[0].InstanceID, dst)
	require.NoError(t, err)
	sitting := table.PileCards(dst, playerID)[0].InstanceID

	for _, inst := range table.HandOf(playerID) {
		_, err := table.Discard(playerID, inst.InstanceID, src)
		require.NoError(t, err)
	}

	changed, err := table.MoveToOtherPile(CardSelector{PileID: src.PileID}, dst, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, changed, 3, "2 moved rows plus the shifted occupant")

	stack := table.PileCards(dst, playerID)
	require.Len(t, stack, 3)
	assert.Equal(t, sitting, stack[2].InstanceID, "existing occupant shifts to the bottom")
	for i, inst := range stack {
		assert.Equal(t, i+1, inst.Location.Position)
		assert.False(t, inst.IsRevealed, "face-down target keeps cards hidden")
	}
	assert.Empty(t, table.PileCards(src, playerID))
	require.NoError(t, table.CheckInvariant())
}

func TestToggleRevealed(t *testing.T) {
	table := newBareTable(t, 2, 1)
	inst := table.DeckCards()[0]

	changed, err := table.ToggleRevealed(inst.InstanceID)
	require.NoError(t, err)
	assert.True(t, changed[0].IsRevealed)

	changed, err = table.ToggleRevealed(inst.InstanceID)
	require.NoError(t, err)
	assert.False(t, changed[0].IsRevealed)

	_, err = table.ToggleRevealed(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
