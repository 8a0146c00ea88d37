// internal/catalog/catalog_test.go
package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

func testDefs() []models.CardDefinition {
	deckID := uuid.New()
	return []models.CardDefinition{
		{DeckID: deckID, CardID: uuid.New(), Name: "Duke", DropOrder: 1, Count: 3},
		{DeckID: deckID, CardID: uuid.New(), Name: "Assassin", DropOrder: 2, Count: 0}, // normalized to 1
		{DeckID: deckID, CardID: uuid.New(), Name: "Contessa", DropOrder: 3, Count: 2},
	}
}

func TestNewNormalizesCountsAndOrders(t *testing.T) {
	gameID := uuid.New()
	defs := testDefs()
	cat, err := New(gameID, models.DefaultGameConfiguration(), defs, nil)
	require.NoError(t, err)

	assert.Equal(t, 6, cat.TotalCopies(), "zero count means one copy")

	got := cat.Definitions()
	require.Len(t, got, 3)
	for i, def := range got {
		assert.Equal(t, defs[i].CardID, def.CardID, "authoring order is preserved")
	}
	assassin, ok := cat.Card(defs[1].CardID)
	require.True(t, ok)
	assert.Equal(t, 1, assassin.Count)

	drops := cat.DropOrders()
	assert.Equal(t, 1, drops[defs[0].CardID])
	assert.Equal(t, 3, drops[defs[2].CardID])
}

func TestNewRejectsDuplicates(t *testing.T) {
	gameID := uuid.New()
	defs := testDefs()
	defs = append(defs, defs[0])
	_, err := New(gameID, models.DefaultGameConfiguration(), defs, nil)
	assert.Error(t, err)

	pile := models.Pile{PileID: uuid.New(), GameID: gameID, Name: "Discard"}
	_, err = New(gameID, models.DefaultGameConfiguration(), testDefs(), []models.Pile{pile, pile})
	assert.Error(t, err)
}

func TestCardsInPileFiltersPlayerPiles(t *testing.T) {
	gameID := uuid.New()
	board := models.Pile{PileID: uuid.New(), GameID: gameID, Name: "Discard"}
	perPlayer := models.Pile{PileID: uuid.New(), GameID: gameID, Name: "Played", IsPlayerPile: true}
	cat, err := New(gameID, models.DefaultGameConfiguration(), testDefs(), []models.Pile{board, perPlayer})
	require.NoError(t, err)

	alice, bob := uuid.New(), uuid.New()
	snapshot := []models.SessionCardInstance{
		{InstanceID: uuid.New(), Location: models.PileLocation(board.PileID, alice, 2)},
		{InstanceID: uuid.New(), Location: models.PileLocation(board.PileID, bob, 1)},
		{InstanceID: uuid.New(), Location: models.PileLocation(perPlayer.PileID, alice, 1)},
		{InstanceID: uuid.New(), Location: models.PileLocation(perPlayer.PileID, bob, 1)},
		{InstanceID: uuid.New(), Location: models.DeckLocation(1)},
	}

	inBoard, err := cat.CardsInPile(snapshot, board.PileID, alice)
	require.NoError(t, err)
	require.Len(t, inBoard, 2, "board piles ignore the player filter")
	assert.Equal(t, 1, inBoard[0].Location.Position, "top first")

	inPlayed, err := cat.CardsInPile(snapshot, perPlayer.PileID, alice)
	require.NoError(t, err)
	require.Len(t, inPlayed, 1)
	assert.Equal(t, alice, inPlayed[0].Location.PlayerID)

	_, err = cat.CardsInPile(snapshot, uuid.New(), alice)
	assert.Error(t, err)
}
