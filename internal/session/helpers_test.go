// internal/session/helpers_test.go
package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/calebheinzman/tabletop-arcade/internal/catalog"
	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []Event               // Events sent to everyone
	playerEvents map[uuid.UUID][]Event // Events sent to specific players
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{
		playerEvents: make(map[uuid.UUID][]Event),
	}
}

func (mb *mockBroadcaster) broadcastFn(ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(playerID uuid.UUID, ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = []Event{}
	mb.playerEvents = make(map[uuid.UUID][]Event)
}

func (mb *mockBroadcaster) getLastEvent() *Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.allEvents) == 0 {
		return nil
	}
	return &mb.allEvents[len(mb.allEvents)-1]
}

func (mb *mockBroadcaster) getLastPlayerEvent(playerID uuid.UUID) *Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events, ok := mb.playerEvents[playerID]
	if !ok || len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

// cardDeltasFor returns the card-update deltas sent privately to one player.
func (mb *mockBroadcaster) cardDeltasFor(playerID uuid.UUID) []Delta {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []Delta
	for _, ev := range mb.playerEvents[playerID] {
		if ev.Type == "delta" && ev.Delta != nil && ev.Delta.Entity == EntityCard {
			out = append(out, *ev.Delta)
		}
	}
	return out
}

// testPiles returns the standard pile layout used by the fixtures: a face-up
// shared discard pile, a face-up per-player pile, and a face-down board pile
// whose values stay hidden even when cards are flagged revealed.
func testPiles(gameID uuid.UUID) (board, player, hidden models.Pile) {
	board = models.Pile{PileID: uuid.New(), GameID: gameID, Name: "Discard", IsFaceUp: true}
	player = models.Pile{PileID: uuid.New(), GameID: gameID, Name: "Played", IsPlayerPile: true, IsFaceUp: true}
	hidden = models.Pile{PileID: uuid.New(), GameID: gameID, Name: "Mystery", HideValues: true}
	return
}

// testDefinitions authors numDefs card templates with countPer copies each.
func testDefinitions(numDefs, countPer int) []models.CardDefinition {
	deckID := uuid.New()
	defs := make([]models.CardDefinition, numDefs)
	for i := range defs {
		defs[i] = models.CardDefinition{
			DeckID:    deckID,
			CardID:    uuid.New(),
			Name:      fmt.Sprintf("Card %d", i+1),
			Type:      "standard",
			DropOrder: i + 1,
			Count:     countPer,
		}
	}
	return defs
}

// defaultTestConfig enables every intent family so individual tests disable
// what they need. Four defs with two copies each gives 8 instances; two
// starting cards and a 20-point pool with a 5-point stake supports up to
// four seats.
func defaultTestConfig() models.GameConfiguration {
	cfg := models.DefaultGameConfiguration()
	cfg.CanReveal = true
	cfg.RedealCards = true
	cfg.TradeCards = true
	cfg.PeakCards = true
	cfg.RevealHands = true
	cfg.PassCards = true
	cfg.StartingNumCards = 2
	cfg.StartingNumPoints = 5
	cfg.NumPoints = 20
	return cfg
}

// testSession bundles everything a scenario needs.
type testSession struct {
	eng        *Engine
	players    []*models.SessionPlayer
	mb         *mockBroadcaster
	boardPile  models.Pile
	playerPile models.Pile
	hiddenPile models.Pile
}

// newTestEngine builds an engine over the standard fixture catalog without
// seating or starting anything.
func newTestEngine(t *testing.T, tweak func(*models.GameConfiguration)) *testSession {
	t.Helper()

	cfg := defaultTestConfig()
	if tweak != nil {
		tweak(&cfg)
	}
	gameID := uuid.New()
	board, player, hidden := testPiles(gameID)
	cat, err := catalog.New(gameID, cfg, testDefinitions(4, 2), []models.Pile{board, player, hidden})
	require.NoError(t, err)

	eng := NewEngine(cat)
	mb := newMockBroadcaster()
	eng.BroadcastFn = mb.broadcastFn
	eng.BroadcastToPlayerFn = mb.broadcastToPlayerFn

	return &testSession{
		eng:        eng,
		mb:         mb,
		boardPile:  board,
		playerPile: player,
		hiddenPile: hidden,
	}
}

// setupTestSession seats numPlayers, starts the session, and clears the
// setup-phase events so assertions see only the scenario's own traffic.
func setupTestSession(t *testing.T, numPlayers int, tweak func(*models.GameConfiguration)) *testSession {
	t.Helper()

	ts := newTestEngine(t, tweak)
	for i := 0; i < numPlayers; i++ {
		p, err := ts.eng.Join(fmt.Sprintf("player-%d", i+1))
		require.NoError(t, err)
		ts.players = append(ts.players, p)
	}
	require.NoError(t, ts.eng.StartSession())
	require.True(t, ts.eng.State.IsLive, "session should be live after start")

	ts.mb.clear()
	return ts
}

// handOf is a shorthand for the player's current hand.
func (ts *testSession) handOf(i int) []models.SessionCardInstance {
	return ts.eng.Table.HandOf(ts.players[i].PlayerID)
}

// intent builds a models.Intent with an optional payload.
func intent(typ string, payload map[string]interface{}) models.Intent {
	return models.Intent{Type: typ, Payload: payload}
}
