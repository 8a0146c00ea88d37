// internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// Catalog is the immutable per-game bundle of card definitions, pile
// definitions and the host's rule configuration. It is assembled once from
// the game template and shared read-only by every session of that game.
type Catalog struct {
	GameID uuid.UUID
	Config models.GameConfiguration

	cards map[uuid.UUID]*models.CardDefinition
	decks map[uuid.UUID][]*models.CardDefinition
	piles map[uuid.UUID]*models.Pile

	// deck/pile iteration order is fixed at construction so deals and
	// snapshots are deterministic given the same template.
	cardOrder []uuid.UUID
	pileOrder []uuid.UUID
}

// New builds a catalog from authored rows. Definitions with a zero Count are
// normalized to one copy; duplicate card or pile ids are rejected.
func New(gameID uuid.UUID, cfg models.GameConfiguration, defs []models.CardDefinition, piles []models.Pile) (*Catalog, error) {
	c := &Catalog{
		GameID: gameID,
		Config: cfg,
		cards:  make(map[uuid.UUID]*models.CardDefinition, len(defs)),
		decks:  make(map[uuid.UUID][]*models.CardDefinition),
		piles:  make(map[uuid.UUID]*models.Pile, len(piles)),
	}
	for i := range defs {
		def := defs[i]
		if def.Count <= 0 {
			def.Count = 1
		}
		if _, dup := c.cards[def.CardID]; dup {
			return nil, fmt.Errorf("duplicate card definition %s", def.CardID)
		}
		c.cards[def.CardID] = &def
		c.decks[def.DeckID] = append(c.decks[def.DeckID], &def)
		c.cardOrder = append(c.cardOrder, def.CardID)
	}
	for i := range piles {
		p := piles[i]
		if _, dup := c.piles[p.PileID]; dup {
			return nil, fmt.Errorf("duplicate pile definition %s", p.PileID)
		}
		c.piles[p.PileID] = &p
		c.pileOrder = append(c.pileOrder, p.PileID)
	}
	return c, nil
}

// Card resolves a card definition by id.
func (c *Catalog) Card(cardID uuid.UUID) (*models.CardDefinition, bool) {
	def, ok := c.cards[cardID]
	return def, ok
}

// Pile resolves a pile definition by id.
func (c *Catalog) Pile(pileID uuid.UUID) (*models.Pile, bool) {
	p, ok := c.piles[pileID]
	return p, ok
}

// Definitions returns every card definition in authoring order.
func (c *Catalog) Definitions() []models.CardDefinition {
	out := make([]models.CardDefinition, 0, len(c.cardOrder))
	for _, id := range c.cardOrder {
		out = append(out, *c.cards[id])
	}
	return out
}

// Piles returns every pile definition in authoring order.
func (c *Catalog) Piles() []models.Pile {
	out := make([]models.Pile, 0, len(c.pileOrder))
	for _, id := range c.pileOrder {
		out = append(out, *c.piles[id])
	}
	return out
}

// Deck returns the definitions belonging to one deck.
func (c *Catalog) Deck(deckID uuid.UUID) []models.CardDefinition {
	defs := c.decks[deckID]
	out := make([]models.CardDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, *d)
	}
	return out
}

// DropOrders maps card id to its fixed deal ordering, used by the
// deal-all-cards pre-sort.
func (c *Catalog) DropOrders() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(c.cards))
	for id, def := range c.cards {
		out[id] = def.DropOrder
	}
	return out
}

// TotalCopies is the number of physical card instances one session of this
// game contains.
func (c *Catalog) TotalCopies() int {
	total := 0
	for _, def := range c.cards {
		total += def.Count
	}
	return total
}

// CardsInPile answers the pile registry's derived query: the instances
// currently sitting in pile pileID, ordered top-first. For player piles the
// result is filtered to forPlayer's cards; forPlayer is ignored for board
// piles.
func (c *Catalog) CardsInPile(snapshot []models.SessionCardInstance, pileID, forPlayer uuid.UUID) ([]models.SessionCardInstance, error) {
	pile, ok := c.piles[pileID]
	if !ok {
		return nil, fmt.Errorf("unknown pile %s", pileID)
	}
	var out []models.SessionCardInstance
	for _, inst := range snapshot {
		if !inst.Location.InPile() || inst.Location.PileID != pileID {
			continue
		}
		if pile.IsPlayerPile && inst.Location.PlayerID != forPlayer {
			continue
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Location.Position < out[j].Location.Position
	})
	return out, nil
}
