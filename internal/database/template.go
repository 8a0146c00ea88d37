// internal/database/template.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/calebheinzman/tabletop-arcade/internal/catalog"
	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// LoadGameTemplate assembles the immutable per-game catalog: the host's rule
// configuration (a JSONB map on the games row), card definitions and pile
// definitions.
func LoadGameTemplate(ctx context.Context, gameID uuid.UUID) (*catalog.Catalog, error) {
	var rawConfig map[string]interface{}
	q := `SELECT configuration FROM games WHERE id = $1`
	if err := DB.QueryRow(ctx, q, gameID).Scan(&rawConfig); err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("game %s not found", gameID)
		}
		return nil, fmt.Errorf("loading game configuration: %w", err)
	}
	cfg, err := models.ParseGameConfiguration(rawConfig, models.DefaultGameConfiguration())
	if err != nil {
		return nil, fmt.Errorf("parsing game configuration: %w", err)
	}

	defs, err := loadCardDefinitions(ctx, gameID)
	if err != nil {
		return nil, err
	}
	piles, err := loadPiles(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return catalog.New(gameID, cfg, defs, piles)
}

func loadCardDefinitions(ctx context.Context, gameID uuid.UUID) ([]models.CardDefinition, error) {
	q := `
		SELECT c.deck_id, c.id, c.name, c.description, c.type,
		       c.front_image, c.back_image, c.drop_order, c.count
		FROM cards c
		JOIN decks d ON c.deck_id = d.id
		WHERE d.game_id = $1
		ORDER BY d.id, c.drop_order, c.id
	`
	rows, err := DB.Query(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading card definitions: %w", err)
	}
	defer rows.Close()

	var defs []models.CardDefinition
	for rows.Next() {
		var def models.CardDefinition
		if err := rows.Scan(&def.DeckID, &def.CardID, &def.Name, &def.Description,
			&def.Type, &def.FrontImage, &def.BackImage, &def.DropOrder, &def.Count); err != nil {
			return nil, fmt.Errorf("scanning card definition: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func loadPiles(ctx context.Context, gameID uuid.UUID) ([]models.Pile, error) {
	q := `
		SELECT id, game_id, name, is_player_pile, is_face_up, hide_values,
		       grid_row, grid_column
		FROM piles
		WHERE game_id = $1
		ORDER BY grid_row, grid_column, id
	`
	rows, err := DB.Query(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading piles: %w", err)
	}
	defer rows.Close()

	var piles []models.Pile
	for rows.Next() {
		var p models.Pile
		if err := rows.Scan(&p.PileID, &p.GameID, &p.Name, &p.IsPlayerPile,
			&p.IsFaceUp, &p.HideValues, &p.GridRow, &p.GridColumn); err != nil {
			return nil, fmt.Errorf("scanning pile: %w", err)
		}
		piles = append(piles, p)
	}
	return piles, rows.Err()
}
