// internal/database/session.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/calebheinzman/tabletop-arcade/internal/models"
)

// UpsertSessionSnapshot stores a full JSON snapshot of the session on its
// row. The engine calls this fire-and-forget on lifecycle transitions so a
// reconnecting host (or a replay) can reconstruct the table.
func UpsertSessionSnapshot(ctx context.Context, sessionID, gameID uuid.UUID, snapshot interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling session snapshot: %w", err)
	}
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO sessions (id, game_id, state, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (id)
			DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
		`
		_, e := tx.Exec(ctx, q, sessionID, gameID, data)
		return e
	})
}

// InsertActionRecord appends one action-log row. Duplicate (session, action)
// pairs are ignored: at-least-once delivery is acceptable for the log.
func InsertActionRecord(ctx context.Context, act models.SessionAction) error {
	q := `
		INSERT INTO session_actions (session_id, action_id, player_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, action_id) DO NOTHING
	`
	var playerID interface{}
	if act.PlayerID != uuid.Nil {
		playerID = act.PlayerID
	}
	_, err := DB.Exec(ctx, q, act.SessionID, act.ActionID, playerID, act.Description, act.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting action record: %w", err)
	}
	return nil
}

// MarkSessionEnded flips the session row's ended flag when the host tears a
// session down.
func MarkSessionEnded(ctx context.Context, sessionID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, `UPDATE sessions SET ended_at = NOW() WHERE id = $1`, sessionID)
		return e
	})
}
