// internal/handlers/session_server.go
package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/calebheinzman/tabletop-arcade/internal/cache"
	"github.com/calebheinzman/tabletop-arcade/internal/database"
	"github.com/calebheinzman/tabletop-arcade/internal/models"
	"github.com/calebheinzman/tabletop-arcade/internal/session"
)

// SessionServer owns the session store and builds new engines from game
// templates, wiring their persistence and feed hooks.
type SessionServer struct {
	Sessions *session.Store
	Logger   *logrus.Logger
}

func NewSessionServer(logger *logrus.Logger) *SessionServer {
	return &SessionServer{
		Sessions: session.NewStore(),
		Logger:   logger,
	}
}

// CreateSession loads the game template and stands up a new engine for it.
func (ss *SessionServer) CreateSession(ctx context.Context, gameID uuid.UUID) (*session.Engine, error) {
	cat, err := database.LoadGameTemplate(ctx, gameID)
	if err != nil {
		return nil, err
	}

	eng := session.NewEngine(cat)
	eng.PublishActionFn = func(act models.SessionAction) error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		rec := cache.ActionRecord{
			SessionID:   act.SessionID,
			ActionID:    act.ActionID,
			PlayerID:    act.PlayerID,
			Description: act.Description,
			Timestamp:   act.CreatedAt.UnixMilli(),
		}
		if err := cache.PublishActionRecord(ctx, rec); err != nil {
			return err
		}
		return database.InsertActionRecord(ctx, act)
	}
	eng.PersistSnapshotFn = func(state session.SessionState) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return database.UpsertSessionSnapshot(ctx, state.Session.SessionID, state.Session.GameID, state)
	}

	ss.Sessions.Add(eng)
	ss.Logger.WithFields(logrus.Fields{"session": eng.ID, "game": gameID}).Info("session created")
	return eng, nil
}
