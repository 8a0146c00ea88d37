// internal/handlers/session_http.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/calebheinzman/tabletop-arcade/internal/session"
)

// ServeHTTP routes the session REST surface:
//
//	POST /session/create            {"gameId": uuid}
//	POST /session/join/{session_id} {"username": string}
//	POST /session/start/{session_id}
//	POST /session/reset/{session_id}
//	GET  /session/state/{session_id}/{player_id}
//
// Live play happens over /session/ws (see session_ws.go).
func (ss *SessionServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/session/create" && r.Method == http.MethodPost:
		ss.handleCreateSession(w, r)
	case strings.HasPrefix(r.URL.Path, "/session/join/") && r.Method == http.MethodPost:
		ss.handleJoinSession(w, r)
	case strings.HasPrefix(r.URL.Path, "/session/start/") && r.Method == http.MethodPost:
		ss.handleStartSession(w, r)
	case strings.HasPrefix(r.URL.Path, "/session/reset/") && r.Method == http.MethodPost:
		ss.handleResetSession(w, r)
	case strings.HasPrefix(r.URL.Path, "/session/state/") && r.Method == http.MethodGet:
		ss.handleSessionState(w, r)
	default:
		http.Error(w, "unsupported route, use /session/ws/{session_id}/{player_id} for websockets", http.StatusNotFound)
	}
}

func (ss *SessionServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID uuid.UUID `json:"gameId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == uuid.Nil {
		http.Error(w, "body must be {\"gameId\": uuid}", http.StatusBadRequest)
		return
	}

	eng, err := ss.CreateSession(r.Context(), req.GameID)
	if err != nil {
		ss.Logger.Warnf("failed to create session for game %s: %v", req.GameID, err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session_id": eng.ID,
		"game_id":    eng.GameID,
	})
}

func (ss *SessionServer) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	eng, ok := ss.sessionFromPath(w, r, "/session/join/")
	if !ok {
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "body must be {\"username\": string}", http.StatusBadRequest)
		return
	}

	p, err := eng.Join(req.Username)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"player_id":    p.PlayerID,
		"player_order": p.PlayerOrder,
	})
}

func (ss *SessionServer) handleStartSession(w http.ResponseWriter, r *http.Request) {
	eng, ok := ss.sessionFromPath(w, r, "/session/start/")
	if !ok {
		return
	}
	if err := eng.StartSession(); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ss *SessionServer) handleResetSession(w http.ResponseWriter, r *http.Request) {
	eng, ok := ss.sessionFromPath(w, r, "/session/reset/")
	if !ok {
		return
	}
	if err := eng.ResetSession(); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionState returns one player's obfuscated snapshot over plain
// HTTP. Useful for debugging and for clients hydrating before the WS dial.
func (ss *SessionServer) handleSessionState(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/session/state/"), "/")
	if len(parts) < 2 {
		http.Error(w, "path must be /session/state/{session_id}/{player_id}", http.StatusBadRequest)
		return
	}
	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	playerID, err := uuid.Parse(parts[1])
	if err != nil {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return
	}

	eng, ok := ss.Sessions.Get(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	state := eng.SessionStateFor(playerID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// sessionFromPath parses a trailing {session_id} segment and resolves the
// engine, writing the HTTP error itself when either step fails.
func (ss *SessionServer) sessionFromPath(w http.ResponseWriter, r *http.Request, prefix string) (*session.Engine, bool) {
	idStr := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, prefix), "/")
	sessionID, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return nil, false
	}
	eng, ok := ss.Sessions.Get(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return eng, true
}

// writeSessionError maps engine sentinels to HTTP status codes.
func writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrConflict), errors.Is(err, session.ErrSessionLive),
		errors.Is(err, session.ErrSessionFull):
		status = http.StatusConflict
	case errors.Is(err, session.ErrPersistence):
		status = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), status)
}
