// internal/handlers/session_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/calebheinzman/tabletop-arcade/internal/middleware"
	"github.com/calebheinzman/tabletop-arcade/internal/models"
	"github.com/calebheinzman/tabletop-arcade/internal/session"
)

// IntentMessage is the shape of every incoming WebSocket message during a
// live session. Type selects the intent; Payload carries its parameters.
type IntentMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// SessionWSHandler upgrades the HTTP connection to WebSocket for one seated
// player in one session. The path is /session/ws/{session_id}/{player_id}.
// It registers the engine's broadcast functions on first connect, replays
// the player's obfuscated snapshot, and then runs the read loop until the
// connection drops.
func SessionWSHandler(logger *logrus.Logger, ss *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/session/ws/"), "/")
		if len(pathParts) < 2 || pathParts[0] == "" || pathParts[1] == "" {
			http.Error(w, "Path must be /session/ws/{session_id}/{player_id}", http.StatusBadRequest)
			return
		}
		sessionID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid session_id format", http.StatusBadRequest)
			return
		}
		playerID, err := uuid.Parse(pathParts[1])
		if err != nil {
			http.Error(w, "Invalid player_id format", http.StatusBadRequest)
			return
		}

		eng, ok := ss.Sessions.Get(sessionID)
		if !ok {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"session"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for session %s: %v", sessionID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "session" {
			logger.Warnf("Client for session %s connected with invalid subprotocol: %s", sessionID, c.Subprotocol())
			c.Close(websocket.StatusPolicyViolation, "Client must use the 'session' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		// Register broadcast functions once per engine. These fan committed
		// deltas out to clients without holding the engine lock on writes.
		eng.Mu.Lock()
		if eng.BroadcastFn == nil {
			eng.BroadcastFn = createBroadcastFunc(eng, logger)
		}
		if eng.BroadcastToPlayerFn == nil {
			eng.BroadcastToPlayerFn = createBroadcastToPlayerFunc(eng, logger)
		}
		eng.Mu.Unlock()

		// Attach the connection and replay this player's view of the table.
		if err := eng.HandleReconnect(playerID, c); err != nil {
			logger.Warnf("Player %s is not seated in session %s: %v", playerID, sessionID, err)
			c.Close(websocket.StatusPolicyViolation, "You are not a player in this session.")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readIntentMessages(ctx, c, eng, playerID, logger)

		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
		eng.HandleDisconnect(playerID)
	}
}

// wsTarget is one delivery destination, snapshotted under the engine lock so
// the async writer never touches Player.Conn after the lock is released.
type wsTarget struct {
	playerID uuid.UUID
	conn     *websocket.Conn
}

// connectedTargets copies the connection pointer of every connected player.
// Must be called with the engine lock held; a later disconnect nils the
// player's Conn field but cannot reach the copies.
func connectedTargets(eng *session.Engine) []wsTarget {
	targets := make([]wsTarget, 0, len(eng.Players))
	for _, p := range eng.Players {
		if p.Connected && p.Conn != nil {
			targets = append(targets, wsTarget{playerID: p.PlayerID, conn: p.Conn})
		}
	}
	return targets
}

// createBroadcastFunc returns a function suitable for Engine.BroadcastFn.
// It snapshots the connected players under the lock, then marshals and
// writes asynchronously so a slow client never blocks session logic.
func createBroadcastFunc(eng *session.Engine, logger *logrus.Logger) func(ev session.Event) {
	return func(ev session.Event) {
		// Called while the engine lock is held: collect targets, release
		// before any network write.
		targets := connectedTargets(eng)

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal broadcast event (%s) for session %s: %v", ev.Type, eng.ID, err)
			return
		}

		go func(targets []wsTarget, data []byte, sessionID uuid.UUID) {
			for _, tgt := range targets {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				err := tgt.conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					logger.Warnf("Failed to write broadcast message to player %s in session %s: %v", tgt.playerID, sessionID, err)
				}
			}
		}(targets, msgBytes, eng.ID)
	}
}

// createBroadcastToPlayerFunc returns a function suitable for
// Engine.BroadcastToPlayerFn. Used for per-viewer obfuscated deltas and
// private peeks.
func createBroadcastToPlayerFunc(eng *session.Engine, logger *logrus.Logger) func(targetPlayerID uuid.UUID, ev session.Event) {
	return func(targetPlayerID uuid.UUID, ev session.Event) {
		// Also called while the engine lock is held.
		var targetConn *websocket.Conn
		for _, pl := range eng.Players {
			if pl.PlayerID == targetPlayerID {
				if pl.Connected && pl.Conn != nil {
					targetConn = pl.Conn
				}
				break
			}
		}
		if targetConn == nil {
			return
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal private event (%s) for player %s in session %s: %v", ev.Type, targetPlayerID, eng.ID, err)
			return
		}
		go func(conn *websocket.Conn, data []byte, playerID, sessionID uuid.UUID) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write private message to player %s in session %s: %v", playerID, sessionID, err)
			}
		}(targetConn, msgBytes, targetPlayerID, eng.ID)
	}
}

// readIntentMessages reads messages from one client until the connection
// closes, unmarshals each into an intent and routes it to the engine. A
// rejected intent is answered with an error event; the session state is
// untouched.
func readIntentMessages(ctx context.Context, c *websocket.Conn, eng *session.Engine, playerID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %s in session %s.", playerID, eng.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %s in session %s.", playerID, eng.ID)
			} else {
				logger.Warnf("Error reading from WebSocket for player %s in session %s: %v", playerID, eng.ID, err)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from player %s in session %s. Ignoring.", msgType, playerID, eng.ID)
			continue
		}

		var msg IntentMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received from player %s in session %s: %v", playerID, eng.ID, err)
			sendWsError(ctx, c, "Invalid JSON format.")
			continue
		}

		switch msg.Type {
		case "ping":
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})

		default:
			logger.Debugf("Received intent '%s' from player %s in session %s.", msg.Type, playerID, eng.ID)
			intent := models.Intent{Type: msg.Type, Payload: msg.Payload}
			if err := eng.HandleIntent(playerID, intent); err != nil {
				sendWsError(ctx, c, err.Error())
			}
		}

		select {
		case <-ctx.Done():
			logger.Infof("Context canceled after processing message for player %s in session %s.", playerID, eng.ID)
			return
		default:
		}
	}
}

// sendWsMessage marshals a message and sends it to the WebSocket client
// with a write timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	if c == nil {
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			logrus.Warnf("Error writing WebSocket message: %v", err)
		}
	}
}

// sendWsError sends a structured error event to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, session.Event{Type: "error", Message: errorMsg})
}
