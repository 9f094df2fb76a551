// Package ws streams live leaderboard snapshots to game clients over
// a websocket. The feed is one-way: clients never send commands, they
// just hold the socket open and rerender on every snapshot.
package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/colordotrush/dotrush-backend/internal/hub"
	"github.com/colordotrush/dotrush-backend/internal/session"
	"github.com/colordotrush/dotrush-backend/pkg/api"
)

const writeTimeout = 3 * time.Second

// Handler upgrades the request and subscribes it to the hub. A valid
// session token (header or ?token=) only tags the subscriber id for
// the logs; the feed itself is public.
func Handler(h *hub.Hub, sessions *session.Manager, log *zap.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := randID(6)
		if username, err := sessions.Verify(session.TokenFromRequest(r)); err == nil {
			clientID = username + "-" + randID(4)
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan api.LeaderboardSnapshot, 8)
		h.Inbox() <- hub.Join{ClientID: clientID, Outbox: out}
		defer func() { h.Inbox() <- hub.Leave{ClientID: clientID} }()

		log.Debug("leaderboard subscriber connected", zap.String("client", clientID))

		// Clients send nothing; CloseRead keeps the connection's read
		// side drained and cancels the context when the peer goes away.
		ctx := conn.CloseRead(r.Context())

		for {
			select {
			case <-ctx.Done():
				return

			case snap, ok := <-out:
				if !ok {
					// Hub dropped us (slow) or is shutting down.
					conn.Close(websocket.StatusGoingAway, "feed closed")
					return
				}
				payload, _ := json.Marshal(snap)
				writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
				err := conn.Write(writeCtx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
		}
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
