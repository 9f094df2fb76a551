// Package hub fans leaderboard updates out to websocket subscribers.
// A single goroutine owns all state; everything reaches it through
// typed messages on the inbox, so there are no locks and no shared
// references.
package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/colordotrush/dotrush-backend/pkg/api"
)

type Msg interface{ isHubMsg() }

// Join registers a subscriber. The current snapshot is sent to the
// outbox immediately so late joiners render without waiting for the
// next submission.
type Join struct {
	ClientID string
	Outbox   chan api.LeaderboardSnapshot
}

// Leave unregisters a subscriber. Its outbox is left open; the owner
// stops reading on its own.
type Leave struct{ ClientID string }

// Publish replaces the broadcast board state and pushes a fresh
// snapshot to every subscriber.
type Publish struct {
	Entries      []api.ScoreEntry
	TotalPlayers int
}

// GetState mirrors internal state without data races; used by tests
// and the health endpoint.
type GetState struct {
	Reply chan View
}

type Shutdown struct{}

func (Join) isHubMsg()     {}
func (Leave) isHubMsg()    {}
func (Publish) isHubMsg()  {}
func (GetState) isHubMsg() {}
func (Shutdown) isHubMsg() {}

type View struct {
	Version      int
	NumClients   int
	Entries      []api.ScoreEntry
	TotalPlayers int
}

type Hub struct {
	inbox   chan Msg
	version int
	entries []api.ScoreEntry
	total   int
	clients map[string]chan api.LeaderboardSnapshot
	log     *zap.Logger
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan Msg, 64),
		entries: []api.ScoreEntry{},
		clients: make(map[string]chan api.LeaderboardSnapshot),
		log:     log,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Join:
				h.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- h.snapshot()

			case Leave:
				delete(h.clients, msg.ClientID)

			case Publish:
				h.entries = append([]api.ScoreEntry(nil), msg.Entries...)
				h.total = msg.TotalPlayers
				h.version++
				h.broadcast(h.snapshot())

			case GetState:
				msg.Reply <- View{
					Version:      h.version,
					NumClients:   len(h.clients),
					Entries:      append([]api.ScoreEntry(nil), h.entries...),
					TotalPlayers: h.total,
				}

			case Shutdown:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) snapshot() api.LeaderboardSnapshot {
	return api.LeaderboardSnapshot{
		Version:      h.version,
		Entries:      h.entries,
		TotalPlayers: h.total,
		ServerTime:   h.now().UnixMilli(),
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.clients {
		close(ch) // Tell subscriber no more snapshots
		delete(h.clients, id)
	}
	h.cancel()
}

func (h *Hub) broadcast(snap api.LeaderboardSnapshot) {
	for id, ch := range h.clients {
		select {
		case ch <- snap:
			// ok
		default:
			// Subscriber is slow/full - drop it.
			h.log.Warn("dropping slow leaderboard subscriber", zap.String("client", id))
			close(ch)
			delete(h.clients, id)
		}
	}
}
