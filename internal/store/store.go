// Package store persists player scores for the leaderboard service.
// Three backends share one contract: an in-memory map for tests and
// demos, a JSON file for single-node deployments, and Postgres.
//
// Stores track every player ever seen, not just the retained top 10;
// the board view is derived on read with the ordering rules from
// internal/ranking so all backends rank identically.
package store

import (
	"context"
	"time"

	"github.com/colordotrush/dotrush-backend/internal/ranking"
)

// Placement describes where a submission landed.
type Placement struct {
	// Rank is the competition rank among all tracked players.
	Rank int

	// OnBoard is true when the entry holds one of the ten displayed
	// board positions.
	OnBoard bool

	// TotalPlayers counts every tracked player.
	TotalPlayers int
}

// View is one consistent read of the board for a caller.
type View struct {
	// Entries is the displayed top 10, ranked.
	Entries []ranking.Entry

	// UserRank is the caller's competition rank among all players,
	// 0 when the caller has never submitted.
	UserRank int

	// TotalPlayers counts every tracked player.
	TotalPlayers int
}

// Store is the persistence contract used by the HTTP handlers. A
// username resubmission always replaces the prior score, even with a
// lower one.
type Store interface {
	SubmitScore(ctx context.Context, username string, score int, submittedAt time.Time) (Placement, error)
	Leaderboard(ctx context.Context, username string) (View, error)
	Close() error
}

// Seeder is implemented by stores that can load demo data into an
// empty backend. Seeding a non-empty store is a no-op.
type Seeder interface {
	Seed(ctx context.Context, entries []ranking.Entry) error
}

// record is the per-player state every backend keeps.
type record struct {
	score     int
	timestamp int64
}

// viewFrom derives the caller-facing View from the full player set.
func viewFrom(players map[string]record, username string) View {
	all := make([]ranking.Entry, 0, len(players))
	for name, rec := range players {
		all = append(all, ranking.Entry{Username: name, Score: rec.score, Timestamp: rec.timestamp})
	}
	ranking.SortEntries(all)

	top := append([]ranking.Entry(nil), all[:min(len(all), ranking.MaxEntries)]...)
	ranking.AssignRanks(top)

	view := View{Entries: top, TotalPlayers: len(players)}
	if rec, ok := players[username]; ok {
		view.UserRank = ranking.RankFor(all, rec.score)
	}
	return view
}

// placementFrom derives the submission reply for username from the
// full player set.
func placementFrom(players map[string]record, username string) Placement {
	view := viewFrom(players, username)
	p := Placement{Rank: view.UserRank, TotalPlayers: view.TotalPlayers}
	for _, e := range view.Entries {
		if e.Username == username {
			p.OnBoard = true
			break
		}
	}
	return p
}
