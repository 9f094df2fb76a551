// Package leaderboard defines the capability interface the game core
// uses to reach its leaderboard collaborator, plus both adapters: a
// Mock with fault injection for tests and local demos, and an HTTP
// Client speaking the production wire contract.
package leaderboard

import (
	"context"
	"errors"

	"github.com/colordotrush/dotrush-backend/pkg/api"
)

// Error taxonomy surfaced by adapters. Errors bubble to the caller
// unmodified; adapters never retry or swallow failures.
var (
	// ErrNetwork covers transport failures and non-2xx replies.
	ErrNetwork = errors.New("leaderboard: network failure")

	// ErrTimeout is produced only by the Mock's timeout toggle. The
	// production adapter relies on its transport's own timeout
	// semantics and surfaces those as ErrNetwork.
	ErrTimeout = errors.New("leaderboard: request timed out")

	// ErrValidation rejects malformed submissions before they reach
	// the board.
	ErrValidation = errors.New("leaderboard: invalid submission")
)

// Service is the capability contract shared by the mock and the
// production adapter. Callers own call ordering: two in-flight calls
// are independent, unordered operations.
type Service interface {
	// SubmitScore reports a finished run and returns the placement
	// reply. A response with Success=true and Rank=0 means the score
	// was accepted but fell outside the top 10.
	SubmitScore(ctx context.Context, score int, sessionTime float64) (api.SubmitScoreResponse, error)

	// TopScores returns the current top-10 snapshot.
	TopScores(ctx context.Context) ([]api.ScoreEntry, error)

	// CurrentUserRank reports the caller's rank, with ok=false when
	// the caller holds no retained score.
	CurrentUserRank(ctx context.Context) (int, bool, error)
}
