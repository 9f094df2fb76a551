package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/colordotrush/dotrush-backend/internal/ranking"
	"github.com/colordotrush/dotrush-backend/pkg/api"
)

// Faults configures the Mock's simulated failure modes. All toggles
// are off by default.
type Faults struct {
	// FailRequests makes every call return ErrNetwork.
	FailRequests bool

	// TimeoutRequests makes every call wait out Delay and then return
	// ErrTimeout.
	TimeoutRequests bool

	// EmptyResponses makes reads return an empty board. Submissions
	// still apply.
	EmptyResponses bool

	// Delay is the artificial latency applied to every call.
	Delay time.Duration
}

// Mock implements Service against an in-process board. The board is
// injected at construction and owned by the caller; the Mock holds no
// other state. Overlapping calls carry no ordering contract, the
// mutex only keeps the board access race-free.
type Mock struct {
	mu     sync.Mutex
	board  *ranking.Board
	user   string
	faults Faults
}

var _ Service = (*Mock)(nil)

// NewMock returns a Mock acting as username against board. A nil
// board starts empty.
func NewMock(username string, board *ranking.Board) *Mock {
	if board == nil {
		board = ranking.NewBoard()
	}
	return &Mock{board: board, user: username}
}

// SetFaults swaps the active fault configuration.
func (m *Mock) SetFaults(f Faults) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = f
}

// SubmitScore validates the run, applies the configured faults, then
// submits to the board under the mock user's name.
func (m *Mock) SubmitScore(ctx context.Context, score int, sessionTime float64) (api.SubmitScoreResponse, error) {
	if score < 0 {
		return api.SubmitScoreResponse{}, fmt.Errorf("%w: score %d is negative", ErrValidation, score)
	}
	if sessionTime <= 0 {
		return api.SubmitScoreResponse{}, fmt.Errorf("%w: session time %.2fs is not positive", ErrValidation, sessionTime)
	}
	if err := m.simulate(ctx); err != nil {
		return api.SubmitScoreResponse{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rank, retained := m.board.Submit(m.user, score)
	if !retained {
		return api.SubmitScoreResponse{
			Success: true,
			Message: "Score submitted, but it didn't crack the top 10.",
		}, nil
	}
	return api.SubmitScoreResponse{
		Success: true,
		Rank:    rank,
		Message: fmt.Sprintf("Score submitted! You're ranked #%d.", rank),
	}, nil
}

// TopScores returns the board snapshot, or an empty list when the
// empty-response toggle is on.
func (m *Mock) TopScores(ctx context.Context) ([]api.ScoreEntry, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.faults.EmptyResponses {
		return []api.ScoreEntry{}, nil
	}
	return toAPIEntries(m.board.TopScores()), nil
}

// CurrentUserRank looks the mock user up on the board.
func (m *Mock) CurrentUserRank(ctx context.Context) (int, bool, error) {
	if err := m.simulate(ctx); err != nil {
		return 0, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.faults.EmptyResponses {
		return 0, false, nil
	}
	rank, ok := m.board.UserRank(m.user)
	return rank, ok, nil
}

// simulate applies the artificial delay and the failure toggles. The
// delay runs outside the board lock so overlapping calls interleave
// the way independent requests would.
func (m *Mock) simulate(ctx context.Context) error {
	m.mu.Lock()
	f := m.faults
	m.mu.Unlock()

	if f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.TimeoutRequests {
		return ErrTimeout
	}
	if f.FailRequests {
		return ErrNetwork
	}
	return nil
}

func toAPIEntries(entries []ranking.Entry) []api.ScoreEntry {
	out := make([]api.ScoreEntry, len(entries))
	for i, e := range entries {
		out[i] = api.ScoreEntry{
			Username:  e.Username,
			Score:     e.Score,
			Timestamp: e.Timestamp,
			Rank:      e.Rank,
		}
	}
	return out
}
