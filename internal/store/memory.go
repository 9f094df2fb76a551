package store

import (
	"context"
	"sync"
	"time"

	"github.com/colordotrush/dotrush-backend/internal/ranking"
)

// Memory keeps all scores in process memory. It is the default
// backend for tests and local demos; nothing survives a restart.
type Memory struct {
	mu      sync.RWMutex
	players map[string]record
}

var (
	_ Store  = (*Memory)(nil)
	_ Seeder = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{players: make(map[string]record)}
}

func (m *Memory) SubmitScore(ctx context.Context, username string, score int, submittedAt time.Time) (Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[username] = record{score: score, timestamp: submittedAt.UnixMilli()}
	return placementFrom(m.players, username), nil
}

func (m *Memory) Leaderboard(ctx context.Context, username string) (View, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return viewFrom(m.players, username), nil
}

func (m *Memory) Seed(ctx context.Context, entries []ranking.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.players) > 0 {
		return nil
	}
	for _, e := range entries {
		m.players[e.Username] = record{score: e.Score, timestamp: e.Timestamp}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
