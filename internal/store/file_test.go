package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/colordotrush/dotrush-backend/internal/ranking"
)

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.json")

	first, err := NewFile(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.Seed(ctx, ranking.DemoSeed()))
	_, err = first.SubmitScore(ctx, "NewPlayer", 160, time.UnixMilli(1700009999000))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewFile(path, zap.NewNop())
	require.NoError(t, err)

	view, err := second.Leaderboard(ctx, "NewPlayer")
	require.NoError(t, err)
	require.Equal(t, 1, view.UserRank)
	require.Equal(t, 11, view.TotalPlayers)
	require.Equal(t, "NewPlayer", view.Entries[0].Username)
	require.Equal(t, int64(1700009999000), view.Entries[0].Timestamp)
}

func TestFileStorePreservesForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"operatorNote":"keep me","players":[]}`), 0o644))

	f, err := NewFile(path, zap.NewNop())
	require.NoError(t, err)

	_, err = f.SubmitScore(context.Background(), "player", 42, time.UnixMilli(1700010000000))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "keep me", gjson.GetBytes(raw, "operatorNote").Str)
	require.Equal(t, int64(1), gjson.GetBytes(raw, "submissions").Int())
	require.Equal(t, int64(1700010000000), gjson.GetBytes(raw, "updatedAt").Int())
	require.Equal(t, "player", gjson.GetBytes(raw, "players.0.username").Str)
}

func TestFileStoreCountsSubmissionsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.json")

	f, err := NewFile(path, zap.NewNop())
	require.NoError(t, err)
	_, err = f.SubmitScore(ctx, "a", 10, time.UnixMilli(1))
	require.NoError(t, err)
	_, err = f.SubmitScore(ctx, "b", 20, time.UnixMilli(2))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := NewFile(path, zap.NewNop())
	require.NoError(t, err)
	_, err = reopened.SubmitScore(ctx, "c", 30, time.UnixMilli(3))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, int64(3), gjson.GetBytes(raw, "submissions").Int())
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"players": [`), 0o644))

	_, err := NewFile(path, zap.NewNop())
	require.Error(t, err)
}

func TestFileStoreCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "scores.json")

	f, err := NewFile(path, zap.NewNop())
	require.NoError(t, err)

	_, err = f.SubmitScore(context.Background(), "player", 1, time.UnixMilli(1))
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
}
