package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/colordotrush/dotrush-backend/internal/ranking"
)

// fileEntry is the on-disk shape of one player row.
type fileEntry struct {
	Username  string `json:"username"`
	Score     int    `json:"score"`
	Timestamp int64  `json:"timestamp"`
}

// File persists scores in a single JSON document, rewritten atomically
// on every mutation. Only the "players" array and the bookkeeping
// fields are owned here; unknown sibling keys in the document survive
// rewrites, so operators can park extra metadata next to the scores.
type File struct {
	mu      sync.Mutex
	path    string
	log     *zap.Logger
	doc     []byte
	players map[string]record
}

var (
	_ Store  = (*File)(nil)
	_ Seeder = (*File)(nil)
)

// NewFile opens or creates the document at path.
func NewFile(path string, log *zap.Logger) (*File, error) {
	doc, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Info("creating leaderboard file", zap.String("path", path))
		doc = []byte(`{}`)
	} else if err != nil {
		return nil, fmt.Errorf("read leaderboard file: %w", err)
	}
	if len(doc) == 0 {
		doc = []byte(`{}`)
	}
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("leaderboard file %s is not valid JSON", path)
	}

	f := &File{path: path, log: log, doc: doc, players: make(map[string]record)}
	gjson.GetBytes(doc, "players").ForEach(func(_, v gjson.Result) bool {
		name := v.Get("username").Str
		if name == "" {
			return true
		}
		f.players[name] = record{
			score:     int(v.Get("score").Int()),
			timestamp: v.Get("timestamp").Int(),
		}
		return true
	})
	return f, nil
}

func (f *File) SubmitScore(ctx context.Context, username string, score int, submittedAt time.Time) (Placement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.players[username] = record{score: score, timestamp: submittedAt.UnixMilli()}
	if err := f.flush(submittedAt.UnixMilli(), true); err != nil {
		return Placement{}, err
	}
	return placementFrom(f.players, username), nil
}

func (f *File) Leaderboard(ctx context.Context, username string) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return viewFrom(f.players, username), nil
}

func (f *File) Seed(ctx context.Context, entries []ranking.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.players) > 0 {
		return nil
	}
	var latest int64
	for _, e := range entries {
		f.players[e.Username] = record{score: e.Score, timestamp: e.Timestamp}
		if e.Timestamp > latest {
			latest = e.Timestamp
		}
	}
	return f.flush(latest, false)
}

func (f *File) Close() error { return nil }

// flush rewrites the document with the current player set, preserving
// every key it does not own, and swaps it in with a tmp+rename so a
// crash mid-write never truncates the file.
func (f *File) flush(updatedAt int64, countSubmission bool) error {
	all := make([]ranking.Entry, 0, len(f.players))
	for name, rec := range f.players {
		all = append(all, ranking.Entry{Username: name, Score: rec.score, Timestamp: rec.timestamp})
	}
	ranking.SortEntries(all)

	rows := make([]fileEntry, len(all))
	for i, e := range all {
		rows[i] = fileEntry{Username: e.Username, Score: e.Score, Timestamp: e.Timestamp}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}

	doc := f.doc
	if doc, err = sjson.SetBytes(doc, "updatedAt", updatedAt); err != nil {
		return fmt.Errorf("set updatedAt: %w", err)
	}
	if countSubmission {
		n := gjson.GetBytes(doc, "submissions").Int()
		if doc, err = sjson.SetBytes(doc, "submissions", n+1); err != nil {
			return fmt.Errorf("set submissions: %w", err)
		}
	}
	if doc, err = sjson.SetRawBytes(doc, "players", raw); err != nil {
		return fmt.Errorf("set players: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		return fmt.Errorf("write leaderboard file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace leaderboard file: %w", err)
	}

	f.doc = doc
	f.log.Debug("leaderboard file flushed",
		zap.Int("players", len(f.players)),
		zap.String("path", f.path))
	return nil
}
