package ranking

import (
	"sort"
	"time"
)

// MaxEntries is the number of scores the board retains.
const MaxEntries = 10

// Entry is one retained score. Rank is derived, never authoritative:
// it is recomputed on every mutation.
type Entry struct {
	Username  string
	Score     int
	Timestamp int64 // epoch millis of the submission
	Rank      int
}

// Board is a bounded, ordered top-N score list, unique by username.
// It never persists anything; callers own its lifecycle and pass it
// into whatever consumes it (the mock adapter, the demo store).
//
// Ordering is score descending, then timestamp ascending, and the sort
// is stable so equal (score, timestamp) pairs keep insertion order.
// Ranks use competition ranking: 1 + the count of strictly greater
// scores, so tied scores share a rank while display positions stay
// unique via the tie-break.
type Board struct {
	entries []Entry
	now     func() time.Time
}

func NewBoard() *Board {
	return &Board{now: time.Now}
}

// NewSeededBoard builds a board from existing entries. The seed is
// copied, re-sorted, re-ranked, and truncated, so callers may pass
// unsorted or oversized data.
func NewSeededBoard(seed []Entry) *Board {
	b := NewBoard()
	b.entries = append(b.entries, seed...)
	SortEntries(b.entries)
	AssignRanks(b.entries)
	if len(b.entries) > MaxEntries {
		b.entries = b.entries[:MaxEntries]
	}
	return b
}

// Submit replaces any prior entry for username, stamps the new entry
// with the board clock, re-sorts, re-ranks, and truncates to
// MaxEntries. It returns the entrant's rank and whether the entry was
// retained; a score that falls off the board reports (0, false).
func (b *Board) Submit(username string, score int) (int, bool) {
	kept := b.entries[:0]
	for _, e := range b.entries {
		if e.Username != username {
			kept = append(kept, e)
		}
	}
	b.entries = append(kept, Entry{
		Username:  username,
		Score:     score,
		Timestamp: b.now().UnixMilli(),
	})

	SortEntries(b.entries)
	AssignRanks(b.entries)
	if len(b.entries) > MaxEntries {
		b.entries = b.entries[:MaxEntries]
	}

	return b.UserRank(username)
}

// TopScores returns a snapshot copy of the retained entries, highest
// score first. Mutating the result never touches the board.
func (b *Board) TopScores() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// UserRank reports the rank for username, or (0, false) once the user
// has been evicted from the retained set.
func (b *Board) UserRank(username string) (int, bool) {
	for _, e := range b.entries {
		if e.Username == username {
			return e.Rank, true
		}
	}
	return 0, false
}

func (b *Board) Len() int { return len(b.entries) }

// SortEntries orders entries score descending, timestamp ascending,
// stable. Every store reuses this so ordering semantics live in one
// place.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Timestamp < entries[j].Timestamp
	})
}

// AssignRanks rewrites Rank over an already-sorted slice. Tied scores
// share the rank of the first of their run.
func AssignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// RankFor computes the competition rank a score would hold against the
// given entries: 1 + the number of strictly greater scores.
func RankFor(entries []Entry, score int) int {
	rank := 1
	for _, e := range entries {
		if e.Score > score {
			rank++
		}
	}
	return rank
}
