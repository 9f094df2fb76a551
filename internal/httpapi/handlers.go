package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/colordotrush/dotrush-backend/internal/game"
	"github.com/colordotrush/dotrush-backend/internal/hub"
	"github.com/colordotrush/dotrush-backend/internal/ranking"
	"github.com/colordotrush/dotrush-backend/internal/session"
	"github.com/colordotrush/dotrush-backend/internal/store"
	"github.com/colordotrush/dotrush-backend/pkg/api"
)

const maxUsernameLen = 64

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}

// CreateSession exchanges a username for a signed session token. The
// host platform has already authenticated the player; this endpoint
// only binds that identity to our API.
func CreateSession(sessions *session.Manager, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Username == "" || strings.TrimSpace(req.Username) != req.Username {
			writeError(w, http.StatusBadRequest, "username must not be empty or padded with whitespace")
			return
		}
		if len(req.Username) > maxUsernameLen {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("username longer than %d characters", maxUsernameLen))
			return
		}

		token, expires, err := sessions.Issue(req.Username)
		if err != nil {
			log.Error("issue session token", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not issue session")
			return
		}
		writeJSON(w, http.StatusOK, api.SessionResponse{Token: token, ExpiresAt: expires.UnixMilli()})
	}
}

// SubmitScore validates and persists a finished run, then pushes the
// updated board to websocket subscribers.
func SubmitScore(st store.Store, h *hub.Hub, limiter *session.Limiter, tuning *game.Config, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, ok := session.UserFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "session required")
			return
		}

		var req api.SubmitScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Score < 0 {
			writeError(w, http.StatusBadRequest, "score must not be negative")
			return
		}
		if req.SessionTime <= 0 {
			writeError(w, http.StatusBadRequest, "sessionTime must be positive")
			return
		}
		if ceiling := tuning.MaxPlausibleScore(req.SessionTime); req.Score > ceiling {
			log.Warn("implausible score rejected",
				zap.String("username", username),
				zap.Int("score", req.Score),
				zap.Float64("sessionTime", req.SessionTime),
				zap.Int("ceiling", ceiling))
			writeError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("score %d is not plausible for a %.1fs run", req.Score, req.SessionTime))
			return
		}
		if !limiter.Allow(username) {
			writeError(w, http.StatusTooManyRequests, "too many submissions, slow down")
			return
		}

		placement, err := st.SubmitScore(r.Context(), username, req.Score, time.Now())
		if err != nil {
			log.Error("persist score", zap.String("username", username), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not record score")
			return
		}

		if err := PublishBoard(r.Context(), st, h); err != nil {
			// The score is already persisted; subscribers catch up on
			// the next submission.
			log.Warn("publish board update", zap.Error(err))
		}

		msg := fmt.Sprintf("Score submitted! You're #%d of %d players.", placement.Rank, placement.TotalPlayers)
		if placement.OnBoard {
			msg = fmt.Sprintf("Score submitted! You're ranked #%d.", placement.Rank)
		}
		writeJSON(w, http.StatusOK, api.SubmitScoreResponse{
			Success: true,
			Rank:    placement.Rank,
			Message: msg,
		})
	}
}

// GetLeaderboard returns the current top 10 plus, when the request
// carries a session, the caller's own rank.
func GetLeaderboard(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, _ := session.UserFrom(r.Context())

		view, err := st.Leaderboard(r.Context(), username)
		if err != nil {
			log.Error("load leaderboard", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not load leaderboard")
			return
		}

		resp := api.LeaderboardResponse{
			Entries:      toAPIEntries(view.Entries),
			TotalPlayers: view.TotalPlayers,
		}
		if view.UserRank > 0 {
			rank := view.UserRank
			resp.UserRank = &rank
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GameConfig serves the round tuning clients need before starting.
func GameConfig(tuning *game.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tuning.APIResponse())
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// PublishBoard pushes the current board through the hub. cmd/server
// also calls it once at startup so early subscribers see a board
// instead of an empty feed.
func PublishBoard(ctx context.Context, st store.Store, h *hub.Hub) error {
	view, err := st.Leaderboard(ctx, "")
	if err != nil {
		return fmt.Errorf("load board for publish: %w", err)
	}
	h.Inbox() <- hub.Publish{
		Entries:      toAPIEntries(view.Entries),
		TotalPlayers: view.TotalPlayers,
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
