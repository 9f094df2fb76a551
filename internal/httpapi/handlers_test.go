package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/colordotrush/dotrush-backend/internal/game"
	"github.com/colordotrush/dotrush-backend/internal/hub"
	"github.com/colordotrush/dotrush-backend/internal/ranking"
	"github.com/colordotrush/dotrush-backend/internal/session"
	"github.com/colordotrush/dotrush-backend/internal/store"
	"github.com/colordotrush/dotrush-backend/pkg/api"
	"github.com/colordotrush/dotrush-backend/pkg/leaderboard"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type serverOpts struct {
	seed    []ranking.Entry
	limiter *session.Limiter
}

func newTestServer(t *testing.T, opts serverOpts) (*httptest.Server, Deps) {
	t.Helper()

	st := store.NewMemory()
	if len(opts.seed) > 0 {
		require.NoError(t, st.Seed(context.Background(), opts.seed))
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tuning, err := game.Load("")
	require.NoError(t, err)

	limiter := opts.limiter
	if limiter == nil {
		limiter = session.NewLimiter(6000, 100)
	}

	deps := Deps{
		Store:    st,
		Hub:      hub.New(ctx, zap.NewNop()),
		Sessions: session.NewManager(testSecret, time.Hour),
		Limiter:  limiter,
		Tuning:   tuning,
		Log:      zap.NewNop(),
		Origins:  []string{"*"},
	}

	ts := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(ts.Close)
	return ts, deps
}

func postJSON(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func sessionToken(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/session", "", fmt.Sprintf(`{"username":%q}`, username))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sr api.SessionResponse
	decodeBody(t, resp, &sr)
	require.NotEmpty(t, sr.Token)
	return sr.Token
}

func recvSnapshot(t *testing.T, ch chan api.LeaderboardSnapshot) api.LeaderboardSnapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("snapshot channel closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return api.LeaderboardSnapshot{}
}

func TestCreateSession(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{})

	t.Run("valid username", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/api/session", "", `{"username":"SpeedyGonzales"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var sr api.SessionResponse
		decodeBody(t, resp, &sr)
		require.NotEmpty(t, sr.Token)
		require.Greater(t, sr.ExpiresAt, time.Now().UnixMilli())
	})

	rejected := []struct {
		name string
		body string
	}{
		{"empty username", `{"username":""}`},
		{"padded username", `{"username":" SpeedyGonzales "}`},
		{"oversized username", fmt.Sprintf(`{"username":%q}`, strings.Repeat("x", maxUsernameLen+1))},
		{"malformed json", `{"username":`},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/session", "", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var er api.ErrorResponse
			decodeBody(t, resp, &er)
			require.NotEmpty(t, er.Error)
		})
	}
}

func TestSubmitScoreRequiresSession(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{})

	resp := postJSON(t, ts.URL+"/api/submit-score", "", `{"score":10,"sessionTime":30}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var er api.ErrorResponse
	decodeBody(t, resp, &er)
	require.Contains(t, er.Error, "session required")
}

func TestSubmitScoreRejections(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{})
	token := sessionToken(t, ts, "Suspect")

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"negative score", `{"score":-1,"sessionTime":30}`, http.StatusBadRequest},
		{"zero session time", `{"score":50,"sessionTime":0}`, http.StatusBadRequest},
		{"negative session time", `{"score":50,"sessionTime":-3}`, http.StatusBadRequest},
		{"implausible score", `{"score":999999,"sessionTime":1}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"score":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/submit-score", token, tc.body)
			require.Equal(t, tc.wantStatus, resp.StatusCode)

			var er api.ErrorResponse
			decodeBody(t, resp, &er)
			require.NotEmpty(t, er.Error)
		})
	}
}

func TestSubmitScoreWritesBoard(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{seed: ranking.DemoSeed()})
	token := sessionToken(t, ts, "NewChallenger")

	resp := postJSON(t, ts.URL+"/api/submit-score", token, `{"score":160,"sessionTime":30}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sub api.SubmitScoreResponse
	decodeBody(t, resp, &sub)
	require.True(t, sub.Success)
	require.Equal(t, 1, sub.Rank)
	require.Contains(t, sub.Message, "#1")

	lb := getJSON(t, ts.URL+"/api/get-leaderboard", token)
	require.Equal(t, http.StatusOK, lb.StatusCode)

	var view api.LeaderboardResponse
	decodeBody(t, lb, &view)
	require.Equal(t, 11, view.TotalPlayers)
	require.Len(t, view.Entries, ranking.MaxEntries)
	require.Equal(t, "NewChallenger", view.Entries[0].Username)
	require.NotNil(t, view.UserRank)
	require.Equal(t, 1, *view.UserRank)
}

func TestSubmitScoreBelowBoardStillCounts(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{seed: ranking.DemoSeed()})
	token := sessionToken(t, ts, "SlowStarter")

	resp := postJSON(t, ts.URL+"/api/submit-score", token, `{"score":10,"sessionTime":30}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sub api.SubmitScoreResponse
	decodeBody(t, resp, &sub)
	require.True(t, sub.Success)
	require.Equal(t, 11, sub.Rank)
	require.Contains(t, sub.Message, "#11 of 11")

	lb := getJSON(t, ts.URL+"/api/get-leaderboard", token)
	var view api.LeaderboardResponse
	decodeBody(t, lb, &view)
	require.NotNil(t, view.UserRank)
	require.Equal(t, 11, *view.UserRank)
	for _, e := range view.Entries {
		require.NotEqual(t, "SlowStarter", e.Username)
	}
}

func TestSubmitScoreRateLimited(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{limiter: session.NewLimiter(60, 2)})
	token := sessionToken(t, ts, "Spammer")

	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts.URL+"/api/submit-score", token, `{"score":10,"sessionTime":30}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, "submission %d should pass", i+1)
	}

	resp := postJSON(t, ts.URL+"/api/submit-score", token, `{"score":10,"sessionTime":30}`)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSubmitScorePublishesToFeed(t *testing.T) {
	ts, deps := newTestServer(t, serverOpts{seed: ranking.DemoSeed()})
	token := sessionToken(t, ts, "FeedWatcherPrey")

	outbox := make(chan api.LeaderboardSnapshot, 4)
	deps.Hub.Inbox() <- hub.Join{ClientID: "watcher", Outbox: outbox}
	first := recvSnapshot(t, outbox)
	require.Equal(t, 0, first.Version)

	resp := postJSON(t, ts.URL+"/api/submit-score", token, `{"score":200,"sessionTime":30}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := recvSnapshot(t, outbox)
	require.Equal(t, 1, snap.Version)
	require.Equal(t, 11, snap.TotalPlayers)
	require.Equal(t, "FeedWatcherPrey", snap.Entries[0].Username)
}

func TestGetLeaderboardAnonymous(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{seed: ranking.DemoSeed()})

	resp := getJSON(t, ts.URL+"/api/get-leaderboard", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]json.RawMessage
	decodeBody(t, resp, &raw)
	_, hasRank := raw["userRank"]
	require.False(t, hasRank, "anonymous requests must not carry a userRank")

	var entries []api.ScoreEntry
	require.NoError(t, json.Unmarshal(raw["entries"], &entries))
	require.Len(t, entries, ranking.MaxEntries)
	require.Equal(t, "DotMaster3000", entries[0].Username)
	require.Equal(t, 1, entries[0].Rank)
}

func TestGameConfigEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{})

	resp := getJSON(t, ts.URL+"/api/game-config", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cfg api.GameConfigResponse
	decodeBody(t, resp, &cfg)
	require.Equal(t, 30, cfg.RoundSeconds)
	require.Equal(t, []string{"red", "blue", "green", "yellow", "purple"}, cfg.Palette)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{})

	resp := getJSON(t, ts.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestLeaderboardClientRoundTrip drives the real HTTP client from
// pkg/leaderboard against the full router, covering the contract from
// both sides.
func TestLeaderboardClientRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, serverOpts{seed: ranking.DemoSeed()})
	ctx := context.Background()

	client := leaderboard.NewClient(ts.URL, nil)
	client.SetToken(sessionToken(t, ts, "RoundTripper"))

	sub, err := client.SubmitScore(ctx, 150, 30)
	require.NoError(t, err)
	require.True(t, sub.Success)
	require.Equal(t, 2, sub.Rank)

	top, err := client.TopScores(ctx)
	require.NoError(t, err)
	require.Equal(t, "DotMaster3000", top[0].Username)
	require.Equal(t, "RoundTripper", top[1].Username)

	rank, ok, err := client.CurrentUserRank(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, rank)
}
