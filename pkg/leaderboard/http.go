package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/colordotrush/dotrush-backend/pkg/api"
)

const defaultTimeout = 10 * time.Second

// Client implements Service against the production collaborator's
// HTTP API. It performs exactly one request per call: recovery and
// backoff are the caller's concern. Transport-level timeouts come
// from the injected http.Client and surface as ErrNetwork, never as
// ErrTimeout.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

var _ Service = (*Client)(nil)

// NewClient returns a Client for the collaborator at baseURL. A nil
// httpc gets a client with a 10s timeout.
func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

// SetToken attaches a session bearer token to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// SubmitScore posts the run to /api/submit-score.
func (c *Client) SubmitScore(ctx context.Context, score int, sessionTime float64) (api.SubmitScoreResponse, error) {
	payload := api.SubmitScoreRequest{Score: score, SessionTime: sessionTime}
	var resp api.SubmitScoreResponse
	if err := c.do(ctx, http.MethodPost, "/api/submit-score", payload, &resp); err != nil {
		return api.SubmitScoreResponse{}, fmt.Errorf("submit score: %w", err)
	}
	return resp, nil
}

// Leaderboard fetches the full /api/get-leaderboard reply.
func (c *Client) Leaderboard(ctx context.Context) (api.LeaderboardResponse, error) {
	var resp api.LeaderboardResponse
	if err := c.do(ctx, http.MethodGet, "/api/get-leaderboard", nil, &resp); err != nil {
		return api.LeaderboardResponse{}, fmt.Errorf("get leaderboard: %w", err)
	}
	return resp, nil
}

// TopScores returns the retained entries of the current leaderboard.
func (c *Client) TopScores(ctx context.Context) ([]api.ScoreEntry, error) {
	resp, err := c.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// CurrentUserRank reports the caller's rank from the leaderboard
// reply, ok=false when the reply carries no userRank.
func (c *Client) CurrentUserRank(ctx context.Context) (int, bool, error) {
	resp, err := c.Leaderboard(ctx)
	if err != nil {
		return 0, false, err
	}
	if resp.UserRank == nil {
		return 0, false, nil
	}
	return *resp.UserRank, true, nil
}

// do performs one JSON exchange and maps the outcome onto the error
// taxonomy: transport failures and unexpected statuses are ErrNetwork,
// 400/422 are ErrValidation.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := ErrNetwork
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
			kind = ErrValidation
		}
		return fmt.Errorf("%w: %s (HTTP %d)", kind, errorMessage(resp.Body, resp.StatusCode), resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
	}
	return nil
}

// errorMessage pulls the error text out of a non-2xx body, falling
// back to the status text.
func errorMessage(r io.Reader, status int) string {
	raw, err := io.ReadAll(io.LimitReader(r, 8<<10))
	if err == nil {
		var er api.ErrorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			return er.Error
		}
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return msg
		}
	}
	return http.StatusText(status)
}
