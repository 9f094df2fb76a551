// Package api defines the JSON wire contracts shared by the HTTP
// server, the client adapter in pkg/leaderboard, and cmd/apischema.
// The submit/leaderboard shapes are frozen; changing a field name or
// type breaks deployed game clients.
package api

// SubmitScoreRequest is the body of POST /api/submit-score.
type SubmitScoreRequest struct {
	Score       int     `json:"score" jsonschema:"title=Score,minimum=0,description=Final score of the finished run,required"`
	SessionTime float64 `json:"sessionTime" jsonschema:"title=Session time,exclusiveMinimum=0,description=Run duration in seconds,required"`
}

// SubmitScoreResponse is the 2xx body of POST /api/submit-score.
// Rank is 0 when the score did not place on the board.
type SubmitScoreResponse struct {
	Success bool   `json:"success" jsonschema:"required"`
	Rank    int    `json:"rank" jsonschema:"minimum=0,required"`
	Message string `json:"message" jsonschema:"required"`
}

// ScoreEntry is one retained leaderboard row.
type ScoreEntry struct {
	Username  string `json:"username" jsonschema:"minLength=1,required"`
	Score     int    `json:"score" jsonschema:"minimum=0,required"`
	Timestamp int64  `json:"timestamp" jsonschema:"description=Submission time in epoch milliseconds,required"`
	Rank      int    `json:"rank" jsonschema:"minimum=1,required"`
}

// LeaderboardResponse is the 2xx body of GET /api/get-leaderboard.
// UserRank is omitted when the caller has no retained score.
type LeaderboardResponse struct {
	Entries      []ScoreEntry `json:"entries" jsonschema:"required"`
	UserRank     *int         `json:"userRank,omitempty" jsonschema:"minimum=1"`
	TotalPlayers int          `json:"totalPlayers" jsonschema:"minimum=0,required"`
}

// SessionRequest is the body of POST /api/session.
type SessionRequest struct {
	Username string `json:"username" jsonschema:"minLength=1,required"`
}

// SessionResponse carries the bearer token for the play session.
type SessionResponse struct {
	Token     string `json:"token" jsonschema:"required"`
	ExpiresAt int64  `json:"expiresAt" jsonschema:"description=Expiry in epoch milliseconds,required"`
}

// GameConfigResponse is the 2xx body of GET /api/game-config: the
// round tuning the client needs before starting a run.
type GameConfigResponse struct {
	RoundSeconds     int      `json:"roundSeconds"`
	CountdownSeconds int      `json:"countdownSeconds"`
	SpawnIntervalMs  int      `json:"spawnIntervalMs"`
	DotLifetimeMs    int      `json:"dotLifetimeMs"`
	MaxActiveDots    int      `json:"maxActiveDots"`
	BaseDotScore     int      `json:"baseDotScore"`
	ComboStep        float64  `json:"comboStep"`
	MaxComboBonus    float64  `json:"maxComboBonus"`
	WrongTapPenalty  int      `json:"wrongTapPenalty"`
	TargetSwitchMs   int      `json:"targetSwitchMs"`
	Palette          []string `json:"palette"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error" jsonschema:"required"`
}
