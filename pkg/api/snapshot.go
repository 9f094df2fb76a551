package api

// LeaderboardSnapshot is pushed to websocket subscribers whenever the
// board changes. Version increases monotonically per process; clients
// drop snapshots older than the last one they rendered.
type LeaderboardSnapshot struct {
	Version      int          `json:"version" jsonschema:"minimum=0,required"`
	Entries      []ScoreEntry `json:"entries" jsonschema:"required"`
	TotalPlayers int          `json:"totalPlayers" jsonschema:"minimum=0,required"`
	ServerTime   int64        `json:"serverTime" jsonschema:"description=Server clock in epoch milliseconds,required"`
}
