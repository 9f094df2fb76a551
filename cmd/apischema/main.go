package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/colordotrush/dotrush-backend/pkg/api"
)

// Contract groups every payload the HTTP endpoints and the websocket
// feed exchange, so a single schema document covers the full surface.
type Contract struct {
	SessionRequest      api.SessionRequest      `json:"sessionRequest"`
	SessionResponse     api.SessionResponse     `json:"sessionResponse"`
	SubmitScoreRequest  api.SubmitScoreRequest  `json:"submitScoreRequest"`
	SubmitScoreResponse api.SubmitScoreResponse `json:"submitScoreResponse"`
	LeaderboardResponse api.LeaderboardResponse `json:"leaderboardResponse"`
	GameConfigResponse  api.GameConfigResponse  `json:"gameConfigResponse"`
	LeaderboardSnapshot api.LeaderboardSnapshot `json:"leaderboardSnapshot"`
	ErrorResponse       api.ErrorResponse       `json:"errorResponse"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schema := buildSchema()

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(new(Contract))
	schema.Title = "Color Dot Rush Leaderboard API"
	schema.Description = "Validates the payloads exchanged by the dotrush backend and its game clients"
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
