// Package config reads server settings from the environment. Every
// knob has a default that works for local development; production
// deployments override through DOTRUSH_* variables (cmd/server loads
// a .env file first, so both styles end up here).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// devSecret signs sessions when no secret is configured. Load refuses
// to fall back to it in prod.
const devSecret = "dotrush-dev-only-do-not-ship"

type Config struct {
	Addr string
	Env  string

	StoreBackend string
	FilePath     string
	PostgresDSN  string

	SessionSecret []byte
	SessionTTL    time.Duration

	SubmitPerMinute int
	SubmitBurst     int

	GameTuningPath string
	SeedDemo       bool
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr:           getenv("DOTRUSH_ADDR", ":8080"),
		Env:            getenv("DOTRUSH_ENV", "dev"),
		StoreBackend:   getenv("DOTRUSH_STORE", BackendMemory),
		FilePath:       getenv("DOTRUSH_FILE_PATH", "data/leaderboard.json"),
		PostgresDSN:    os.Getenv("DOTRUSH_POSTGRES_DSN"),
		GameTuningPath: os.Getenv("DOTRUSH_GAME_TUNING"),
	}

	var err error
	if cfg.SessionTTL, err = getdur("DOTRUSH_SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SubmitPerMinute, err = getint("DOTRUSH_SUBMIT_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.SubmitBurst, err = getint("DOTRUSH_SUBMIT_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.SeedDemo, err = getbool("DOTRUSH_SEED_DEMO", true); err != nil {
		return nil, err
	}
	cfg.AllowedOrigins = splitList(getenv("DOTRUSH_ALLOWED_ORIGINS", "*"))

	secret := os.Getenv("DOTRUSH_SESSION_SECRET")
	switch {
	case secret != "":
		cfg.SessionSecret = []byte(secret)
	case cfg.Env == "prod":
		return nil, fmt.Errorf("config: DOTRUSH_SESSION_SECRET is required when DOTRUSH_ENV=prod")
	default:
		cfg.SessionSecret = []byte(devSecret)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Env != "dev" && c.Env != "prod":
		return fmt.Errorf("config: DOTRUSH_ENV must be dev or prod, got %q", c.Env)
	case c.StoreBackend != BackendMemory && c.StoreBackend != BackendFile && c.StoreBackend != BackendPostgres:
		return fmt.Errorf("config: DOTRUSH_STORE must be %s, %s or %s, got %q",
			BackendMemory, BackendFile, BackendPostgres, c.StoreBackend)
	case c.StoreBackend == BackendPostgres && c.PostgresDSN == "":
		return fmt.Errorf("config: DOTRUSH_POSTGRES_DSN is required when DOTRUSH_STORE=postgres")
	case c.StoreBackend == BackendFile && c.FilePath == "":
		return fmt.Errorf("config: DOTRUSH_FILE_PATH must not be empty when DOTRUSH_STORE=file")
	case c.SessionTTL <= 0:
		return fmt.Errorf("config: DOTRUSH_SESSION_TTL must be positive, got %s", c.SessionTTL)
	case c.SubmitPerMinute <= 0:
		return fmt.Errorf("config: DOTRUSH_SUBMIT_PER_MINUTE must be positive, got %d", c.SubmitPerMinute)
	case c.SubmitBurst <= 0:
		return fmt.Errorf("config: DOTRUSH_SUBMIT_BURST must be positive, got %d", c.SubmitBurst)
	case len(c.AllowedOrigins) == 0:
		return fmt.Errorf("config: DOTRUSH_ALLOWED_ORIGINS must name at least one origin pattern")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	return n, nil
}

func getbool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", k, err)
	}
	return b, nil
}

func getdur(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
