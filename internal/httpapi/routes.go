package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/colordotrush/dotrush-backend/internal/game"
	"github.com/colordotrush/dotrush-backend/internal/hub"
	"github.com/colordotrush/dotrush-backend/internal/session"
	"github.com/colordotrush/dotrush-backend/internal/store"
	"github.com/colordotrush/dotrush-backend/internal/ws"
)

// Deps carries everything the router needs. All fields are required.
type Deps struct {
	Store    store.Store
	Hub      *hub.Hub
	Sessions *session.Manager
	Limiter  *session.Limiter
	Tuning   *game.Config
	Log      *zap.Logger
	Origins  []string
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Log))

	// Public routes
	r.Post("/api/session", CreateSession(d.Sessions, d.Log))
	r.Get("/api/game-config", GameConfig(d.Tuning))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, d.Sessions, d.Log, d.Origins))

	// Leaderboard routes
	r.With(d.Sessions.OptionalSession).Get("/api/get-leaderboard", GetLeaderboard(d.Store, d.Log))
	r.With(d.Sessions.RequireSession).Post("/api/submit-score", SubmitScore(d.Store, d.Hub, d.Limiter, d.Tuning, d.Log))

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
