package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/colordotrush/dotrush-backend/internal/config"
	"github.com/colordotrush/dotrush-backend/internal/game"
	"github.com/colordotrush/dotrush-backend/internal/httpapi"
	"github.com/colordotrush/dotrush-backend/internal/hub"
	"github.com/colordotrush/dotrush-backend/internal/ranking"
	"github.com/colordotrush/dotrush-backend/internal/session"
	"github.com/colordotrush/dotrush-backend/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if env == "prod" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return l
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer st.Close()

	if cfg.SeedDemo {
		if seeder, ok := st.(store.Seeder); ok {
			if err := seeder.Seed(ctx, ranking.DemoSeed()); err != nil {
				return fmt.Errorf("seed demo board: %w", err)
			}
		}
	}

	tuning, err := game.Load(cfg.GameTuningPath)
	if err != nil {
		return err
	}

	h := hub.New(ctx, logger)

	handler := httpapi.SetupRoutes(httpapi.Deps{
		Store:    st,
		Hub:      h,
		Sessions: session.NewManager(cfg.SessionSecret, cfg.SessionTTL),
		Limiter:  session.NewLimiter(cfg.SubmitPerMinute, cfg.SubmitBurst),
		Tuning:   tuning,
		Log:      logger,
		Origins:  cfg.AllowedOrigins,
	})

	// Prime the feed so subscribers that connect before the first
	// submission still get a board.
	if err := httpapi.PublishBoard(ctx, st, h); err != nil {
		logger.Warn("initial board publish", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		return store.NewFile(cfg.FilePath, logger)
	case config.BackendPostgres:
		return store.NewPostgres(cfg.PostgresDSN, logger)
	default:
		return store.NewMemory(), nil
	}
}
