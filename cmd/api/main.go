package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nerraj-droid/bisig-final-sub001/auth"
	"github.com/nerraj-droid/bisig-final-sub001/blotter"
	"github.com/nerraj-droid/bisig-final-sub001/config"
	"github.com/nerraj-droid/bisig-final-sub001/db"
	"github.com/nerraj-droid/bisig-final-sub001/hearing"
	"github.com/nerraj-droid/bisig-final-sub001/resident"
)

const devJWTSecret = "local-development-secret"

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		zap.S().Fatalw("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		zap.S().Fatalw("server stopped", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	srv := &Server{timeout: cfg.RequestTimeout}

	switch cfg.StoreDriver {
	case config.DriverBolt:
		repo, err := blotter.OpenBolt(cfg.BoltPath)
		if err != nil {
			return err
		}
		defer repo.Close()
		srv.caseService = blotter.NewService(repo)
		zap.S().Warnw("running on the bolt store without authentication", "path", cfg.BoltPath)

	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		residents := resident.NewService(resident.NewRepository(pool))
		hearings := hearing.NewService(hearing.NewRepository(pool))

		secret := cfg.JWTSecret
		if secret == "" {
			zap.S().Warn("JWT_SECRET not set, using the local development secret")
			secret = devJWTSecret
		}

		srv.caseService = blotter.NewService(blotter.NewPGRepository(pool)).WithPartyResolver(residents)
		srv.hearingService = hearings
		srv.residentService = residents
		srv.authService = auth.NewService(auth.NewRepository(pool), secret)

		sweeper := hearing.NewSweeper(hearings, cfg.HearingSweepSpec)
		if err := sweeper.Start(); err != nil {
			return err
		}
		defer sweeper.Stop()
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("listening", "addr", httpServer.Addr, "store", cfg.StoreDriver, "env", cfg.Env)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.S().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
