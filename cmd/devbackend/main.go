// Package main локальный стенд бэкенда с пользователями из seed-файла.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/magabrotheeeer/profile-session/internal/config"
	"github.com/magabrotheeeer/profile-session/internal/devbackend"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env)

	seed := devbackend.DefaultSeed()
	if cfg.SeedPath != "" {
		var err error
		seed, err = devbackend.LoadSeed(cfg.SeedPath)
		if err != nil {
			logger.Error("failed to load seed", sl.Err(err))
			os.Exit(1)
		}
	}

	backend, err := devbackend.New(seed, devbackend.NewTokenMaker(cfg.JWTSecretKey, cfg.TokenTTL), logger)
	if err != nil {
		logger.Error("failed to initialize backend", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         cfg.DevBackend.Address,
		Handler:      backend.Handler(),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dev backend listening", slog.String("address", srv.Addr), slog.Int("users", len(seed.Users)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("dev backend stopped with error", sl.Err(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down", sl.Err(err))
		}
	}
	logger.Info("dev backend stopped")
}
