// Package main терминальный клиент: одна сессия на устройство, токен и
// выбранный профиль хранятся в файле.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/profile-session/internal/apiclient"
	"github.com/magabrotheeeer/profile-session/internal/app/dashboard"
	"github.com/magabrotheeeer/profile-session/internal/cli"
	"github.com/magabrotheeeer/profile-session/internal/config"
	"github.com/magabrotheeeer/profile-session/internal/events"
	"github.com/magabrotheeeer/profile-session/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/session"
	"github.com/magabrotheeeer/profile-session/internal/subscription"
	"github.com/magabrotheeeer/profile-session/internal/tokenstore"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := sl.NewLogger(cfg.Env, os.Stderr)

	path := cfg.FilePath
	if path == "" {
		path, err = tokenstore.DefaultFilePath()
		if err != nil {
			logger.Error("failed to resolve token file", sl.Err(err))
			os.Exit(1)
		}
	}
	store := tokenstore.NewFileStore(path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := apiclient.NewClient(cfg.BaseURL, cfg.API.Timeout,
		apiclient.WithInterceptor(func(req *http.Request) error {
			req.Header.Set("User-Agent", "sitectl")
			return nil
		}))
	env := cli.Env{
		Out:     os.Stdout,
		Session: dashboard.SessionBuilder(api, cfg, nil, logger)(store),
		Store:   store,
		Gate: subscription.New(api, subscription.Config{
			AdminEmail:    cfg.AdminEmail,
			SubscribePath: cfg.Subscribe,
			LoginPath:     cfg.Login,
		}, logger),
		Guard: dashboard.NewGuard(cfg.Routes),
	}
	if cfg.URL != "" {
		env.Watch = watcher(cfg.RabbitMQ, logger)
	}

	err = cli.Run(ctx, env, os.Args[1:])
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, cli.ErrAccessDenied):
		// решение уже напечатано
		os.Exit(3)
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func watcher(cfg config.RabbitMQ, logger *slog.Logger) cli.WatchFunc {
	return func(ctx context.Context, fn func(session.Event)) error {
		conn, err := rabbitmq.Connect(ctx, cfg.URL, cfg.Retries, cfg.Delay)
		if err != nil {
			return err
		}
		defer conn.Close()

		ch, err := rabbitmq.SetupExchange(conn, cfg.Exchange)
		if err != nil {
			return err
		}
		defer ch.Close()

		queue, err := rabbitmq.BindTemporaryQueue(ch, cfg.Exchange, events.RoutingKey("#"))
		if err != nil {
			return err
		}
		logger.Debug("watching session events", slog.String("exchange", cfg.Exchange), slog.String("queue", queue))
		return events.Watch(ctx, ch, queue, logger, fn)
	}
}
