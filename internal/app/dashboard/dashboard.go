package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/profile-session/internal/apiclient"
	"github.com/magabrotheeeer/profile-session/internal/config"
	"github.com/magabrotheeeer/profile-session/internal/events"
	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/profile-session/internal/routeguard"
	"github.com/magabrotheeeer/profile-session/internal/session"
	"github.com/magabrotheeeer/profile-session/internal/subscription"
	"github.com/magabrotheeeer/profile-session/internal/tokenstore"
)

// ErrUnsupportedDriver драйвер хранилища не подходит для веб-оболочки.
var ErrUnsupportedDriver = errors.New("unsupported token store driver")

type App struct {
	server *http.Server
	logger *slog.Logger
	redis  *redis.Client
	amqp   *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "dashboard.New"
	app := &App{logger: logger}

	stores, err := app.stores(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	notifier, err := app.notifier(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	api := apiclient.NewClient(cfg.BaseURL, cfg.API.Timeout)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Routes:     cfg.Routes,
		HTTPServer: cfg.HTTPServer,
		Stores:     stores,
		Sessions:   SessionBuilder(api, cfg, notifier, logger),
		Guard:      NewGuard(cfg.Routes),
		Gate: subscription.New(api, subscription.Config{
			AdminEmail:    cfg.AdminEmail,
			SubscribePath: cfg.Subscribe,
			LoginPath:     cfg.Login,
		}, logger),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// NewGuard строит route guard из путей конфига.
func NewGuard(routes config.Routes) *routeguard.Guard {
	return routeguard.New(routeguard.Config{
		ProtectedPrefixes: routes.ProtectedPrefixes,
		LoginPath:         routes.Login,
		DashboardHome:     routes.DashboardHome,
	})
}

// SessionBuilder создаёт сессию запроса поверх её хранилища токенов.
func SessionBuilder(api session.API, cfg *config.Config, notifier session.Notifier, logger *slog.Logger) middlewarectx.SessionBuilder {
	routes := session.Routes{
		Login:         cfg.Login,
		SelectProfile: cfg.SelectProfile,
		DashboardHome: cfg.DashboardHome,
	}
	return func(store tokenstore.Store) *session.Session {
		return session.New(api, store, routes, logger,
			session.WithNotifier(notifier),
			session.WithLogoutTimeout(cfg.LogoutTimeout))
	}
}

func (a *App) stores(ctx context.Context, cfg *config.Config) (middlewarectx.StoreFunc, error) {
	switch cfg.Driver {
	case "cookie":
		return middlewarectx.CookieStores(tokenstore.CookieOptions{
			TokenName:   cfg.TokenCookie,
			ProfileName: cfg.ProfileCookie,
			Secure:      cfg.CookieSecure,
			MaxAge:      cfg.CookieMaxAge,
		}), nil
	case "redis":
		db, err := tokenstore.NewRedisClient(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, err
		}
		a.redis = db
		return middlewarectx.RedisStores(db, middlewarectx.RedisSessionOptions{
			Prefix: cfg.RedisKeyPrefix,
			Cookie: cfg.SessionCookie,
			TTL:    cfg.SessionTTL,
			Secure: cfg.CookieSecure,
		}), nil
	default:
		// memory и file хранят одну сессию на процесс и годятся только для терминального клиента
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func (a *App) notifier(ctx context.Context, cfg *config.Config) (session.Notifier, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	conn, err := rabbitmq.Connect(ctx, cfg.URL, cfg.Retries, cfg.Delay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupExchange(conn, cfg.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.amqp = conn
	a.logger.Info("publishing session events", slog.String("exchange", cfg.Exchange))
	return events.NewRabbitNotifier(ch, cfg.Exchange, a.logger), nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.amqp != nil {
		_ = a.amqp.Close()
	}
}
