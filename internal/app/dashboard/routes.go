// Package dashboard собирает веб-оболочку: маршруты, middleware сессии и HTTP-сервер.
package dashboard

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/profile-session/internal/config"
	"github.com/magabrotheeeer/profile-session/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/profile-session/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/profile-session/internal/http/handlers/dashboard/home"
	"github.com/magabrotheeeer/profile-session/internal/http/handlers/dashboard/subscribe"
	"github.com/magabrotheeeer/profile-session/internal/http/handlers/health"
	"github.com/magabrotheeeer/profile-session/internal/http/handlers/profiles/list"
	"github.com/magabrotheeeer/profile-session/internal/http/handlers/profiles/selectprofile"
	"github.com/magabrotheeeer/profile-session/internal/http/handlers/sessionstate"
	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/routeguard"
	"github.com/magabrotheeeer/profile-session/internal/subscription"
)

// Deps зависимости маршрутов.
type Deps struct {
	Routes     config.Routes
	HTTPServer config.HTTPServer
	Stores     middlewarectx.StoreFunc
	Sessions   middlewarectx.SessionBuilder
	Guard      *routeguard.Guard
	Gate       *subscription.Gate
}

// RegisterRoutes регистрирует все маршруты веб-оболочки.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	routes := d.Routes
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.WithStore(d.Stores))
		r.Use(middlewarectx.RouteGuard(d.Guard, logger))
		r.Use(middlewarectx.WithSession(d.Sessions, logger))

		r.Get(routes.Login, login.Page)
		r.With(middlewarectx.RateLimitMiddleware(logger, d.HTTPServer.LoginRateLimit, d.HTTPServer.LoginBurst)).
			Post(routes.Login, login.New(logger).ServeHTTP)
		r.Post("/logout", logout.New(logger, routes.Login).ServeHTTP)

		r.Get(routes.SelectProfile, list.New(logger, routes.Login).ServeHTTP)
		r.Post(routes.SelectProfile, selectprofile.New(logger, routes.Login).ServeHTTP)

		r.Get(routes.Subscribe, subscribe.ServeHTTP)
		r.Get("/session", sessionstate.ServeHTTP)

		// Защищённые страницы: нужен выбранный профиль и активная подписка
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireProfile(routes.Login, routes.SelectProfile))
			r.Use(middlewarectx.SubscriptionGate(d.Gate, routes.Login, logger))

			homeHandler := home.New(logger, routes.Login)
			r.Get(routes.DashboardHome, homeHandler.ServeHTTP)
			r.Get(routes.DashboardHome+"/*", homeHandler.ServeHTTP)
		})
	})
}
