package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/profile-session/internal/http/response"
	"github.com/magabrotheeeer/profile-session/internal/lib/metrics"
	"github.com/magabrotheeeer/profile-session/internal/routeguard"
	"github.com/magabrotheeeer/profile-session/internal/tokenstore"
)

// RouteGuard выполняет решение routeguard до любых запросов в бэкенд.
// Смотрит только на наличие токена в хранилище из контекста.
func RouteGuard(g *routeguard.Guard, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RouteGuard"

			store, _ := StoreFromContext(r.Context())
			present := tokenstore.Present(r.Context(), store)

			d := g.Decide(r.URL.Path, present)
			metrics.RouteGuardDecisions.WithLabelValues(d.Kind.String(), d.Target).Inc()
			if !d.IsRedirect() {
				next.ServeHTTP(w, r)
				return
			}

			log.Debug("route guard redirect",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("path", r.URL.Path),
				slog.Bool("token_present", present),
				slog.String("target", d.Target))
			response.Redirect(w, r, d.Target)
		})
	}
}
