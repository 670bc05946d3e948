package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/profile-session/internal/http/response"
	"github.com/magabrotheeeer/profile-session/internal/subscription"
)

// SubscriptionGate проверяет подписку при каждом входе на защищённую страницу.
// При отказе перенаправляет туда, куда велит решение.
func SubscriptionGate(gate *subscription.Gate, loginPath string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SubscriptionGate"

			sess, ok := SessionFromContext(r.Context())
			if !ok {
				response.Redirect(w, r, loginPath)
				return
			}

			d := gate.CheckAccess(r.Context(), sess)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			log.Info("access denied by subscription gate",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("reason", d.Reason))
			response.Redirect(w, r, d.Redirect)
		})
	}
}
