// Package logout реализует выход: сессия очищается безусловно, даже если
// бэкенд недоступен, и клиент уходит на страницу входа.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/http/response"
)

// Handler обрабатывает POST /logout.
type Handler struct {
	log       *slog.Logger
	loginPath string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, loginPath string) *Handler {
	return &Handler{log: log, loginPath: loginPath}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	sess, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		response.Redirect(w, r, h.loginPath)
		return
	}

	redirect := sess.Logout(r.Context())
	h.log.Info("logout",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	response.Redirect(w, r, string(redirect))
}
