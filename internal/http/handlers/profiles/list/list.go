// Package list отдаёт страницу выбора профиля: профили пользователя
// и текущий выбранный профиль.
package list

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/http/response"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/models"
	"github.com/magabrotheeeer/profile-session/internal/session"
)

// Page данные страницы выбора профиля.
type Page struct {
	Profiles        []models.Profile `json:"profiles"`
	ActiveProfileID *int64           `json:"active_profile_id"`
}

// Handler обрабатывает GET /select-profile.
type Handler struct {
	log       *slog.Logger
	loginPath string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, loginPath string) *Handler {
	return &Handler{log: log, loginPath: loginPath}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profiles.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sess, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		response.Redirect(w, r, h.loginPath)
		return
	}

	profiles, err := sess.Profiles(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			response.Redirect(w, r, h.loginPath)
			return
		}
		log.Error("failed to list profiles", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to list profiles"))
		return
	}

	page := Page{Profiles: profiles}
	if active := sess.State().ActiveProfile; active != nil {
		id := active.ID
		page.ActiveProfileID = &id
	}

	log.Debug("profiles listed", slog.Int("count", len(profiles)))
	render.JSON(w, r, response.OK(page))
}
