// Package selectprofile сохраняет выбор профиля. Пустой profile_id сбрасывает выбор.
package selectprofile

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/http/response"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/session"
)

// Request — тело POST /select-profile.
type Request struct {
	ProfileID *int64 `json:"profile_id"`
}

// Handler обрабатывает POST /select-profile.
type Handler struct {
	log       *slog.Logger
	loginPath string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, loginPath string) *Handler {
	return &Handler{log: log, loginPath: loginPath}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profiles.select"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sess, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		response.Redirect(w, r, h.loginPath)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	redirect, err := sess.SelectProfile(r.Context(), req.ProfileID)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			response.Redirect(w, r, h.loginPath)
			return
		}
		log.Error("failed to select profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to select profile"))
		return
	}

	response.Redirect(w, r, string(redirect))
}
