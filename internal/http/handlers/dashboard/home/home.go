// Package home отдаёт главную страницу дашборда для выбранного профиля.
package home

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/http/response"
	"github.com/magabrotheeeer/profile-session/internal/models"
)

// Page данные главной страницы.
type Page struct {
	User    *models.User    `json:"user"`
	Profile *models.Profile `json:"profile"`
	Epoch   uint64          `json:"epoch"`
}

// Handler обрабатывает GET /dashboard.
type Handler struct {
	log       *slog.Logger
	loginPath string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, loginPath string) *Handler {
	return &Handler{log: log, loginPath: loginPath}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		response.Redirect(w, r, h.loginPath)
		return
	}

	st := sess.State()
	render.JSON(w, r, response.OK(Page{
		User:    st.User,
		Profile: st.ActiveProfile,
		Epoch:   st.Epoch,
	}))
}
