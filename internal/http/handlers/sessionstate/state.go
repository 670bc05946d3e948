// Package sessionstate отдаёт снимок сессии запроса.
package sessionstate

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/http/response"
	"github.com/magabrotheeeer/profile-session/internal/session"
)

// View снимок сессии с названием фазы.
type View struct {
	Phase string `json:"phase"`
	session.State
}

// ServeHTTP обрабатывает GET /session.
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("session missing"))
		return
	}
	st := sess.State()
	render.JSON(w, r, response.OK(View{Phase: st.Phase().String(), State: st}))
}
