// Package subscribe отдаёт страницу оформления подписки, куда ведёт отказ проверки подписки.
package subscribe

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/http/response"
)

// ServeHTTP обрабатывает GET /subscribe.
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"page":    "subscribe",
		"message": "an active subscription is required to open the dashboard",
	}
	if sess, ok := middlewarectx.SessionFromContext(r.Context()); ok {
		if st := sess.State(); st.User != nil {
			data["email"] = st.User.Email
		}
	}
	render.JSON(w, r, response.OK(data))
}
