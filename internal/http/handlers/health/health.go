package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/profile-session/internal/http/response"
)

// ServeHTTP отвечает на GET /health.
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OK(map[string]any{
		"status": "ok",
	}))
}
