// Package login реализует HTTP-обработчик входа: декодирует учётные данные,
// валидирует их и передаёт в сессию запроса. При успехе ведёт на выбор профиля,
// при отказе бэкенда возвращает его сообщение для показа в форме.
package login

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/http/response"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/session"
)

// Request — структура входных данных для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает POST /login.
type Handler struct {
	log      *slog.Logger
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{
		log:      log,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sess, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		log.Error("session missing in context")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	redirect, err := sess.Login(r.Context(), session.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			log.Info("login rejected", sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error(invalidCredentialsMessage(err)))
			return
		}
		if errors.Is(err, session.ErrSessionInvalid) {
			log.Warn("issued token failed identity check", sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("session could not be verified"))
			return
		}
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("backend unavailable"))
		return
	}

	log.Info("login success")
	response.Redirect(w, r, string(redirect))
}

// invalidCredentialsMessage возвращает текст отказа для формы.
func invalidCredentialsMessage(err error) string {
	var le *session.LoginError
	if errors.As(err, &le) {
		return le.Message
	}
	return session.ErrInvalidCredentials.Error()
}

// Page отдаёт описание формы входа для GET /login.
func Page(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OK(map[string]any{
		"page":   "login",
		"fields": []string{"email", "password"},
	}))
}
