package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/profile-session/internal/http/response"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/session"
	"github.com/magabrotheeeer/profile-session/internal/tokenstore"
)

// SessionBuilder создаёт сессию поверх хранилища токенов запроса.
type SessionBuilder func(store tokenstore.Store) *session.Session

// WithSession загружает сессию запроса и кладёт её в контекст.
// Обработчик не вызывается, пока загрузка не закончилась.
func WithSession(build SessionBuilder, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.WithSession"

			store, ok := StoreFromContext(r.Context())
			if !ok {
				store = tokenstore.NewMemoryStore()
			}

			sess := build(store)
			if _, err := sess.Load(r.Context()); err != nil {
				log.Warn("session load interrupted",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("session is loading"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

// ContextWithSession кладёт сессию в контекст.
func ContextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionFromContext достаёт сессию из контекста.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*session.Session)
	return s, ok && s != nil
}

// RequireProfile пускает дальше только сессии с выбранным профилем.
// Без аутентификации ведёт на логин, без профиля на выбор профиля.
func RequireProfile(loginPath, selectProfilePath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				response.Redirect(w, r, loginPath)
				return
			}
			switch sess.State().Phase() {
			case session.PhaseProfileSelected:
				next.ServeHTTP(w, r)
			case session.PhaseNoProfile:
				response.Redirect(w, r, selectProfilePath)
			default:
				response.Redirect(w, r, loginPath)
			}
		})
	}
}
