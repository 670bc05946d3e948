// Package middlewarectx содержит HTTP middleware веб-оболочки: выбор хранилища
// токенов для запроса, route guard, загрузку сессии и проверку подписки.
// Результаты складываются в контекст запроса.
package middlewarectx

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/profile-session/internal/tokenstore"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// StoreKey — ключ хранилища токенов в контексте
	StoreKey Key = "token_store"
	// SessionKey — ключ сессии в контексте
	SessionKey Key = "session"
)

// StoreFunc возвращает хранилище токенов для запроса.
type StoreFunc func(w http.ResponseWriter, r *http.Request) tokenstore.Store

// CookieStores хранит токен и профиль прямо в cookie браузера.
func CookieStores(opts tokenstore.CookieOptions) StoreFunc {
	return func(w http.ResponseWriter, r *http.Request) tokenstore.Store {
		return tokenstore.NewCookieStore(w, r, opts)
	}
}

// RedisSessionOptions настройки хранилища в redis.
type RedisSessionOptions struct {
	Prefix string
	Cookie string
	TTL    time.Duration
	Secure bool
}

// RedisStores хранит значения в redis под идентификатором устройства из cookie.
// Если cookie нет, выдаётся новый идентификатор.
func RedisStores(db *redis.Client, opts RedisSessionOptions) StoreFunc {
	return func(w http.ResponseWriter, r *http.Request) tokenstore.Store {
		sid := ""
		if c, err := r.Cookie(opts.Cookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			cookie := &http.Cookie{
				Name:     opts.Cookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if opts.TTL > 0 {
				cookie.MaxAge = int(opts.TTL / time.Second)
			}
			http.SetCookie(w, cookie)
		}
		return tokenstore.NewRedisStore(db, opts.Prefix, sid, opts.TTL)
	}
}

// WithStore кладёт хранилище токенов запроса в контекст.
func WithStore(stores StoreFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), StoreKey, stores(w, r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StoreFromContext достаёт хранилище токенов из контекста.
func StoreFromContext(ctx context.Context) (tokenstore.Store, bool) {
	s, ok := ctx.Value(StoreKey).(tokenstore.Store)
	return s, ok && s != nil
}
