package tokenstore

import (
	"context"
	"net/http"
	"time"
)

// CookieOptions настройки cookie, в которых хранятся токен и профиль.
type CookieOptions struct {
	TokenName   string
	ProfileName string
	Path        string
	Secure      bool
	MaxAge      time.Duration
}

// CookieStore хранит значения в cookie браузера. Живёт в пределах одного запроса:
// читает cookie запроса и пишет Set-Cookie в ответ. Записанные значения видны
// последующим чтениям в том же запросе.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	opts    CookieOptions
	pending map[string]string
}

// NewCookieStore создаёт хранилище поверх запроса r и ответа w.
func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &CookieStore{
		w:       w,
		r:       r,
		opts:    opts,
		pending: make(map[string]string, 2),
	}
}

// CookiePresent сообщает, есть ли в запросе непустая cookie name.
func CookiePresent(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}

func (c *CookieStore) Token(_ context.Context) (string, error) {
	return c.read(c.opts.TokenName), nil
}

func (c *CookieStore) SetToken(_ context.Context, token string) error {
	c.write(c.opts.TokenName, token)
	return nil
}

func (c *CookieStore) ClearToken(_ context.Context) error {
	c.write(c.opts.TokenName, "")
	return nil
}

func (c *CookieStore) ProfileID(_ context.Context) (string, error) {
	return c.read(c.opts.ProfileName), nil
}

func (c *CookieStore) SetProfileID(_ context.Context, id string) error {
	c.write(c.opts.ProfileName, id)
	return nil
}

func (c *CookieStore) read(name string) string {
	if v, ok := c.pending[name]; ok {
		return v
	}
	cookie, err := c.r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c *CookieStore) write(name, value string) {
	c.pending[name] = value

	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.opts.Path,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else if c.opts.MaxAge > 0 {
		cookie.MaxAge = int(c.opts.MaxAge / time.Second)
	}
	http.SetCookie(c.w, cookie)
}
