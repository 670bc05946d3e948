package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/profile-session/internal/apiclient"
	"github.com/magabrotheeeer/profile-session/internal/config"
	"github.com/magabrotheeeer/profile-session/internal/devbackend"
	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/models"
	"github.com/magabrotheeeer/profile-session/internal/subscription"
	"github.com/magabrotheeeer/profile-session/internal/tokenstore"
)

type shell struct {
	t       *testing.T
	url     string
	client  *http.Client
	backend *devbackend.Server
}

func newShell(t *testing.T) *shell {
	t.Helper()
	log := sl.Discard()

	backend, err := devbackend.New(devbackend.DefaultSeed(), devbackend.NewTokenMaker("secret", time.Hour), log,
		devbackend.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	backendSrv := httptest.NewServer(backend.Handler())
	t.Cleanup(backendSrv.Close)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.BaseURL = backendSrv.URL
	cfg.AdminEmail = "admin@example.com"

	api := apiclient.NewClient(cfg.BaseURL, time.Second)
	router := chi.NewRouter()
	RegisterRoutes(router, log, Deps{
		Routes:     cfg.Routes,
		HTTPServer: cfg.HTTPServer,
		Stores: middlewarectx.CookieStores(tokenstore.CookieOptions{
			TokenName:   cfg.TokenCookie,
			ProfileName: cfg.ProfileCookie,
		}),
		Sessions: SessionBuilder(api, cfg, nil, log),
		Guard:    NewGuard(cfg.Routes),
		Gate: subscription.New(api, subscription.Config{
			AdminEmail:    cfg.AdminEmail,
			SubscribePath: cfg.Subscribe,
			LoginPath:     cfg.Login,
		}, log),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &shell{
		t:   t,
		url: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		backend: backend,
	}
}

func (s *shell) do(method, path string, body any) (*http.Response, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.url+path, &buf)
	require.NoError(s.t, err)

	resp, err := s.client.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var got map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&got)
	return resp, got
}

func (s *shell) expectRedirect(method, path string, body any, target string) {
	s.t.Helper()
	resp, _ := s.do(method, path, body)
	require.Equal(s.t, http.StatusSeeOther, resp.StatusCode, "%s %s", method, path)
	assert.Equal(s.t, target, resp.Header.Get("Location"), "%s %s", method, path)
}

func TestDashboard_FullFlow(t *testing.T) {
	s := newShell(t)

	// без токена защищённые страницы ведут на логин
	s.expectRedirect(http.MethodGet, "/dashboard", nil, "/login")
	s.expectRedirect(http.MethodGet, "/select-profile", nil, "/login")

	resp, body := s.do(http.MethodPost, "/login", map[string]string{"email": "user@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "wrong email or password", body["error"])

	s.expectRedirect(http.MethodPost, "/login", map[string]string{"email": "user@example.com", "password": "password"}, "/select-profile")
	s.expectRedirect(http.MethodGet, "/login", nil, "/dashboard")

	// профиль ещё не выбран
	s.expectRedirect(http.MethodGet, "/dashboard", nil, "/select-profile")

	resp, body = s.do(http.MethodGet, "/select-profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Len(t, data["profiles"], 3)
	assert.Nil(t, data["active_profile_id"])

	s.expectRedirect(http.MethodPost, "/select-profile", map[string]any{"profile_id": 99}, "/select-profile")
	s.expectRedirect(http.MethodPost, "/select-profile", map[string]any{"profile_id": 7}, "/dashboard")

	resp, body = s.do(http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := body["data"].(map[string]any)["profile"].(map[string]any)
	assert.Equal(t, float64(7), profile["id"])

	// отмена подписки действует со следующего входа на защищённую страницу
	require.True(t, s.backend.SetSubscription("user@example.com", models.SubscriptionCancelled))
	s.expectRedirect(http.MethodGet, "/dashboard", nil, "/subscribe")

	resp, _ = s.do(http.MethodGet, "/subscribe", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.expectRedirect(http.MethodPost, "/logout", nil, "/login")
	s.expectRedirect(http.MethodGet, "/dashboard", nil, "/login")

	resp, body = s.do(http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unauthenticated", body["data"].(map[string]any)["phase"])
}

func TestDashboard_AdminBypassesSubscription(t *testing.T) {
	s := newShell(t)

	s.expectRedirect(http.MethodPost, "/login", map[string]string{"email": "admin@example.com", "password": "admin"}, "/select-profile")
	s.expectRedirect(http.MethodPost, "/select-profile", map[string]any{"profile_id": 4}, "/dashboard")

	resp, _ := s.do(http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDashboard_PendingSubscriptionDenied(t *testing.T) {
	s := newShell(t)

	s.expectRedirect(http.MethodPost, "/login", map[string]string{"email": "pending@example.com", "password": "password"}, "/select-profile")
	s.expectRedirect(http.MethodPost, "/select-profile", map[string]any{"profile_id": 3}, "/dashboard")
	s.expectRedirect(http.MethodGet, "/dashboard", nil, "/subscribe")
}

func TestDashboard_HealthAndMetrics(t *testing.T) {
	s := newShell(t)

	resp, body := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body["status"])

	req, err := http.NewRequest(http.MethodGet, s.url+"/metrics", nil)
	require.NoError(t, err)
	mresp, err := s.client.Do(req)
	require.NoError(t, err)
	defer mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
}

func TestNew_RejectsSingleSessionDrivers(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	for _, driver := range []string{"file", "memory"} {
		cfg.Driver = driver
		_, err := New(context.Background(), cfg, sl.Discard())
		assert.ErrorIs(t, err, ErrUnsupportedDriver)
	}
}
