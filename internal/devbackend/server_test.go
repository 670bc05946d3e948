package devbackend

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/profile-session/internal/apiclient"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/models"
)

func newTestBackend(t *testing.T) (*Server, *apiclient.Client) {
	t.Helper()
	srv, err := New(DefaultSeed(), NewTokenMaker("secret", time.Hour), sl.Discard(), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, apiclient.NewClient(ts.URL, time.Second)
}

func TestServer_LoginAndIdentity(t *testing.T) {
	_, client := newTestBackend(t)
	ctx := context.Background()

	token, err := client.Login(ctx, "User@Example.com", "password")
	require.NoError(t, err)

	user, err := client.Me(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "user@example.com", user.Email)

	profiles, err := client.Profiles(ctx, token)
	require.NoError(t, err)
	assert.Len(t, profiles, 3)

	status, err := client.SubscriptionStatus(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, status)
}

func TestServer_LoginRejected(t *testing.T) {
	_, client := newTestBackend(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantCode int
		wantMsg  string
	}{
		{name: "wrong password", email: "user@example.com", password: "nope", wantCode: http.StatusUnauthorized, wantMsg: "wrong email or password"},
		{name: "unknown user", email: "ghost@example.com", password: "password", wantCode: http.StatusUnauthorized, wantMsg: "wrong email or password"},
		{name: "invalid email", email: "ghost", password: "password", wantCode: http.StatusUnprocessableEntity, wantMsg: "field Email must be a valid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Login(context.Background(), tt.email, tt.password)
			require.Error(t, err)

			var se *apiclient.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantCode, se.Code)
			assert.Equal(t, tt.wantMsg, se.Message)
		})
	}
}

func TestServer_BearerRequired(t *testing.T) {
	_, client := newTestBackend(t)

	_, err := client.Me(context.Background(), "garbage")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))

	_, err = client.Profiles(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
}

func TestServer_LogoutRevokesToken(t *testing.T) {
	_, client := newTestBackend(t)
	ctx := context.Background()

	token, err := client.Login(ctx, "user@example.com", "password")
	require.NoError(t, err)
	other, err := client.Login(ctx, "user@example.com", "password")
	require.NoError(t, err)

	require.NoError(t, client.Logout(ctx, token))

	_, err = client.Me(ctx, token)
	assert.True(t, apiclient.IsUnauthorized(err))

	_, err = client.Me(ctx, other)
	assert.NoError(t, err, "other devices stay signed in")
}

func TestServer_SetSubscription(t *testing.T) {
	srv, client := newTestBackend(t)
	ctx := context.Background()

	token, err := client.Login(ctx, "pending@example.com", "password")
	require.NoError(t, err)

	status, err := client.SubscriptionStatus(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPending, status)

	assert.True(t, srv.SetSubscription("pending@example.com", models.SubscriptionActive))
	assert.False(t, srv.SetSubscription("ghost@example.com", models.SubscriptionActive))

	status, err = client.SubscriptionStatus(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, status)
}

func TestServer_BadLoginBody(t *testing.T) {
	srv, _ := newTestBackend(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestNew_DuplicateUser(t *testing.T) {
	seed := Seed{Users: []SeedUser{
		{ID: 1, Email: "a@example.com", Password: "x"},
		{ID: 2, Email: "A@example.com", Password: "y"},
	}}
	_, err := New(seed, NewTokenMaker("s", time.Hour), sl.Discard(), WithBcryptCost(bcrypt.MinCost))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate user")
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
users:
  - id: 9
    email: "seed@example.com"
    password: "pw"
    subscription: "active"
    profiles:
      - id: 5
        name: "Seeded"
`), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Users, 1)
	assert.Equal(t, int64(9), seed.Users[0].ID)
	assert.Equal(t, models.SubscriptionActive, seed.Users[0].Subscription)
	assert.Equal(t, []models.Profile{{ID: 5, Name: "Seeded"}}, seed.Users[0].Profiles)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("users: []\n"), 0o600))
	_, err = LoadSeed(empty)
	assert.Error(t, err)
}
