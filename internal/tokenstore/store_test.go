package tokenstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/profile-session/internal/config"
)

// exerciseStore проверяет общий контракт Store для любой реализации.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.False(t, Present(ctx, s))

	require.NoError(t, s.SetToken(ctx, "tok-1"))
	require.NoError(t, s.SetProfileID(ctx, "7"))

	token, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.True(t, Present(ctx, s))

	id, err := s.ProfileID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	require.NoError(t, s.SetProfileID(ctx, ""))
	id, err = s.ProfileID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.ClearToken(ctx))
	token, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStore(t, NewFileStore(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty state removes the file")
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first := NewFileStore(path)
	require.NoError(t, first.SetToken(ctx, "persisted"))
	require.NoError(t, first.SetProfileID(ctx, "3"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second := NewFileStore(path)
	token, err := second.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)
	id, err := second.ProfileID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3", id)
}

func TestFileStore_CorruptedFileDegradesToNoSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewFileStore(path)
	_, err := s.Token(ctx)
	require.Error(t, err)
	assert.False(t, Present(ctx, s))

	require.NoError(t, s.SetToken(ctx, "fresh"))
	assert.True(t, Present(ctx, s))
}

func setupRedisStore(t *testing.T, sid string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	db, err := NewRedisClient(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRedisStore(db, "session", sid, time.Hour), mr
}

func TestRedisStore(t *testing.T) {
	s, _ := setupRedisStore(t, "device-1")
	exerciseStore(t, s)
	assert.Equal(t, "device-1", s.SID())
}

func TestRedisStore_KeysAndTTL(t *testing.T) {
	s, mr := setupRedisStore(t, "device-2")
	ctx := context.Background()

	require.NoError(t, s.SetToken(ctx, "tok"))
	got, err := mr.Get("session:device-2:token")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.Equal(t, time.Hour, mr.TTL("session:device-2:token"))

	mr.FastForward(2 * time.Hour)
	assert.False(t, Present(ctx, s))
}

func TestRedisStore_UnavailableDegrades(t *testing.T) {
	s, mr := setupRedisStore(t, "device-3")
	ctx := context.Background()
	require.NoError(t, s.SetToken(ctx, "tok"))

	mr.Close()

	_, err := s.Token(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, Present(ctx, s))
}

func TestNewRedisClient_PingFails(t *testing.T) {
	_, err := NewRedisClient(context.Background(), config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokenstore.NewRedisClient")
}

func TestCookieStore(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	opts := CookieOptions{TokenName: "token", ProfileName: "profile_id", MaxAge: time.Hour}

	exerciseStore(t, NewCookieStore(rec, req, opts))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	last := map[string]*http.Cookie{}
	for _, c := range cookies {
		last[c.Name] = c
	}
	require.Contains(t, last, "token")
	assert.Equal(t, -1, last["token"].MaxAge)
	assert.True(t, last["token"].HttpOnly)
}

func TestCookieStore_ReadsRequestCookies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "from-browser"})
	req.AddCookie(&http.Cookie{Name: "profile_id", Value: "12"})

	s := NewCookieStore(httptest.NewRecorder(), req, CookieOptions{TokenName: "token", ProfileName: "profile_id"})
	ctx := context.Background()

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-browser", token)
	id, err := s.ProfileID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12", id)

	assert.True(t, CookiePresent(req, "token"))
	assert.False(t, CookiePresent(req, "missing"))
}

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": jwt.NewNumericDate(exp),
	}).SignedString([]byte("any-key"))
	require.NoError(t, err)

	got, ok := Expiry(token)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = Expiry("opaque-token")
	assert.False(t, ok)
}

func TestPresent_NilStore(t *testing.T) {
	assert.False(t, Present(context.Background(), nil))
}
