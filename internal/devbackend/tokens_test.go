package devbackend

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMaker_GenerateAndParse(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewTokenMaker("test_secret_key_1234567890", tokenTTL)

	token, err := maker.GenerateToken(42, "user@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)

	other, err := maker.GenerateToken(42, "user@example.com")
	require.NoError(t, err)
	otherClaims, err := maker.ParseToken(other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestTokenMaker_ParseInvalid(t *testing.T) {
	secret := "test_secret_key_1234567890"
	maker := NewTokenMaker(secret, 15*time.Minute)

	valid, err := maker.GenerateToken(1, "a@b.c")
	require.NoError(t, err)

	expired, err := NewTokenMaker(secret, -time.Hour).GenerateToken(1, "a@b.c")
	require.NoError(t, err)

	wrongSecret, err := NewTokenMaker("wrong_secret_key", 15*time.Minute).GenerateToken(1, "a@b.c")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expired},
		{name: "wrong secret key", token: wrongSecret},
		{name: "tampered token", token: valid + "tampered"},
		{name: "none algorithm", token: noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestTokenMaker_Clock(t *testing.T) {
	maker := NewTokenMaker("secret", time.Minute)
	base := time.Now()
	maker.now = func() time.Time { return base }

	token, err := maker.GenerateToken(1, "a@b.c")
	require.NoError(t, err)

	maker.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
