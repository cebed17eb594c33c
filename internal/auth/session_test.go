package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarshrajput/evidark-v2-sub001/internal/core"
	"github.com/akarshrajput/evidark-v2-sub001/internal/store"
	"github.com/akarshrajput/evidark-v2-sub001/internal/store/sqlite"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func newTestStorage(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func withNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestParseClaimsUserID(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{name: "userId", claims: jwt.MapClaims{"userId": "u1"}, want: "u1"},
		{name: "id", claims: jwt.MapClaims{"id": "64f0c0ffee"}, want: "64f0c0ffee"},
		{name: "sub", claims: jwt.MapClaims{"sub": "u3"}, want: "u3"},
		{name: "first wins", claims: jwt.MapClaims{"user_id": "a", "sub": "b"}, want: "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseClaims(signToken(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.want, claims.UserID)
		})
	}
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	assert.ErrorIs(t, err, core.ErrAuthentication)

	_, err = ParseClaims(signToken(t, jwt.MapClaims{"role": "reader"}))
	assert.ErrorIs(t, err, core.ErrAuthentication)
}

func TestSessionFromToken(t *testing.T) {
	withNow(t, fixedNow)

	valid := signToken(t, jwt.MapClaims{"id": "u1", "exp": fixedNow.Add(time.Hour).Unix()})
	s, err := SessionFromToken(valid)
	require.NoError(t, err)
	assert.Equal(t, core.Session{UserID: "u1", Token: valid}, s)

	expired := signToken(t, jwt.MapClaims{"id": "u1", "exp": fixedNow.Add(-time.Minute).Unix()})
	_, err = SessionFromToken(expired)
	assert.ErrorIs(t, err, core.ErrAuthentication)

	_, err = SessionFromToken("  ")
	assert.ErrorIs(t, err, core.ErrNoSession)
}

func TestSessionFromStorage(t *testing.T) {
	withNow(t, fixedNow)
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := SessionFromStorage(ctx, storage)
	assert.ErrorIs(t, err, core.ErrNoSession)

	token := signToken(t, jwt.MapClaims{"userId": "u7", "exp": fixedNow.Add(time.Hour).Unix()})
	saved, err := SaveToken(ctx, storage, token)
	require.NoError(t, err)

	loaded, err := SessionFromStorage(ctx, storage)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	require.NoError(t, ClearToken(ctx, storage))
	_, err = SessionFromStorage(ctx, storage)
	assert.ErrorIs(t, err, core.ErrNoSession)
}

func TestSaveTokenRejectsInvalid(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := SaveToken(ctx, storage, "garbage")
	assert.ErrorIs(t, err, core.ErrAuthentication)

	_, err = storage.Get(ctx, store.KeyToken)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
