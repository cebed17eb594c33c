package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akarshrajput/evidark-v2-sub001/internal/core"
	"github.com/akarshrajput/evidark-v2-sub001/internal/store"
)

// now is replaced in tests.
var now = time.Now

// SessionFromToken builds a session from a raw token.
func SessionFromToken(token string) (core.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return core.Session{}, core.ErrNoSession
	}

	claims, err := ParseClaims(token)
	if err != nil {
		return core.Session{}, err
	}
	if claims.Expired(now()) {
		return core.Session{}, fmt.Errorf("%w: token expired at %s", core.ErrAuthentication, claims.ExpiresAt.Format(time.RFC3339))
	}
	return core.Session{UserID: claims.UserID, Token: token}, nil
}

// SessionFromStorage reads the stored token and builds a session from it.
// It returns core.ErrNoSession when no token is stored.
func SessionFromStorage(ctx context.Context, storage store.LocalStorage) (core.Session, error) {
	token, err := storage.Get(ctx, store.KeyToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Session{}, core.ErrNoSession
		}
		return core.Session{}, fmt.Errorf("read token: %w", err)
	}
	return SessionFromToken(token)
}

// SaveToken validates token and stores it.
func SaveToken(ctx context.Context, storage store.LocalStorage, token string) (core.Session, error) {
	s, err := SessionFromToken(token)
	if err != nil {
		return core.Session{}, err
	}
	if err := storage.Set(ctx, store.KeyToken, s.Token); err != nil {
		return core.Session{}, fmt.Errorf("save token: %w", err)
	}
	return s, nil
}

// ClearToken removes the stored token.
func ClearToken(ctx context.Context, storage store.LocalStorage) error {
	return storage.Delete(ctx, store.KeyToken)
}
