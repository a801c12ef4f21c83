// Package state holds the session's access/refresh token pair on top of a
// durable key-value store.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ojclient/internal/cli/store"
	"ojclient/pkg/errors"
)

// Canonical keys. No other spelling is read.
const (
	AccessTokenKey  = "auth.access_token"
	RefreshTokenKey = "auth.refresh_token"
)

// TokenState stores auth token info.
type TokenState struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Empty reports whether no access token is held.
func (s TokenState) Empty() bool { return s.AccessToken == "" }

// TokenStore caches the token pair in memory and writes every change through
// to the backing store. It is the only place tokens are kept.
type TokenStore struct {
	mu    sync.RWMutex
	kv    store.Store
	state TokenState
}

// NewTokenStore wraps kv. Call Load to pick up persisted tokens.
func NewTokenStore(kv store.Store) *TokenStore {
	return &TokenStore{kv: kv}
}

// Load reads the persisted pair into memory.
func (t *TokenStore) Load(ctx context.Context) (TokenState, error) {
	access, _, err := t.kv.Get(ctx, AccessTokenKey)
	if err != nil {
		return TokenState{}, err
	}
	refresh, _, err := t.kv.Get(ctx, RefreshTokenKey)
	if err != nil {
		return TokenState{}, err
	}
	st := newState(access, refresh)

	t.mu.Lock()
	t.state = st
	t.mu.Unlock()
	return st, nil
}

// Snapshot returns the in-memory pair.
func (t *TokenStore) Snapshot() TokenState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *TokenStore) AccessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.AccessToken
}

func (t *TokenStore) RefreshToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.RefreshToken
}

// Save persists both tokens. Memory is only updated once both writes succeed.
func (t *TokenStore) Save(ctx context.Context, access, refresh string) error {
	if access == "" {
		return errors.ValidationError("access", "token must not be empty")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.kv.Set(ctx, AccessTokenKey, access); err != nil {
		return err
	}
	if refresh == "" {
		if err := t.kv.Delete(ctx, RefreshTokenKey); err != nil {
			return err
		}
	} else if err := t.kv.Set(ctx, RefreshTokenKey, refresh); err != nil {
		return err
	}
	t.state = newState(access, refresh)
	return nil
}

// SetAccess replaces the access token after a refresh, keeping the refresh token
// unless the backend rotated it.
func (t *TokenStore) SetAccess(ctx context.Context, access, rotatedRefresh string) error {
	refresh := rotatedRefresh
	if refresh == "" {
		refresh = t.RefreshToken()
	}
	return t.Save(ctx, access, refresh)
}

// Clear drops both tokens from memory and the backing store. Memory is cleared
// even when the store write fails so the session cannot keep using them.
func (t *TokenStore) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TokenState{}
	return t.kv.Delete(ctx, AccessTokenKey, RefreshTokenKey)
}

func newState(access, refresh string) TokenState {
	return TokenState{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  expiry(access),
		RefreshExpiresAt: expiry(refresh),
	}
}

// expiry reads the exp claim without verifying the signature; the client never
// holds the signing key. Zero time when absent or unparsable.
func expiry(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
