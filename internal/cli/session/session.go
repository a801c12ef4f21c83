// Package session owns the signed-in user and the persisted tokens.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ojclient/internal/cli/api"
	"ojclient/internal/cli/state"
	"ojclient/internal/cli/validate"
	"ojclient/pkg/errors"
	"ojclient/pkg/utils/logger"
)

// Backend is the slice of the judge API the session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.RegisterResponse, error)
	Profile(ctx context.Context) (api.User, error)
	Logout(ctx context.Context, access, refresh string) error
}

// Manager tracks who is signed in. The token store is shared with the HTTP
// client, which may clear it after a failed refresh.
type Manager struct {
	backend Backend
	tokens  *state.TokenStore

	mu   sync.RWMutex
	user *api.User
}

func NewManager(backend Backend, tokens *state.TokenStore) *Manager {
	return &Manager{backend: backend, tokens: tokens}
}

// Login authenticates and persists both tokens. Nothing is stored on failure.
func (m *Manager) Login(ctx context.Context, email, password string) (api.User, error) {
	if err := validate.Login(email, password); err != nil {
		return api.User{}, err
	}
	resp, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return api.User{}, err
	}
	if err := m.tokens.Save(ctx, resp.Tokens.Access, resp.Tokens.Refresh); err != nil {
		return api.User{}, err
	}
	m.setUser(&resp.User)
	logger.Info(ctx, "logged in", zap.Int64("user_id", resp.User.ID))
	return resp.User, nil
}

// Register creates an account. The session is signed in only when the backend
// hands back tokens with the new user.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) (api.RegisterResponse, error) {
	if err := validate.Registration(req); err != nil {
		return api.RegisterResponse{}, err
	}
	resp, err := m.backend.Register(ctx, req)
	if err != nil {
		return resp, err
	}
	if resp.Tokens != nil && resp.Tokens.Access != "" {
		if err := m.tokens.Save(ctx, resp.Tokens.Access, resp.Tokens.Refresh); err != nil {
			return resp, err
		}
		m.setUser(&resp.User)
	}
	return resp, nil
}

// Logout always succeeds locally. The backend is told afterwards and its
// failures are only logged.
func (m *Manager) Logout(ctx context.Context) error {
	st := m.tokens.Snapshot()
	m.setUser(nil)
	clearErr := m.tokens.Clear(ctx)

	if st.RefreshToken != "" {
		if err := m.backend.Logout(ctx, st.AccessToken, st.RefreshToken); err != nil {
			logger.Warn(ctx, "logout notification failed", zap.Error(err))
		}
	}
	return clearErr
}

// Restore loads persisted tokens and confirms them with one profile call.
// An auth failure clears the tokens; any other failure keeps them.
func (m *Manager) Restore(ctx context.Context) error {
	st, err := m.tokens.Load(ctx)
	if err != nil {
		return err
	}
	if st.Empty() {
		return nil
	}
	user, err := m.backend.Profile(ctx)
	if err != nil {
		if errors.IsAuth(err) {
			if cerr := m.tokens.Clear(ctx); cerr != nil {
				logger.Warn(ctx, "clear tokens failed", zap.Error(cerr))
			}
			logger.Info(ctx, "stored session rejected, signed out")
			return nil
		}
		return err
	}
	m.setUser(&user)
	return nil
}

// IsAuthenticated requires both a loaded user and a stored access token. A user
// left behind after the tokens were cleared is dropped here.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return false
	}
	if m.tokens.AccessToken() == "" {
		m.user = nil
		return false
	}
	return true
}

// User returns the signed-in user, if any.
func (m *Manager) User() (api.User, bool) {
	if !m.IsAuthenticated() {
		return api.User{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.user, true
}

// Profile re-fetches the user from the backend and replaces the cached copy.
func (m *Manager) Profile(ctx context.Context) (api.User, error) {
	user, err := m.backend.Profile(ctx)
	if err != nil {
		return api.User{}, err
	}
	m.setUser(&user)
	return user, nil
}

// Tokens exposes the underlying token store.
func (m *Manager) Tokens() *state.TokenStore { return m.tokens }

func (m *Manager) setUser(u *api.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u == nil {
		m.user = nil
		return
	}
	cp := *u
	m.user = &cp
}
