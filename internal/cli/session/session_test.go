package session_test

import (
	"context"
	"testing"

	"ojclient/internal/cli/api"
	httpclient "ojclient/internal/cli/http"
	"ojclient/internal/cli/session"
	"ojclient/internal/cli/state"
	"ojclient/internal/cli/store"
	"ojclient/internal/mockjudge"
	"ojclient/internal/testutil"
	"ojclient/pkg/errors"
)

type fixture struct {
	srv    *mockjudge.Server
	base   string
	kv     store.Store
	tokens *state.TokenStore
	mgr    *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv, base := mockjudge.NewTestServer(t, mockjudge.Options{})
	kv := store.NewMemoryStore()
	tokens := state.NewTokenStore(kv)
	client := api.New(httpclient.New(httpclient.Options{BaseURL: base, Tokens: tokens}))
	return &fixture{srv: srv, base: base, kv: kv, tokens: tokens, mgr: session.NewManager(client, tokens)}
}

func persisted(t *testing.T, kv store.Store, key string) string {
	t.Helper()
	v, _, err := kv.Get(context.Background(), key)
	testutil.AssertNoError(t, err)
	return v
}

func TestLoginPersistsBothTokens(t *testing.T) {
	f := newFixture(t)
	user, err := f.mgr.Login(context.Background(), mockjudge.DemoEmail, mockjudge.DemoPassword)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, user.Email, mockjudge.DemoEmail)
	testutil.AssertTrue(t, f.mgr.IsAuthenticated(), "login should authenticate")
	testutil.AssertTrue(t, persisted(t, f.kv, state.AccessTokenKey) != "", "access token persisted")
	testutil.AssertTrue(t, persisted(t, f.kv, state.RefreshTokenKey) != "", "refresh token persisted")
}

func TestLoginFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.Login(context.Background(), mockjudge.DemoEmail, "Nope12345")
	testutil.AssertTrue(t, errors.Is(err, errors.InvalidCredentials), "expected invalid credentials")
	testutil.AssertEqual(t, err.Error(), "Invalid credentials")
	testutil.AssertFalse(t, f.mgr.IsAuthenticated(), "failed login must not authenticate")
	testutil.AssertEqual(t, persisted(t, f.kv, state.AccessTokenKey), "")
	testutil.AssertEqual(t, persisted(t, f.kv, state.RefreshTokenKey), "")
}

func TestLoginValidatesLocally(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.Login(context.Background(), "not-an-email", "")
	testutil.AssertTrue(t, errors.IsValidation(err), "expected validation error")
	testutil.AssertEqual(t, f.srv.Hits("POST /api/auth/login/"), 0)
}

func TestRegisterSignsInWithReturnedTokens(t *testing.T) {
	f := newFixture(t)
	resp, err := f.mgr.Register(context.Background(), api.RegisterRequest{
		Username: "grace", Email: "grace@example.com", Password: "Hopper123", PasswordConfirm: "Hopper123",
		FirstName: "Grace", LastName: "Hopper",
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, resp.User.Username, "grace")
	testutil.AssertTrue(t, f.mgr.IsAuthenticated(), "tokens in the response sign the user in")
}

func TestRegisterRejectsLocally(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.Register(context.Background(), api.RegisterRequest{
		Username: "g", Email: "grace@example.com", Password: "weak", PasswordConfirm: "other",
	})
	testutil.AssertTrue(t, errors.IsValidation(err), "expected validation error")
	fields := errors.FieldErrors(err)
	testutil.AssertTrue(t, fields["username"] != "", "username reason")
	testutil.AssertTrue(t, fields["password"] != "", "password reason")
	testutil.AssertEqual(t, f.srv.Hits("POST /api/auth/register/"), 0)
}

func TestRestoreWithValidTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.mgr.Login(ctx, mockjudge.DemoEmail, mockjudge.DemoPassword)
	testutil.AssertNoError(t, err)

	// A fresh process sharing the same persisted state.
	tokens := state.NewTokenStore(f.kv)
	client := api.New(httpclient.New(httpclient.Options{BaseURL: f.base, Tokens: tokens}))
	mgr := session.NewManager(client, tokens)
	testutil.AssertNoError(t, mgr.Restore(ctx))
	user, ok := mgr.User()
	testutil.AssertTrue(t, ok, "restored session should be authenticated")
	testutil.AssertEqual(t, user.Username, "demo")
}

func TestRestoreWithRejectedTokensClears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.AssertNoError(t, f.tokens.Save(ctx, "stale-access", "stale-refresh"))

	testutil.AssertNoError(t, f.mgr.Restore(ctx))
	testutil.AssertFalse(t, f.mgr.IsAuthenticated(), "rejected session must stay signed out")
	testutil.AssertEqual(t, persisted(t, f.kv, state.AccessTokenKey), "")
	testutil.AssertEqual(t, persisted(t, f.kv, state.RefreshTokenKey), "")
}

func TestIsAuthenticatedDropsUserWhenTokensCleared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.mgr.Login(ctx, mockjudge.DemoEmail, mockjudge.DemoPassword)
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, f.tokens.Clear(ctx))
	testutil.AssertFalse(t, f.mgr.IsAuthenticated(), "cleared tokens end the session")
	_, ok := f.mgr.User()
	testutil.AssertFalse(t, ok, "user should be dropped")
}

func TestLogoutBlacklistsRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.mgr.Login(ctx, mockjudge.DemoEmail, mockjudge.DemoPassword)
	testutil.AssertNoError(t, err)
	refresh := f.tokens.RefreshToken()

	testutil.AssertNoError(t, f.mgr.Logout(ctx))
	testutil.AssertFalse(t, f.mgr.IsAuthenticated(), "logout ends the session")
	testutil.AssertEqual(t, f.srv.Hits("POST /api/auth/logout/"), 1)
	testutil.AssertEqual(t, f.srv.Refreshes(), 0)

	// The blacklisted refresh token can no longer mint access tokens.
	testutil.AssertNoError(t, f.tokens.Save(ctx, "stale", refresh))
	f.srv.InvalidateAccessTokens()
	testutil.AssertNoError(t, f.mgr.Restore(ctx))
	testutil.AssertFalse(t, f.mgr.IsAuthenticated(), "blacklisted refresh must not restore")
}

type failingBackend struct {
	session.Backend
	logoutCalls  int
	logoutAccess string
}

func (b *failingBackend) Logout(_ context.Context, access, _ string) error {
	b.logoutCalls++
	b.logoutAccess = access
	return errors.New(errors.ServiceUnavailable)
}

func TestLogoutSucceedsLocallyWhenBackendFails(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	tokens := state.NewTokenStore(kv)
	testutil.AssertNoError(t, tokens.Save(ctx, "a", "r"))
	backend := &failingBackend{}
	mgr := session.NewManager(backend, tokens)

	testutil.AssertNoError(t, mgr.Logout(ctx))
	testutil.AssertEqual(t, backend.logoutCalls, 1)
	testutil.AssertEqual(t, backend.logoutAccess, "a")
	testutil.AssertEqual(t, tokens.AccessToken(), "")
	testutil.AssertEqual(t, persisted(t, kv, state.RefreshTokenKey), "")
}
