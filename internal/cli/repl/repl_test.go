package repl_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ojclient/internal/cli/api"
	"ojclient/internal/cli/command"
	"ojclient/internal/cli/config"
	httpclient "ojclient/internal/cli/http"
	"ojclient/internal/cli/metrics"
	"ojclient/internal/cli/poller"
	"ojclient/internal/cli/prefs"
	"ojclient/internal/cli/repl"
	"ojclient/internal/cli/session"
	"ojclient/internal/cli/state"
	"ojclient/internal/cli/store"
	"ojclient/internal/cli/view"
	"ojclient/internal/mockjudge"
	"ojclient/pkg/errors"
)

type scriptedPrompter struct {
	answers []string
	asked   []string
}

func (p *scriptedPrompter) Prompt(label string, secret bool) (string, error) {
	p.asked = append(p.asked, label)
	if len(p.answers) == 0 {
		return "", stderrors.New("no more input")
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

type harness struct {
	srv      *mockjudge.Server
	out      *bytes.Buffer
	sess     *repl.Session
	mgr      *session.Manager
	prompter *scriptedPrompter
	kv       store.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv, base := mockjudge.NewTestServer(t, mockjudge.Options{})
	kv := store.NewMemoryStore()
	tokens := state.NewTokenStore(kv)
	m := metrics.New()
	client := api.New(httpclient.New(httpclient.Options{BaseURL: base, Tokens: tokens, Metrics: m}))
	p := poller.New(client, poller.Options{Interval: time.Millisecond, Metrics: m})
	tracker := poller.NewTracker(client, p)
	t.Cleanup(tracker.Close)

	out := &bytes.Buffer{}
	prompter := &scriptedPrompter{}
	mgr := session.NewManager(client, tokens)
	cfg, err := config.Load("")
	require.NoError(t, err)
	s := repl.New(repl.Deps{
		API:      client,
		Session:  mgr,
		Poller:   p,
		Tracker:  tracker,
		Prefs:    prefs.New(kv),
		Metrics:  m,
		Config:   cfg,
		Renderer: view.New(out, false),
		Out:      out,
		Prompter: prompter,
	}, command.Registry())
	return &harness{srv: srv, out: out, sess: s, mgr: mgr, prompter: prompter, kv: kv}
}

func (h *harness) run(t *testing.T, line string) string {
	t.Helper()
	h.out.Reset()
	require.NoError(t, h.sess.Execute(context.Background(), line))
	return h.out.String()
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	out := h.run(t, "user login email="+mockjudge.DemoEmail+" password="+mockjudge.DemoPassword)
	require.Contains(t, out, "logged in as")
}

func TestGuardBlocksWhenSignedOut(t *testing.T) {
	h := newHarness(t)
	out := h.run(t, "submit history")
	assert.Equal(t, "session expired, please login\n", out)
	assert.Equal(t, 0, h.srv.Hits("GET /api/submissions/history/"))
}

func TestLoginPromptsForMissingFields(t *testing.T) {
	h := newHarness(t)
	h.prompter.answers = []string{mockjudge.DemoPassword}
	out := h.run(t, "user login email="+mockjudge.DemoEmail)
	assert.Contains(t, out, "logged in as")
	assert.Equal(t, []string{"password"}, h.prompter.asked)
	assert.True(t, h.mgr.IsAuthenticated())
}

func TestSubmitCreateRendersVerdictOnce(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	src := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(src, []byte("print('hi')"), 0o600))
	out := h.run(t, "submit create problem_id=1 language=python source_file="+src)

	assert.Contains(t, out, "[Submitting]")
	assert.Contains(t, out, "[Pending] submission #1")
	assert.Contains(t, out, "[Running] submission #1")
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("Accepted  submission #1")))

	draft, _, err := h.kv.Get(context.Background(), prefs.DraftKey(1))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", draft)
}

func TestSubmitCreateUsesDraftAndPreferredLanguage(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	require.NoError(t, h.kv.Set(context.Background(), prefs.DraftKey(2), "print('wrong')"))

	out := h.run(t, "submit create problem_id=2")
	assert.Contains(t, out, "Wrong Answer  submission #1")
}

func TestSubmitCreateValidationMakesNoCall(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	err := h.sess.Execute(context.Background(), "submit create problem_id=1")
	require.Error(t, err)
	assert.Equal(t, 0, h.srv.Hits("POST /api/submissions/submit/"))
}

func TestSubmitCreateBlankFileKeepsDraft(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	require.NoError(t, h.kv.Set(ctx, prefs.DraftKey(1), "print(1)"))
	src := filepath.Join(t.TempDir(), "blank.py")
	require.NoError(t, os.WriteFile(src, []byte("  \n"), 0o600))

	err := h.sess.Execute(ctx, "submit create problem_id=1 source_file="+src)
	assert.True(t, errors.IsValidation(err), "blank code is rejected locally")
	assert.Equal(t, 0, h.srv.Hits("GET /api/submissions/languages/"))
	assert.Equal(t, 0, h.srv.Hits("POST /api/submissions/submit/"))

	draft, _, err := h.kv.Get(ctx, prefs.DraftKey(1))
	require.NoError(t, err)
	assert.Equal(t, "print(1)", draft)
}

func TestSubmitCreateInterrupted(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.srv.Script(1, api.StatusRunning)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	src := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(src, []byte("print(1)"), 0o600))
	h.out.Reset()
	require.NoError(t, h.sess.Execute(ctx, "submit create problem_id=1 source_file="+src))
	out := h.out.String()
	assert.True(t, strings.HasSuffix(out, "stopped watching submission #1\n"), out)

	// Nothing is written once the command has returned.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, out, h.out.String())
}

func TestProblemAndPrefsCommands(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "problem list difficulty=easy")
	assert.Contains(t, out, "Two Sum")
	assert.NotContains(t, out, "Median")

	out = h.run(t, "problem show id=3")
	assert.Contains(t, out, "Median of Two Sorted Arrays")

	out = h.run(t, "prefs theme")
	assert.Equal(t, "theme: dark\n", out)

	out = h.run(t, "prefs set key=editor.fontSize value=18")
	assert.Contains(t, out, "editor.fontSize updated")
	out = h.run(t, "prefs show")
	assert.Contains(t, out, "18")

	err := h.sess.Execute(context.Background(), "prefs set key=editor.tabSize value=3")
	assert.Error(t, err)
}

func TestPrefsShortcuts(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.run(t, "prefs font size=16"), "editor.fontSize updated")
	assert.Contains(t, h.run(t, "prefs tab size=4"), "editor.tabSize updated")
	assert.Contains(t, h.run(t, "prefs language lang=cpp"), "editor.language updated")

	got, err := h.sess.Prefs.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, got.FontSize)
	assert.Equal(t, 4, got.TabSize)
	assert.Equal(t, "cpp", got.EditorLanguage)

	assert.Error(t, h.sess.Execute(context.Background(), "prefs font size=13"))
}

func TestDashboardAndHistory(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	src := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(src, []byte("print(1)"), 0o600))
	h.run(t, "submit create problem_id=1 source_file="+src)

	out := h.run(t, "submit history")
	assert.Contains(t, out, "Two Sum")
	out = h.run(t, "dashboard show")
	assert.Contains(t, out, "Welcome back, Demo User")
	assert.Contains(t, out, "100%")
}

func TestSystemCommands(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.sess.Execute(context.Background(), "exit"), repl.ErrExit)

	out := h.run(t, "show token")
	assert.Equal(t, "token: <empty>\n", out)

	out = h.run(t, "set timeout 3s")
	assert.Equal(t, "timeout set to 3s\n", out)
	out = h.run(t, "show config")
	assert.Contains(t, out, "timeout: 3s")

	h.login(t)
	out = h.run(t, "show metrics")
	assert.Contains(t, out, "ojclient_http_requests_total")

	out = h.run(t, "help")
	assert.Contains(t, out, "submit create")

	err := h.sess.Execute(context.Background(), "bogus cmd")
	assert.Error(t, err)
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	out := h.run(t, "user logout")
	assert.Equal(t, "logged out\n", out)
	out = h.run(t, "user profile")
	assert.Equal(t, "session expired, please login\n", out)
}
