package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ojclient/internal/cli/api"
	httpclient "ojclient/internal/cli/http"
	"ojclient/internal/cli/stats"
)

func TestExecutionTime(t *testing.T) {
	assert.Equal(t, "45ms", ExecutionTime(45))
	assert.Equal(t, "999ms", ExecutionTime(999))
	assert.Equal(t, "12.5ms", ExecutionTime(12.5))
	assert.Equal(t, "1.00s", ExecutionTime(1000))
	assert.Equal(t, "1.23s", ExecutionTime(1234))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", DefaultTruncate))
	long := strings.Repeat("a", 101)
	assert.Equal(t, strings.Repeat("a", 100)+"...", Truncate(long, DefaultTruncate))
	assert.Equal(t, strings.Repeat("a", 100), Truncate(strings.Repeat("a", 100), DefaultTruncate))
}

func TestOutputCap(t *testing.T) {
	assert.Equal(t, "ok", Output("ok"))
	capped := Output(strings.Repeat("x", 1001))
	assert.True(t, strings.HasSuffix(capped, "\n... (truncated)"))
	assert.Equal(t, 1000+len("\n... (truncated)"), len(capped))
}

func TestAgo(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 hours ago", Ago(now.Add(-3*time.Hour), now))
	assert.Equal(t, "-", Ago(time.Time{}, now))
}

func TestPaletteDisabledIsPlain(t *testing.T) {
	p := NewPalette(false)
	assert.Equal(t, "Accepted", p.Status(api.StatusAccepted))
	assert.Equal(t, "Wrong Answer", p.Status(api.StatusWrongAnswer))
	assert.Equal(t, "Hard", p.Difficulty(api.DifficultyHard))
}

func TestPaletteEnabledColours(t *testing.T) {
	p := NewPalette(true)
	assert.Contains(t, p.Status(api.StatusAccepted), "\x1b[32m")
	assert.Contains(t, p.Status(api.StatusWrongAnswer), "\x1b[31m")
	assert.Contains(t, p.Status(api.StatusPending), "\x1b[33m")
	assert.Contains(t, p.Difficulty(api.DifficultyEasy), "\x1b[32m")
	assert.Contains(t, p.Difficulty(api.DifficultyMedium), "\x1b[33m")
	assert.Contains(t, p.Difficulty(api.DifficultyHard), "\x1b[31m")
}

func TestResultTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)
	r.Result(api.Submission{
		ID: 42, ProblemTitle: "Two Sum", Status: api.StatusWrongAnswer, Score: 66,
		TestCasesPassed: 2, TotalTestCases: 3, ExecutionTime: 45, MemoryUsed: 8.5,
		TestResults: []api.TestResult{
			{Status: api.StatusAccepted, ExecutionTime: 12},
			{Status: api.StatusWrongAnswer, ExecutionTime: 1500},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "Wrong Answer  submission #42  Two Sum")
	assert.Contains(t, out, "passed 2/3 (67%)")
	assert.Contains(t, out, "1.50s")
	assert.Contains(t, out, "TEST")
}

func TestProblemsEmptyAndPaged(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)
	r.Problems(httpclient.Page[api.Problem]{})
	assert.Contains(t, buf.String(), "no problems found")

	buf.Reset()
	r.Problems(httpclient.Page[api.Problem]{
		Items: []api.Problem{{ID: 1, Title: "Two Sum", Difficulty: api.DifficultyEasy, Category: "Arrays"}},
		Count: 3, Next: "http://x/?page=2",
	})
	assert.Contains(t, buf.String(), "Two Sum")
	assert.Contains(t, buf.String(), "1 of 3 problems")
	assert.Contains(t, buf.String(), "page=<n>")
}

func TestDashboard(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	r.Dashboard(api.User{Username: "demo"}, stats.Dashboard{
		TotalSubmissions: 4, AcceptedSubmissions: 2, AcceptanceRate: 50, CurrentStreak: 2,
		Languages: []stats.LanguageUsage{{Language: "Python", Count: 3}},
		Activity:  []api.Submission{{ProblemTitle: "Two Sum", Status: api.StatusAccepted, SubmittedAt: now.Add(-time.Hour)}},
	})
	out := buf.String()
	assert.Contains(t, out, "Welcome back, demo")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "languages: Python 3")
	assert.Contains(t, out, "1 hour ago")
}
