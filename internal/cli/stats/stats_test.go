package stats

import (
	"testing"
	"time"

	"ojclient/internal/cli/api"
	"ojclient/internal/testutil"
)

func sub(problem int64, lang string, status api.Status, at time.Time) api.Submission {
	return api.Submission{Problem: problem, LanguageName: lang, Status: status, SubmittedAt: at}
}

func TestComputeEmpty(t *testing.T) {
	d := Compute(nil, time.Now())
	testutil.AssertEqual(t, d.TotalSubmissions, 0)
	testutil.AssertEqual(t, d.AcceptanceRate, 0)
	testutil.AssertEqual(t, d.CurrentStreak, 0)
	testutil.AssertEqual(t, len(d.Languages), 0)
}

func TestCompute(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	history := []api.Submission{
		sub(1, "Python", api.StatusAccepted, now.Add(-1*time.Hour)),
		sub(1, "Python", api.StatusWrongAnswer, now.Add(-2*time.Hour)),
		sub(2, "C++", api.StatusAccepted, now.AddDate(0, 0, -1)),
		sub(3, "Java", api.StatusAccepted, now.AddDate(0, 0, -2)),
		sub(3, "Java", api.StatusRuntimeError, now.AddDate(0, 0, -40)),
		sub(4, "Python", api.StatusTimeLimitExceeded, now.AddDate(0, 0, -41)),
	}
	d := Compute(history, now)

	testutil.AssertEqual(t, d.TotalSubmissions, 6)
	testutil.AssertEqual(t, d.AcceptedSubmissions, 3)
	testutil.AssertEqual(t, d.ProblemsAttempted, 4)
	testutil.AssertEqual(t, d.ProblemsSolved, 3)
	testutil.AssertEqual(t, d.AcceptanceRate, 50)
	testutil.AssertEqual(t, d.RecentSubmissions, 4)
	testutil.AssertEqual(t, d.CurrentStreak, 3)
	testutil.AssertEqual(t, d.LongestStreak, 3)
	testutil.AssertEqual(t, d.Languages[0], LanguageUsage{Language: "Python", Count: 3})
	testutil.AssertEqual(t, d.Languages[1], LanguageUsage{Language: "Java", Count: 2})
	testutil.AssertEqual(t, len(d.Activity), 5)
	testutil.AssertEqual(t, d.Activity[0].Status, api.StatusAccepted)
	testutil.AssertTrue(t, d.Activity[0].SubmittedAt.Equal(now.Add(-1*time.Hour)), "latest first")
}

func TestStreakBrokenByGap(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	history := []api.Submission{
		sub(1, "Go", api.StatusAccepted, now.AddDate(0, 0, -3)),
		sub(2, "Go", api.StatusAccepted, now.AddDate(0, 0, -4)),
		sub(3, "Go", api.StatusAccepted, now.AddDate(0, 0, -5)),
	}
	d := Compute(history, now)
	testutil.AssertEqual(t, d.CurrentStreak, 0)
	testutil.AssertEqual(t, d.LongestStreak, 3)

	// Yesterday still counts toward the current streak.
	history = append(history, sub(4, "Go", api.StatusAccepted, now.AddDate(0, 0, -1)))
	d = Compute(history, now)
	testutil.AssertEqual(t, d.CurrentStreak, 1)
}

func TestLanguagesCappedAtFive(t *testing.T) {
	now := time.Now()
	var history []api.Submission
	for i, lang := range []string{"A", "B", "C", "D", "E", "F", "F"} {
		history = append(history, sub(int64(i+1), lang, api.StatusWrongAnswer, now))
	}
	d := Compute(history, now)
	testutil.AssertEqual(t, len(d.Languages), 5)
	testutil.AssertEqual(t, d.Languages[0].Language, "F")
}

func TestProblemsKeyedByTitleWhenIDMissing(t *testing.T) {
	now := time.Now()
	history := []api.Submission{
		{ProblemTitle: "Two Sum", Status: api.StatusAccepted, SubmittedAt: now},
		{ProblemTitle: "Two Sum", Status: api.StatusWrongAnswer, SubmittedAt: now},
		{ProblemTitle: "Median", Status: api.StatusWrongAnswer, SubmittedAt: now},
	}
	d := Compute(history, now)
	testutil.AssertEqual(t, d.ProblemsAttempted, 2)
	testutil.AssertEqual(t, d.ProblemsSolved, 1)
}
