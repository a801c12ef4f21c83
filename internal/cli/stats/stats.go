// Package stats derives the dashboard figures from a user's submission history.
package stats

import (
	"math"
	"sort"
	"strconv"
	"time"

	"ojclient/internal/cli/api"
)

const (
	recentWindow   = 30 * 24 * time.Hour
	topLanguages   = 5
	recentActivity = 5
)

type LanguageUsage struct {
	Language string
	Count    int
}

type Dashboard struct {
	TotalSubmissions    int
	AcceptedSubmissions int
	ProblemsAttempted   int
	ProblemsSolved      int
	// AcceptanceRate is accepted/total as a rounded percentage.
	AcceptanceRate    int
	RecentSubmissions int
	CurrentStreak     int
	LongestStreak     int
	Languages         []LanguageUsage
	Activity          []api.Submission
}

// Compute summarises history as of now. Day boundaries follow now's location.
func Compute(history []api.Submission, now time.Time) Dashboard {
	var d Dashboard
	attempted := map[string]bool{}
	solved := map[string]bool{}
	langs := map[string]int{}
	solvedDays := map[time.Time]bool{}
	cutoff := now.Add(-recentWindow)

	for _, s := range history {
		d.TotalSubmissions++
		attempted[problemKey(s)] = true
		if s.LanguageName != "" {
			langs[s.LanguageName]++
		}
		if !s.SubmittedAt.Before(cutoff) {
			d.RecentSubmissions++
		}
		if s.Status == api.StatusAccepted {
			d.AcceptedSubmissions++
			solved[problemKey(s)] = true
			solvedDays[day(s.SubmittedAt, now.Location())] = true
		}
	}
	d.ProblemsAttempted = len(attempted)
	d.ProblemsSolved = len(solved)
	if d.TotalSubmissions > 0 {
		d.AcceptanceRate = int(math.Round(float64(d.AcceptedSubmissions) / float64(d.TotalSubmissions) * 100))
	}
	d.CurrentStreak, d.LongestStreak = streaks(solvedDays, day(now, now.Location()))
	d.Languages = languageUsage(langs)
	d.Activity = latest(history, recentActivity)
	return d
}

// problemKey prefers the problem id and falls back to the title, which is all
// some history entries carry.
func problemKey(s api.Submission) string {
	if s.Problem != 0 {
		return strconv.FormatInt(s.Problem, 10)
	}
	return "title:" + s.ProblemTitle
}

func day(t time.Time, loc *time.Location) time.Time {
	y, m, dd := t.In(loc).Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, loc)
}

// streaks counts consecutive days with an accepted submission. The current
// streak survives until the end of the day after the last accepted one.
func streaks(days map[time.Time]bool, today time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}
	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	if today.Sub(sorted[0]) <= 24*time.Hour {
		current = 1
		for i := 1; i < len(sorted) && consecutive(sorted[i], sorted[i-1]); i++ {
			current++
		}
	}

	run := 1
	longest = 1
	for i := 1; i < len(sorted); i++ {
		if consecutive(sorted[i], sorted[i-1]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return current, longest
}

func consecutive(earlier, later time.Time) bool {
	return earlier.AddDate(0, 0, 1).Equal(later)
}

func languageUsage(counts map[string]int) []LanguageUsage {
	out := make([]LanguageUsage, 0, len(counts))
	for name, n := range counts {
		out = append(out, LanguageUsage{Language: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Language < out[j].Language
	})
	if len(out) > topLanguages {
		out = out[:topLanguages]
	}
	return out
}

func latest(history []api.Submission, n int) []api.Submission {
	out := append([]api.Submission(nil), history...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
