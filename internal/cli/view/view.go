// Package view renders judge data for the terminal.
package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"ojclient/internal/cli/api"
	httpclient "ojclient/internal/cli/http"
	"ojclient/internal/cli/prefs"
	"ojclient/internal/cli/stats"
)

// Renderer writes formatted output to w.
type Renderer struct {
	w   io.Writer
	p   Palette
	now func() time.Time
}

func New(w io.Writer, colorEnabled bool) *Renderer {
	return &Renderer{w: w, p: NewPalette(colorEnabled), now: time.Now}
}

func (r *Renderer) Palette() Palette { return r.p }

func (r *Renderer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
}

func (r *Renderer) line(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *Renderer) Problems(page httpclient.Page[api.Problem]) {
	if len(page.Items) == 0 {
		r.line("no problems found")
		return
	}
	tw := r.table()
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tCATEGORY")
	for _, p := range page.Items {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, Truncate(p.Title, 48), r.p.Difficulty(p.Difficulty), p.Category)
	}
	_ = tw.Flush()
	r.line("%d of %d problems", len(page.Items), page.Count)
	if page.HasNext() {
		r.line("more available: add page=<n>")
	}
}

func (r *Renderer) Problem(p api.Problem) {
	r.line("%s  %s  %s", r.p.Bold(fmt.Sprintf("#%d %s", p.ID, p.Title)), r.p.Difficulty(p.Difficulty), p.Category)
	if p.TimeLimit > 0 || p.MemoryLimit > 0 {
		r.line("limits: %s, %d MB", ExecutionTime(float64(p.TimeLimit)), p.MemoryLimit)
	}
	if len(p.Tags) > 0 {
		r.line("tags: %s", strings.Join(p.Tags, ", "))
	}
	if p.Description != "" {
		r.line("")
		r.line("%s", strings.TrimSpace(p.Description))
	}
	if p.Constraints != "" {
		r.line("")
		r.line("%s", r.p.Bold("Constraints"))
		r.line("%s", strings.TrimSpace(p.Constraints))
	}
	for i, tc := range p.SampleTestCases {
		r.line("")
		r.line("%s", r.p.Bold(fmt.Sprintf("Example %d", i+1)))
		r.line("input:    %s", tc.Input)
		r.line("expected: %s", tc.ExpectedOutput)
		if tc.Explanation != "" {
			r.line("why:      %s", tc.Explanation)
		}
	}
	if p.Hints != "" {
		r.line("")
		r.line("hint: %s", p.Hints)
	}
}

// Progress prints one line per snapshot while a submission is judged.
func (r *Renderer) Progress(s api.Submission) {
	if s.ID == 0 {
		r.line("[%s]", r.p.Status(s.Status))
		return
	}
	r.line("[%s] submission #%d", r.p.Status(s.Status), s.ID)
}

func (r *Renderer) Result(s api.Submission) {
	r.line("%s  submission #%d  %s", r.p.Status(s.Status), s.ID, s.ProblemTitle)
	r.line("passed %d/%d (%s)  score %s  time %s  memory %s",
		s.TestCasesPassed, s.TotalTestCases, Percent(s.SuccessRate()),
		fmt.Sprint(s.Score), ExecutionTime(s.ExecutionTime), Memory(s.MemoryUsed))
	if s.ErrorMessage != "" {
		r.line("%s", r.p.Error(Output(s.ErrorMessage)))
	}
	if s.Output != "" {
		r.line("output:")
		r.line("%s", Output(s.Output))
	}
	if len(s.TestResults) == 0 {
		return
	}
	tw := r.table()
	_, _ = fmt.Fprintln(tw, "TEST\tSTATUS\tTIME\tMEMORY")
	for i, tr := range s.TestResults {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.p.Status(tr.Status), ExecutionTime(tr.ExecutionTime), Memory(tr.MemoryUsed))
	}
	_ = tw.Flush()
}

func (r *Renderer) History(subs []api.Submission) {
	if len(subs) == 0 {
		r.line("no submissions yet")
		return
	}
	now := r.now()
	tw := r.table()
	_, _ = fmt.Fprintln(tw, "ID\tPROBLEM\tLANGUAGE\tSTATUS\tTIME\tSUBMITTED")
	for _, s := range subs {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, Truncate(s.ProblemTitle, 40), s.LanguageName, r.p.Status(s.Status),
			ExecutionTime(s.ExecutionTime), Ago(s.SubmittedAt, now))
	}
	_ = tw.Flush()
}

func (r *Renderer) Languages(langs []api.Language) {
	tw := r.table()
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tVERSION")
	for _, l := range langs {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", l.ID, l.Name, l.Version)
	}
	_ = tw.Flush()
}

func (r *Renderer) Dashboard(u api.User, d stats.Dashboard) {
	r.line("%s", r.p.Bold("Welcome back, "+u.DisplayName()))
	tw := r.table()
	_, _ = fmt.Fprintf(tw, "submissions\t%d\taccepted\t%d\n", d.TotalSubmissions, d.AcceptedSubmissions)
	_, _ = fmt.Fprintf(tw, "attempted\t%d\tsolved\t%d\n", d.ProblemsAttempted, d.ProblemsSolved)
	_, _ = fmt.Fprintf(tw, "acceptance\t%s\tlast 30 days\t%d\n", Percent(d.AcceptanceRate), d.RecentSubmissions)
	_, _ = fmt.Fprintf(tw, "streak\t%d days\tlongest\t%d days\n", d.CurrentStreak, d.LongestStreak)
	_ = tw.Flush()

	if len(d.Languages) > 0 {
		parts := make([]string, 0, len(d.Languages))
		for _, l := range d.Languages {
			parts = append(parts, fmt.Sprintf("%s %d", l.Language, l.Count))
		}
		r.line("languages: %s", strings.Join(parts, ", "))
	}
	if len(d.Activity) > 0 {
		r.line("")
		r.line("%s", r.p.Bold("Recent activity"))
		now := r.now()
		for _, s := range d.Activity {
			r.line("  %s  %s  %s", r.p.Status(s.Status), Truncate(s.ProblemTitle, 40), Ago(s.SubmittedAt, now))
		}
	}
}

func (r *Renderer) Profile(u api.User) {
	tw := r.table()
	_, _ = fmt.Fprintf(tw, "username\t%s\n", u.Username)
	_, _ = fmt.Fprintf(tw, "name\t%s\n", u.DisplayName())
	_, _ = fmt.Fprintf(tw, "email\t%s\n", u.Email)
	if u.PreferredLanguage != "" {
		_, _ = fmt.Fprintf(tw, "language\t%s\n", u.PreferredLanguage)
	}
	_, _ = fmt.Fprintf(tw, "joined\t%s\n", DateTime(u.DateJoined))
	_ = tw.Flush()
}

func (r *Renderer) Settings(s prefs.Settings) {
	tw := r.table()
	_, _ = fmt.Fprintf(tw, "%s\t%s\n", prefs.KeyTheme, s.Theme)
	_, _ = fmt.Fprintf(tw, "%s\t%s\n", prefs.KeyEditorLanguage, s.EditorLanguage)
	_, _ = fmt.Fprintf(tw, "%s\t%s\n", prefs.KeyEditorTheme, s.EditorTheme)
	_, _ = fmt.Fprintf(tw, "%s\t%d\n", prefs.KeyFontSize, s.FontSize)
	_, _ = fmt.Fprintf(tw, "%s\t%d\n", prefs.KeyTabSize, s.TabSize)
	_ = tw.Flush()
}
