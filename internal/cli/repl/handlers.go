package repl

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"ojclient/internal/cli/api"
	"ojclient/internal/cli/command"
	"ojclient/internal/cli/poller"
	"ojclient/internal/cli/prefs"
	"ojclient/internal/cli/stats"
	"ojclient/internal/cli/validate"
	"ojclient/pkg/errors"
)

const dashboardMaxPages = 20

var nowFunc = time.Now

// ========== user ==========

func (s *Session) userLogin(ctx context.Context, params command.Params) error {
	user, err := s.Session.Login(ctx, strings.TrimSpace(params.Get("email")), params.Get("password"))
	if err != nil {
		return err
	}
	s.printLine("logged in as %s", user.DisplayName())
	return nil
}

func (s *Session) userRegister(ctx context.Context, params command.Params) error {
	resp, err := s.Session.Register(ctx, command.BuildRegister(params))
	if err != nil {
		return err
	}
	if s.Session.IsAuthenticated() {
		s.printLine("registered and logged in as %s", resp.User.DisplayName())
		return nil
	}
	s.printLine("registered %s, please login", resp.User.Username)
	return nil
}

func (s *Session) userLogout(ctx context.Context, _ command.Params) error {
	if s.Tracker != nil {
		if task := s.Tracker.Current(); task != nil {
			task.Cancel()
		}
	}
	if err := s.Session.Logout(ctx); err != nil {
		return err
	}
	s.printLine("logged out")
	return nil
}

func (s *Session) userProfile(ctx context.Context, _ command.Params) error {
	user, err := s.Session.Profile(ctx)
	if err != nil {
		return err
	}
	s.Renderer.Profile(user)
	return nil
}

// ========== problem ==========

func (s *Session) problemList(ctx context.Context, params command.Params) error {
	filter, err := command.BuildProblemFilter(params)
	if err != nil {
		return err
	}
	page, err := s.API.ListProblems(ctx, filter)
	if err != nil {
		return err
	}
	s.Renderer.Problems(page)
	return nil
}

func (s *Session) problemShow(ctx context.Context, params command.Params) error {
	id, err := params.Int64("id")
	if err != nil {
		return err
	}
	problem, err := s.API.GetProblem(ctx, id)
	if err != nil {
		return err
	}
	s.Renderer.Problem(problem)
	if draft, err := s.Prefs.Draft(ctx, id); err == nil && draft != "" {
		s.printLine("")
		s.printLine("draft saved (%d chars); submit with: submit create problem_id=%d", len(draft), id)
	}
	return nil
}

func (s *Session) problemCategories(ctx context.Context, _ command.Params) error {
	cats, err := s.API.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		s.printLine("%s", c)
	}
	return nil
}

// ========== submit ==========

func (s *Session) submitCreate(ctx context.Context, params command.Params) error {
	problemID, err := params.Int64("problem_id")
	if err != nil {
		return err
	}
	langName := strings.TrimSpace(params.Get("language"))
	if langName == "" {
		if langName, err = s.Prefs.Get(ctx, prefs.KeyEditorLanguage); err != nil {
			return err
		}
	}
	draft, err := s.Prefs.Draft(ctx, problemID)
	if err != nil {
		return err
	}
	code, err := command.SubmitSource(params, draft)
	if err != nil {
		return err
	}
	if err := validate.Code(code); err != nil {
		return err
	}
	if err := s.Prefs.SaveDraft(ctx, problemID, code); err != nil {
		return err
	}
	lang, err := s.API.LanguageByName(ctx, langName)
	if err != nil {
		return err
	}

	ctx, cancel := s.Interrupts(ctx)
	defer cancel()
	task, err := s.Tracker.Submit(ctx, api.SubmitRequest{Code: code, LanguageID: lang.ID, ProblemID: problemID}, poller.Handlers{
		OnUpdate: s.Renderer.Progress,
	})
	if err != nil {
		return err
	}
	return s.awaitVerdict(ctx, task)
}

func (s *Session) submitStatus(ctx context.Context, params command.Params) error {
	id, err := params.Int64("id")
	if err != nil {
		return err
	}
	sub, err := s.Poller.Poll(ctx, id)
	if err != nil {
		return err
	}
	if params.Get("raw") == "true" {
		return s.printJSON(sub)
	}
	if sub.Status.IsTerminal() {
		s.Renderer.Result(sub)
		return nil
	}
	s.Renderer.Progress(sub)
	return nil
}

func (s *Session) submitWatch(ctx context.Context, params command.Params) error {
	id, err := params.Int64("id")
	if err != nil {
		return err
	}
	ctx, cancel := s.Interrupts(ctx)
	defer cancel()
	task := s.Poller.Watch(ctx, id, poller.Handlers{OnUpdate: s.Renderer.Progress})
	return s.awaitVerdict(ctx, task)
}

// awaitVerdict blocks until task finishes or ctx is interrupted, then renders
// the result once. The poll goroutine shares Out, so an interrupted task is
// drained before anything else is printed.
func (s *Session) awaitVerdict(ctx context.Context, task *poller.Task) error {
	final, err := task.Wait(ctx)
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
		task.Cancel()
		<-task.Done()
		s.printLine("stopped watching submission #%d", task.ID())
		return nil
	}
	if err != nil {
		return err
	}
	s.Renderer.Result(final)
	return nil
}

func (s *Session) submitHistory(ctx context.Context, params command.Params) error {
	page, err := params.IntOr("page", 1)
	if err != nil {
		return err
	}
	history, err := s.API.History(ctx, page)
	if err != nil {
		return err
	}
	s.Renderer.History(history.Items)
	if history.HasNext() {
		s.printLine("more available: submit history page=%d", page+1)
	}
	return nil
}

func (s *Session) submitLanguages(ctx context.Context, _ command.Params) error {
	langs, err := s.API.Languages(ctx)
	if err != nil {
		return err
	}
	s.Renderer.Languages(langs)
	return nil
}

func (s *Session) submitRejudge(ctx context.Context, params command.Params) error {
	id, err := params.Int64("id")
	if err != nil {
		return err
	}
	sub, err := s.API.Rejudge(ctx, id)
	if err != nil {
		return err
	}
	s.Renderer.Progress(sub)
	s.printLine("follow with: submit watch id=%d", id)
	return nil
}

// ========== dashboard ==========

func (s *Session) dashboardShow(ctx context.Context, _ command.Params) error {
	user, ok := s.Session.User()
	if !ok {
		return errors.New(errors.SessionExpired)
	}
	history, err := s.API.AllHistory(ctx, dashboardMaxPages)
	if err != nil {
		return err
	}
	s.Renderer.Dashboard(user, stats.Compute(history, nowFunc()))
	return nil
}

// ========== prefs ==========

func (s *Session) prefsShow(ctx context.Context, _ command.Params) error {
	settings, err := s.Prefs.Settings(ctx)
	if err != nil {
		return err
	}
	s.Renderer.Settings(settings)
	return nil
}

func (s *Session) prefsTheme(ctx context.Context, _ command.Params) error {
	theme, err := s.Prefs.ToggleTheme(ctx)
	if err != nil {
		return err
	}
	s.printLine("theme: %s", theme)
	return nil
}

func (s *Session) prefsSet(ctx context.Context, params command.Params) error {
	key := strings.TrimSpace(params.Get("key"))
	if err := s.Prefs.Set(ctx, key, params.Get("value")); err != nil {
		return err
	}
	s.printLine("%s updated", key)
	return nil
}

// prefsValue binds one preference key to a single-field command.
func (s *Session) prefsValue(key, field string) handlerFunc {
	return func(ctx context.Context, params command.Params) error {
		if err := s.Prefs.Set(ctx, key, strings.TrimSpace(params.Get(field))); err != nil {
			return err
		}
		s.printLine("%s updated", key)
		return nil
	}
}

func (s *Session) prefsDraft(ctx context.Context, params command.Params) error {
	id, err := params.Int64("problem_id")
	if err != nil {
		return err
	}
	if path := params.Get("source_file"); path != "" {
		code, err := command.ReadFile(path)
		if err != nil {
			return err
		}
		if err := s.Prefs.SaveDraft(ctx, id, code); err != nil {
			return err
		}
		s.printLine("draft saved for problem %d", id)
		return nil
	}
	draft, err := s.Prefs.Draft(ctx, id)
	if err != nil {
		return err
	}
	if draft == "" {
		s.printLine("no draft for problem %d", id)
		return nil
	}
	s.printLine("%s", draft)
	return nil
}

func (s *Session) prefsResetDraft(ctx context.Context, params command.Params) error {
	id, err := params.Int64("problem_id")
	if err != nil {
		return err
	}
	if err := s.Prefs.ResetDraft(ctx, id); err != nil {
		return err
	}
	s.printLine("draft cleared for problem %d", id)
	return nil
}
