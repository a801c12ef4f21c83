package repl

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"ojclient/internal/cli/api"
	"ojclient/internal/cli/command"
	"ojclient/internal/cli/config"
	"ojclient/internal/cli/metrics"
	"ojclient/internal/cli/poller"
	"ojclient/internal/cli/prefs"
	"ojclient/internal/cli/session"
	"ojclient/internal/cli/view"
	"ojclient/pkg/errors"
	"ojclient/pkg/utils/contextkey"
	"ojclient/pkg/utils/logger"
)

const prompt = "oj> "

// ErrExit is returned by Execute for exit and quit.
var ErrExit = stderrors.New("exit")

// Deps are the services a REPL session drives.
type Deps struct {
	API      *api.Client
	Session  *session.Manager
	Poller   *poller.Poller
	Tracker  *poller.Tracker
	Prefs    *prefs.Prefs
	Metrics  *metrics.Metrics
	Config   config.Config
	Renderer *view.Renderer
	Out      io.Writer
	Prompter Prompter
	// Interrupts wraps a blocking command's context so Ctrl-C cancels it.
	Interrupts func(context.Context) (context.Context, context.CancelFunc)
}

type handlerFunc func(ctx context.Context, params command.Params) error

// Session holds REPL state.
type Session struct {
	Deps
	commands map[string]command.Command
	handlers map[string]handlerFunc
}

func New(deps Deps, commands map[string]command.Command) *Session {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Renderer == nil {
		deps.Renderer = view.New(deps.Out, false)
	}
	if deps.Interrupts == nil {
		deps.Interrupts = func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithCancel(ctx)
		}
	}
	s := &Session{Deps: deps, commands: commands}
	s.handlers = map[string]handlerFunc{
		"user login":         s.userLogin,
		"user register":      s.userRegister,
		"user logout":        s.userLogout,
		"user profile":       s.userProfile,
		"problem list":       s.problemList,
		"problem show":       s.problemShow,
		"problem categories": s.problemCategories,
		"submit create":      s.submitCreate,
		"submit status":      s.submitStatus,
		"submit watch":       s.submitWatch,
		"submit history":     s.submitHistory,
		"submit languages":   s.submitLanguages,
		"submit rejudge":     s.submitRejudge,
		"dashboard show":     s.dashboardShow,
		"prefs show":         s.prefsShow,
		"prefs theme":        s.prefsTheme,
		"prefs set":          s.prefsSet,
		"prefs font":         s.prefsValue(prefs.KeyFontSize, "size"),
		"prefs tab":          s.prefsValue(prefs.KeyTabSize, "size"),
		"prefs language":     s.prefsValue(prefs.KeyEditorLanguage, "name"),
		"prefs draft":        s.prefsDraft,
		"prefs reset-draft":  s.prefsResetDraft,
	}
	return s
}

// Run reads lines until exit or EOF. historyFile may be empty.
func (s *Session) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer func() { _ = rl.Close() }()
	if s.Prompter == nil {
		s.Prompter = &readlinePrompter{rl: rl, prompt: prompt}
	}

	for {
		line, err := rl.Readline()
		if stderrors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			s.printLine("bye")
			return nil
		}
		if err := s.Execute(ctx, line); err != nil {
			if stderrors.Is(err, ErrExit) {
				s.printLine("bye")
				return nil
			}
			s.printError(err)
		}
	}
}

// Execute runs one input line.
func (s *Session) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if handled, err := s.handleSystemCommand(line); handled {
		return err
	}
	return s.handleCommand(ctx, line)
}

func (s *Session) handleSystemCommand(line string) (bool, error) {
	switch line {
	case "exit", "quit":
		return true, ErrExit
	case "help":
		s.printHelp()
		return true, nil
	}
	if strings.HasPrefix(line, "set ") {
		s.handleSet(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
		return true, nil
	}
	if strings.HasPrefix(line, "show ") {
		return true, s.handleShow(strings.TrimSpace(strings.TrimPrefix(line, "show ")))
	}
	return false, nil
}

func (s *Session) handleSet(args string) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		s.printLine("usage: set base|timeout")
		return
	}
	switch parts[0] {
	case "base":
		if len(parts) < 2 {
			s.printLine("usage: set base http://127.0.0.1:8000/api")
			return
		}
		s.API.HTTP().SetBaseURL(parts[1])
		s.API.InvalidateCaches()
		s.printLine("base set to %s", parts[1])
	case "timeout":
		if len(parts) < 2 {
			s.printLine("usage: set timeout 10s")
			return
		}
		dur, err := time.ParseDuration(parts[1])
		if err != nil || dur <= 0 {
			s.printLine("invalid duration: %s", parts[1])
			return
		}
		s.API.HTTP().SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
	default:
		s.printLine("unknown set command")
	}
}

func (s *Session) handleShow(args string) error {
	switch args {
	case "token":
		token := s.Session.Tokens().AccessToken()
		if token == "" {
			s.printLine("token: <empty>")
			return nil
		}
		if len(token) > 12 {
			token = token[:6] + "..." + token[len(token)-4:]
		}
		s.printLine("token: %s", token)
		if exp := s.Session.Tokens().Snapshot().AccessExpiresAt; !exp.IsZero() {
			s.printLine("expires: %s", view.DateTime(exp))
		}
	case "config":
		cfg := s.Config
		cfg.BaseURL = s.API.HTTP().BaseURL()
		cfg.Timeout = s.API.HTTP().Timeout()
		cfg.Store.RedisPassword = ""
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, _ = s.Out.Write(data)
	case "metrics":
		if s.Metrics == nil {
			s.printLine("metrics disabled")
			return nil
		}
		dump, err := s.Metrics.Dump()
		if err != nil {
			return err
		}
		_, _ = io.WriteString(s.Out, dump)
	default:
		s.printLine("usage: show token|config|metrics")
	}
	return nil
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return errors.Newf(errors.InvalidParams, "parse command failed: %v", err)
	}
	if len(tokens) < 2 {
		return errors.New(errors.InvalidParams).WithMessage("invalid command, use: <service> <action> key=value ...")
	}
	key := tokens[0] + " " + tokens[1]
	cmd, ok := s.commands[key]
	if !ok {
		return errors.Newf(errors.InvalidParams, "unknown command: %s", key)
	}
	handler, ok := s.handlers[key]
	if !ok {
		return errors.Newf(errors.InvalidParams, "command not implemented: %s", key)
	}
	if cmd.RequiresAuth && !s.Session.IsAuthenticated() {
		s.printLine("session expired, please login")
		return nil
	}

	params, err := command.ParseArgs(tokens[2:])
	if err != nil {
		return err
	}
	params.Canonicalize(cmd.Fields)
	if err := s.promptMissing(cmd, params); err != nil {
		return err
	}

	ctx = context.WithValue(ctx, contextkey.Command, key)
	logger.Debug(ctx, "run command", zap.Strings("params", paramNames(params)))
	return handler(ctx, params)
}

func (s *Session) promptMissing(cmd command.Command, params command.Params) error {
	missing := command.Missing(cmd, params)
	if len(missing) == 0 {
		return nil
	}
	if s.Prompter == nil {
		return errors.ValidationError(missing[0].Name, "This field is required.")
	}
	for _, field := range missing {
		label := field.Prompt
		if label == "" {
			label = field.Name
		}
		value, err := s.Prompter.Prompt(label, field.Type == command.FieldSecret)
		if err != nil {
			return errors.Wrapf(err, errors.RequestCanceled, "read input failed: %v", err)
		}
		params.Set(field.Name, value)
	}
	return nil
}

// printError renders local validation failures and backend rejections as
// "field: reason" lines and anything else as a single error line.
func (s *Session) printError(err error) {
	if errors.IsValidation(err) || errors.IsRejected(err) {
		fields := errors.FieldErrors(err)
		if len(fields) > 0 {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				s.printLine("%s: %s", k, fields[k])
			}
			return
		}
	}
	s.printLine("%s", s.Renderer.Palette().Error("error: "+err.Error()))
}

func (s *Session) printHelp() {
	s.printLine("usage: <service> <action> key=value ...")
	s.printLine("system: help | exit | set base|timeout | show token|config|metrics")
	for _, cmd := range command.Sorted(s.commands) {
		marker := " "
		if cmd.RequiresAuth {
			marker = "*"
		}
		s.printLine(" %s %-50s %s", marker, cmd.Usage(), cmd.Summary)
	}
	s.printLine("(* requires login)")
}

func (s *Session) printJSON(v interface{}) error {
	var (
		data []byte
		err  error
	)
	if s.Config.PrettyJSON != nil && *s.Config.PrettyJSON {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	s.printLine("%s", data)
	return nil
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.Out, format+"\n", args...)
}

func (s *Session) completer() readline.AutoCompleter {
	services := map[string][]readline.PrefixCompleterInterface{}
	for _, cmd := range command.Sorted(s.commands) {
		services[cmd.Service] = append(services[cmd.Service], readline.PcItem(cmd.Action))
	}
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"), readline.PcItem("exit"),
		readline.PcItem("set", readline.PcItem("base"), readline.PcItem("timeout")),
		readline.PcItem("show", readline.PcItem("token"), readline.PcItem("config"), readline.PcItem("metrics")),
	}
	for _, name := range names {
		items = append(items, readline.PcItem(name, services[name]...))
	}
	return readline.NewPrefixCompleter(items...)
}

func paramNames(params command.Params) []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
