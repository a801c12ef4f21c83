package command

import (
	"sort"
	"strings"

	"ojclient/internal/cli/api"
	"ojclient/pkg/errors"
)

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service: "user",
			Action:  "login",
			Summary: "sign in and store tokens",
			Fields: []Field{
				{Name: "email", Aliases: []string{"e"}, Prompt: "email", Type: FieldString, Required: true},
				{Name: "password", Aliases: []string{"p"}, Prompt: "password", Type: FieldSecret, Required: true},
			},
		},
		{
			Service: "user",
			Action:  "register",
			Summary: "create an account",
			Fields: []Field{
				{Name: "username", Prompt: "username", Type: FieldString, Required: true},
				{Name: "email", Prompt: "email", Type: FieldString, Required: true},
				{Name: "first_name", Aliases: []string{"first"}, Prompt: "first name", Type: FieldString, Required: true},
				{Name: "last_name", Aliases: []string{"last"}, Prompt: "last name", Type: FieldString, Required: true},
				{Name: "password", Prompt: "password", Type: FieldSecret, Required: true},
				{Name: "password_confirm", Aliases: []string{"confirm"}, Prompt: "confirm password", Type: FieldSecret, Required: true},
				{Name: "preferred_language", Aliases: []string{"language"}, Prompt: "preferred language", Type: FieldString},
			},
		},
		{Service: "user", Action: "logout", Summary: "sign out and forget tokens"},
		{Service: "user", Action: "profile", Summary: "show the signed-in user", RequiresAuth: true},
		{
			Service: "problem",
			Action:  "list",
			Summary: "list problems",
			Fields: []Field{
				{Name: "search", Aliases: []string{"q"}, Type: FieldString},
				{Name: "difficulty", Aliases: []string{"d"}, Type: FieldString},
				{Name: "category", Aliases: []string{"c"}, Type: FieldString},
				{Name: "page", Type: FieldInt},
			},
		},
		{
			Service: "problem",
			Action:  "show",
			Summary: "show a problem statement",
			Fields: []Field{
				{Name: "id", Aliases: []string{"problem_id"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
			},
		},
		{Service: "problem", Action: "categories", Summary: "list problem categories"},
		{
			Service:      "submit",
			Action:       "create",
			Summary:      "submit code and wait for the verdict",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "problem_id", Aliases: []string{"problem", "id"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
				{Name: "language", Aliases: []string{"language_id", "lang"}, Prompt: "language", Type: FieldString},
				{Name: "source_file", Aliases: []string{"file"}, Prompt: "source_file", Type: FieldFile},
			},
		},
		{
			Service:      "submit",
			Action:       "status",
			Summary:      "show one submission",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "id", Aliases: []string{"submission_id"}, Prompt: "submission_id", Type: FieldInt64, Required: true},
			},
		},
		{
			Service:      "submit",
			Action:       "watch",
			Summary:      "follow a submission until its verdict",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "id", Aliases: []string{"submission_id"}, Prompt: "submission_id", Type: FieldInt64, Required: true},
			},
		},
		{
			Service:      "submit",
			Action:       "history",
			Summary:      "list your submissions",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "page", Type: FieldInt},
			},
		},
		{Service: "submit", Action: "languages", Summary: "list supported languages", RequiresAuth: true},
		{
			Service:      "submit",
			Action:       "rejudge",
			Summary:      "queue a submission for judging again",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "id", Aliases: []string{"submission_id"}, Prompt: "submission_id", Type: FieldInt64, Required: true},
			},
		},
		{Service: "dashboard", Action: "show", Summary: "statistics from your history", RequiresAuth: true},
		{Service: "prefs", Action: "show", Summary: "show preferences"},
		{Service: "prefs", Action: "theme", Summary: "toggle light and dark"},
		{
			Service: "prefs",
			Action:  "set",
			Summary: "set a preference",
			Fields: []Field{
				{Name: "key", Prompt: "key", Type: FieldString, Required: true},
				{Name: "value", Prompt: "value", Type: FieldString, Required: true},
			},
		},
		{
			Service: "prefs",
			Action:  "font",
			Summary: "set the editor font size (12-20)",
			Fields:  []Field{{Name: "size", Aliases: []string{"value"}, Prompt: "size", Type: FieldInt, Required: true}},
		},
		{
			Service: "prefs",
			Action:  "tab",
			Summary: "set the editor tab size (2, 4, 6 or 8)",
			Fields:  []Field{{Name: "size", Aliases: []string{"value"}, Prompt: "size", Type: FieldInt, Required: true}},
		},
		{
			Service: "prefs",
			Action:  "language",
			Summary: "set the default submission language",
			Fields:  []Field{{Name: "name", Aliases: []string{"language", "lang"}, Prompt: "language", Type: FieldString, Required: true}},
		},
		{
			Service: "prefs",
			Action:  "draft",
			Summary: "show or save the draft for a problem",
			Fields: []Field{
				{Name: "problem_id", Aliases: []string{"problem", "id"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
				{Name: "source_file", Aliases: []string{"file"}, Type: FieldFile},
			},
		},
		{
			Service: "prefs",
			Action:  "reset-draft",
			Summary: "discard the draft for a problem",
			Fields: []Field{
				{Name: "problem_id", Aliases: []string{"problem", "id"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
			},
		},
	}

	registry := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		registry[cmd.Key()] = cmd
	}
	return registry
}

// Sorted returns commands ordered by key, for help output.
func Sorted(registry map[string]Command) []Command {
	out := make([]Command, 0, len(registry))
	for _, cmd := range registry {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// BuildRegister maps params onto a registration request.
func BuildRegister(params Params) api.RegisterRequest {
	return api.RegisterRequest{
		Username:          strings.TrimSpace(params.Get("username")),
		Email:             strings.TrimSpace(params.Get("email")),
		Password:          params.Get("password"),
		PasswordConfirm:   params.Get("password_confirm"),
		FirstName:         strings.TrimSpace(params.Get("first_name")),
		LastName:          strings.TrimSpace(params.Get("last_name")),
		PreferredLanguage: strings.TrimSpace(params.Get("preferred_language")),
	}
}

// BuildProblemFilter maps params onto a problem list filter.
func BuildProblemFilter(params Params) (api.ProblemFilter, error) {
	page, err := params.IntOr("page", 1)
	if err != nil {
		return api.ProblemFilter{}, err
	}
	f := api.ProblemFilter{
		Search:   strings.TrimSpace(params.Get("search")),
		Category: strings.TrimSpace(params.Get("category")),
		Page:     page,
	}
	if d := strings.ToUpper(strings.TrimSpace(params.Get("difficulty"))); d != "" {
		switch api.Difficulty(d) {
		case api.DifficultyEasy, api.DifficultyMedium, api.DifficultyHard:
			f.Difficulty = api.Difficulty(d)
		default:
			return f, errors.ValidationError("difficulty", "must be one of easy, medium, hard")
		}
	}
	return f, nil
}

// SubmitSource resolves the code to submit: source_file when given, else the
// stored draft.
func SubmitSource(params Params, draft string) (string, error) {
	if path := params.Get("source_file"); path != "" {
		return ReadFile(path)
	}
	if strings.TrimSpace(draft) == "" {
		return "", errors.ValidationError("code", "No saved draft; pass source_file=<path>")
	}
	return draft, nil
}
