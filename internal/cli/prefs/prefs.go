// Package prefs stores UI and editor settings, and per-problem code drafts, in
// the local state store.
package prefs

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"ojclient/internal/cli/store"
	"ojclient/pkg/errors"
)

const (
	KeyTheme          = "ui.theme"
	KeyEditorLanguage = "editor.language"
	KeyEditorTheme    = "editor.theme"
	KeyFontSize       = "editor.fontSize"
	KeyTabSize        = "editor.tabSize"
	draftPrefix       = "editor.draft."
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var (
	FontSizes    = []int{12, 14, 16, 18, 20}
	TabSizes     = []int{2, 4, 6, 8}
	EditorThemes = []string{"vs-dark", "vs-light", "hc-black"}
)

var defaults = map[string]string{
	KeyTheme:          ThemeLight,
	KeyEditorLanguage: "python",
	KeyEditorTheme:    "vs-dark",
	KeyFontSize:       "14",
	KeyTabSize:        "2",
}

// Settings is a snapshot of every non-draft preference.
type Settings struct {
	Theme          string
	EditorLanguage string
	EditorTheme    string
	FontSize       int
	TabSize        int
}

type Prefs struct {
	kv store.Store
}

func New(kv store.Store) *Prefs {
	return &Prefs{kv: kv}
}

// Keys lists the settable keys in display order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the stored value for key or its default.
func (p *Prefs) Get(ctx context.Context, key string) (string, error) {
	def, ok := defaults[key]
	if !ok {
		return "", errors.Newf(errors.PreferenceInvalid, "unknown preference %q", key)
	}
	v, found, err := p.kv.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !found || v == "" {
		return def, nil
	}
	return v, nil
}

// Set validates value against key's allowed range before storing it.
func (p *Prefs) Set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	if err := check(key, value); err != nil {
		return err
	}
	return p.kv.Set(ctx, key, value)
}

func (p *Prefs) Settings(ctx context.Context) (Settings, error) {
	var s Settings
	var err error
	get := func(key string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = p.Get(ctx, key)
		return v
	}
	s.Theme = get(KeyTheme)
	s.EditorLanguage = get(KeyEditorLanguage)
	s.EditorTheme = get(KeyEditorTheme)
	s.FontSize, _ = strconv.Atoi(get(KeyFontSize))
	s.TabSize, _ = strconv.Atoi(get(KeyTabSize))
	return s, err
}

// ToggleTheme flips light and dark and returns the new theme.
func (p *Prefs) ToggleTheme(ctx context.Context) (string, error) {
	cur, err := p.Get(ctx, KeyTheme)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	return next, p.kv.Set(ctx, KeyTheme, next)
}

// Draft returns the saved code for a problem, empty when none.
func (p *Prefs) Draft(ctx context.Context, problemID int64) (string, error) {
	v, _, err := p.kv.Get(ctx, DraftKey(problemID))
	return v, err
}

func (p *Prefs) SaveDraft(ctx context.Context, problemID int64, code string) error {
	if problemID <= 0 {
		return errors.ValidationError("problem", "Select a problem")
	}
	return p.kv.Set(ctx, DraftKey(problemID), code)
}

// ResetDraft discards the saved code for a problem.
func (p *Prefs) ResetDraft(ctx context.Context, problemID int64) error {
	return p.kv.Delete(ctx, DraftKey(problemID))
}

func DraftKey(problemID int64) string {
	return draftPrefix + strconv.FormatInt(problemID, 10)
}

func check(key, value string) error {
	switch key {
	case KeyTheme:
		if value != ThemeLight && value != ThemeDark {
			return invalid(key, value, "light, dark")
		}
	case KeyEditorTheme:
		if !contains(EditorThemes, value) {
			return invalid(key, value, strings.Join(EditorThemes, ", "))
		}
	case KeyFontSize:
		if !inInts(FontSizes, value) {
			return invalid(key, value, joinInts(FontSizes))
		}
	case KeyTabSize:
		if !inInts(TabSizes, value) {
			return invalid(key, value, joinInts(TabSizes))
		}
	case KeyEditorLanguage:
		if value == "" {
			return invalid(key, value, "a language name")
		}
	default:
		return errors.Newf(errors.PreferenceInvalid, "unknown preference %q", key)
	}
	return nil
}

func invalid(key, value, allowed string) error {
	return errors.Newf(errors.PreferenceInvalid, "%s: %q is not one of %s", key, value, allowed).
		WithDetail("field", key).
		WithDetail("reason", "must be one of "+allowed)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func inInts(list []int, v string) bool {
	n, err := strconv.Atoi(v)
	if err != nil {
		return false
	}
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}

func joinInts(list []int) string {
	parts := make([]string, len(list))
	for i, n := range list {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
