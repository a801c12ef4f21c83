package prefs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ojclient/internal/cli/store"
	"ojclient/pkg/errors"
)

func TestDefaults(t *testing.T) {
	p := New(store.NewMemoryStore())
	s, err := p.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Settings{Theme: "light", EditorLanguage: "python", EditorTheme: "vs-dark", FontSize: 14, TabSize: 2}, s)
}

func TestSetValidates(t *testing.T) {
	ctx := context.Background()
	p := New(store.NewMemoryStore())

	tests := []struct {
		key, value string
		ok         bool
	}{
		{KeyFontSize, "16", true},
		{KeyFontSize, "15", false},
		{KeyFontSize, "big", false},
		{KeyTabSize, "8", true},
		{KeyTabSize, "3", false},
		{KeyTheme, "dark", true},
		{KeyTheme, "blue", false},
		{KeyEditorTheme, "hc-black", true},
		{KeyEditorTheme, "monokai", false},
		{KeyEditorLanguage, "cpp", true},
		{"editor.unknown", "x", false},
	}
	for _, tt := range tests {
		err := p.Set(ctx, tt.key, tt.value)
		if tt.ok {
			assert.NoError(t, err, "%s=%s", tt.key, tt.value)
			continue
		}
		assert.True(t, errors.Is(err, errors.PreferenceInvalid), "%s=%s should be rejected", tt.key, tt.value)
		assert.True(t, errors.IsValidation(err))
	}

	s, err := p.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, s.FontSize)
	assert.Equal(t, 8, s.TabSize)
	assert.Equal(t, "cpp", s.EditorLanguage)
}

func TestToggleTheme(t *testing.T) {
	ctx := context.Background()
	p := New(store.NewMemoryStore())

	theme, err := p.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)
	theme, err = p.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)
}

func TestDrafts(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	p := New(kv)

	code, err := p.Draft(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, code)

	require.NoError(t, p.SaveDraft(ctx, 3, "print(1)"))
	raw, ok, err := kv.Get(ctx, "editor.draft.3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "print(1)", raw)

	require.NoError(t, p.ResetDraft(ctx, 3))
	code, err = p.Draft(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, code)

	assert.Error(t, p.SaveDraft(ctx, 0, "x"))
}
