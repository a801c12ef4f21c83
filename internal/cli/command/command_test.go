package command_test

import (
	"os"
	"path/filepath"
	"testing"

	"ojclient/internal/cli/api"
	"ojclient/internal/cli/command"
	"ojclient/internal/testutil"
	"ojclient/pkg/errors"
)

func TestSubmitSourceFromFile(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "main.py")
	if err := os.WriteFile(sourcePath, []byte("print(42)"), 0o600); err != nil {
		t.Fatalf("write temp source failed: %v", err)
	}

	params := command.Params{}
	params.Set("source_file", sourcePath)
	code, err := command.SubmitSource(params, "draft code")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, code, "print(42)")
}

func TestSubmitSourceFallsBackToDraft(t *testing.T) {
	code, err := command.SubmitSource(command.Params{}, "print('draft')")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, code, "print('draft')")

	_, err = command.SubmitSource(command.Params{}, "   ")
	testutil.AssertTrue(t, errors.IsValidation(err), "blank draft should be a validation error")

	params := command.Params{}
	params.Set("source_file", filepath.Join(t.TempDir(), "missing.py"))
	_, err = command.SubmitSource(params, "")
	testutil.AssertTrue(t, err != nil, "missing file should fail")
}

func TestParseArgsAndAliases(t *testing.T) {
	cmd := command.Registry()["submit create"]
	params, err := command.ParseArgs([]string{"problem=3", "LANG=Python", "file=./a.py"})
	testutil.AssertNoError(t, err)
	params.Canonicalize(cmd.Fields)

	id, err := params.Int64("problem_id")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, id, int64(3))
	testutil.AssertEqual(t, params.Get("language"), "Python")
	testutil.AssertEqual(t, params.Get("source_file"), "./a.py")

	_, err = command.ParseArgs([]string{"novalue"})
	testutil.AssertTrue(t, err != nil, "token without = should fail")
}

func TestMissingRequiredFields(t *testing.T) {
	cmd := command.Registry()["user login"]
	params := command.Params{}
	params.Set("email", "demo@example.com")

	missing := command.Missing(cmd, params)
	testutil.AssertEqual(t, len(missing), 1)
	testutil.AssertEqual(t, missing[0].Name, "password")
	testutil.AssertEqual(t, missing[0].Type, command.FieldSecret)
}

func TestParamsInt64Rejects(t *testing.T) {
	params := command.Params{}
	_, err := params.Int64("id")
	testutil.AssertTrue(t, errors.IsValidation(err), "missing id")
	params.Set("id", "-2")
	_, err = params.Int64("id")
	testutil.AssertEqual(t, errors.FieldErrors(err)["id"], "must be a positive integer")
}

func TestBuildProblemFilter(t *testing.T) {
	params := command.Params{}
	params.Set("difficulty", "hard")
	params.Set("search", " sum ")
	params.Set("page", "2")
	f, err := command.BuildProblemFilter(params)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, f, api.ProblemFilter{Search: "sum", Difficulty: api.DifficultyHard, Page: 2})

	params.Set("difficulty", "brutal")
	_, err = command.BuildProblemFilter(params)
	testutil.AssertTrue(t, errors.IsValidation(err), "unknown difficulty")
}

func TestRegistryAuthFlags(t *testing.T) {
	reg := command.Registry()
	for key, wantAuth := range map[string]bool{
		"user login":     false,
		"user logout":    false,
		"problem list":   false,
		"submit create":  true,
		"submit history": true,
		"dashboard show": true,
		"prefs theme":    false,
	} {
		cmd, ok := reg[key]
		testutil.AssertTrue(t, ok, key+" should be registered")
		testutil.AssertEqual(t, cmd.RequiresAuth, wantAuth)
	}
	testutil.AssertEqual(t, reg["problem show"].Usage(), "problem show id=<id>")
}

func TestBuildRegister(t *testing.T) {
	params := command.Params{}
	params.Set("username", " ada ")
	params.Set("password", "Secret123")
	params.Set("password_confirm", "Secret123")
	req := command.BuildRegister(params)
	testutil.AssertEqual(t, req.Username, "ada")
	testutil.AssertEqual(t, req.PasswordConfirm, "Secret123")
}
