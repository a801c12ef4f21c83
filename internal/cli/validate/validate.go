// Package validate holds the client-side form rules. Every failure is a
// ValidationFailed error carrying field and reason details, and none of them
// touch the network.
package validate

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"ojclient/internal/cli/api"
	"ojclient/pkg/errors"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 8
	MaxCodeLength     = 50000
	MaxTestInputLen   = 10000
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.ValidationError(field, "This field is required.")
	}
	return nil
}

func Email(email string) error {
	if !emailPattern.MatchString(strings.ToLower(email)) {
		return errors.ValidationError("email", "Invalid email address")
	}
	return nil
}

func Username(username string) error {
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return errors.ValidationError("username", "Username must be at least 3 characters")
	}
	if !usernamePattern.MatchString(username) {
		return errors.ValidationError("username", "Username can only contain letters, numbers and underscores")
	}
	return nil
}

func Password(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errors.ValidationError("password", "Password must be at least 8 characters")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return errors.ValidationError("password", "Must contain at least one uppercase letter")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return errors.ValidationError("password", "Must contain at least one number")
	}
	return nil
}

func ConfirmPassword(password, confirm string) error {
	if password != confirm {
		return errors.ValidationError("password_confirm", "Passwords do not match")
	}
	return nil
}

// Code checks editor contents: non-blank and within the size limit.
func Code(code string) error {
	if strings.TrimSpace(code) == "" {
		return errors.ValidationError("code", "Code must not be empty")
	}
	if utf8.RuneCountInString(code) > MaxCodeLength {
		return errors.ValidationError("code", "Code exceeds maximum length")
	}
	return nil
}

func TestInput(input string) error {
	if utf8.RuneCountInString(input) > MaxTestInputLen {
		return errors.ValidationError("input", "Input exceeds maximum length")
	}
	return nil
}

// Submission validates a submit request before any network call.
func Submission(req api.SubmitRequest) error {
	return collect(
		Code(req.Code),
		positive("language", req.LanguageID, "Select a language"),
		positive("problem", req.ProblemID, "Select a problem"),
	)
}

// Registration runs every registration rule and reports all failing fields at once.
func Registration(req api.RegisterRequest) error {
	errs := []error{
		Email(req.Email),
		Username(req.Username),
		Password(req.Password),
		ConfirmPassword(req.Password, req.PasswordConfirm),
		Required("first_name", req.FirstName),
		Required("last_name", req.LastName),
	}
	return collect(errs...)
}

// Login only checks presence; strength rules apply at registration.
func Login(email, password string) error {
	return collect(Email(email), Required("password", password))
}

func positive(field string, v int64, reason string) error {
	if v <= 0 {
		return errors.ValidationError(field, reason)
	}
	return nil
}

// collect merges field errors. A single failure is returned unchanged; several
// become one error whose message lists them in field order.
func collect(errs ...error) error {
	fields := map[string]string{}
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		for k, v := range errors.FieldErrors(err) {
			if _, seen := fields[k]; !seen {
				fields[k] = v
			}
		}
	}
	if first == nil {
		return nil
	}
	if len(fields) == 1 {
		return first
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return errors.New(errors.ValidationFailed).
		WithMessage(strings.Join(parts, "; ")).
		WithDetail("fields", fields)
}
