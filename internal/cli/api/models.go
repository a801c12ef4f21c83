package api

import (
	"strings"
	"time"
)

// Status is a submission verdict as reported by the backend.
type Status string

const (
	// StatusSubmitting never comes from the backend; it marks a create call in flight.
	StatusSubmitting Status = "SUBMITTING"

	StatusPending             Status = "PENDING"
	StatusRunning             Status = "RUNNING"
	StatusAccepted            Status = "ACCEPTED"
	StatusWrongAnswer         Status = "WRONG_ANSWER"
	StatusTimeLimitExceeded   Status = "TIME_LIMIT_EXCEEDED"
	StatusMemoryLimitExceeded Status = "MEMORY_LIMIT_EXCEEDED"
	StatusCompilationError    Status = "COMPILATION_ERROR"
	StatusRuntimeError        Status = "RUNTIME_ERROR"
)

var statusLabels = map[Status]string{
	StatusSubmitting:          "Submitting",
	StatusPending:             "Pending",
	StatusRunning:             "Running",
	StatusAccepted:            "Accepted",
	StatusWrongAnswer:         "Wrong Answer",
	StatusTimeLimitExceeded:   "Time Limit Exceeded",
	StatusMemoryLimitExceeded: "Memory Limit Exceeded",
	StatusCompilationError:    "Compilation Error",
	StatusRuntimeError:        "Runtime Error",
}

// IsTerminal reports whether polling should stop. Any non-empty value other than
// the in-flight ones counts, including verdicts this client does not know yet.
func (s Status) IsTerminal() bool {
	switch s {
	case "", StatusSubmitting, StatusPending, StatusRunning:
		return false
	}
	return true
}

// Known reports whether s is one of the enumerated statuses.
func (s Status) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human form, e.g. "Wrong Answer".
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	}
	return string(d)
}

type User struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Bio               string    `json:"bio,omitempty"`
	GithubUsername    string    `json:"github_username,omitempty"`
	LeetcodeUsername  string    `json:"leetcode_username,omitempty"`
	PreferredLanguage string    `json:"preferred_language,omitempty"`
	DateJoined        time.Time `json:"date_joined"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Username
}

type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LoginResponse struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

type RegisterRequest struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	PasswordConfirm   string `json:"password_confirm"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
}

type RegisterResponse struct {
	User    User    `json:"user"`
	Tokens  *Tokens `json:"tokens,omitempty"`
	Message string  `json:"message,omitempty"`
}

type SampleTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Explanation    string `json:"explanation,omitempty"`
}

type Problem struct {
	ID              int64            `json:"id"`
	Title           string           `json:"title"`
	Slug            string           `json:"slug"`
	Description     string           `json:"description,omitempty"`
	Difficulty      Difficulty       `json:"difficulty"`
	Category        string           `json:"category"`
	TimeLimit       int              `json:"time_limit,omitempty"`   // ms
	MemoryLimit     int              `json:"memory_limit,omitempty"` // MB
	Constraints     string           `json:"constraints,omitempty"`
	SampleInput     string           `json:"sample_input,omitempty"`
	SampleOutput    string           `json:"sample_output,omitempty"`
	Explanation     string           `json:"explanation,omitempty"`
	Hints           string           `json:"hints,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	SampleTestCases []SampleTestCase `json:"sample_test_cases,omitempty"`
}

type TestResult struct {
	ID            int64   `json:"id"`
	TestCase      int64   `json:"test_case"`
	Status        Status  `json:"status"`
	Output        string  `json:"output"`
	ExecutionTime float64 `json:"execution_time"`
	MemoryUsed    float64 `json:"memory_used"`
	ErrorMessage  string  `json:"error_message,omitempty"`
}

type Submission struct {
	ID              int64        `json:"id"`
	Problem         int64        `json:"problem,omitempty"`
	ProblemTitle    string       `json:"problem_title"`
	ProblemSlug     string       `json:"problem_slug,omitempty"`
	Language        int64        `json:"language,omitempty"`
	LanguageName    string       `json:"language_name"`
	Code            string       `json:"code,omitempty"`
	Status          Status       `json:"status"`
	Score           float64      `json:"score"`
	ExecutionTime   float64      `json:"execution_time"` // ms
	MemoryUsed      float64      `json:"memory_used"`    // MB
	TestCasesPassed int          `json:"test_cases_passed"`
	TotalTestCases  int          `json:"total_test_cases"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	Output          string       `json:"output,omitempty"`
	SubmittedAt     time.Time    `json:"submitted_at"`
	JudgedAt        *time.Time   `json:"judged_at,omitempty"`
	TestResults     []TestResult `json:"test_results,omitempty"`
}

// SuccessRate is the percentage of passed test cases, rounded to an integer.
func (s Submission) SuccessRate() int {
	if s.TotalTestCases <= 0 {
		return 0
	}
	return int(float64(s.TestCasesPassed)/float64(s.TotalTestCases)*100 + 0.5)
}

type Language struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// SubmitRequest is the body of POST /submissions/submit/.
type SubmitRequest struct {
	Code       string `json:"code"`
	LanguageID int64  `json:"language"`
	ProblemID  int64  `json:"problem"`
}

// ProblemFilter narrows the problem list. Zero fields are omitted.
type ProblemFilter struct {
	Search     string
	Difficulty Difficulty
	Category   string
	Page       int
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
