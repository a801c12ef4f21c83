package mockjudge

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ojclient/internal/cli/api"
	"ojclient/internal/cli/validate"
	"ojclient/pkg/errors"
	"ojclient/pkg/utils/response"
)

const testCasesPerProblem = 3

// ========== Auth ==========

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		response.Error(c, errors.BadRequest("Email and password are required."))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[strings.ToLower(req.Email)]
	if !ok || acct.password != req.Password {
		response.Error(c, errors.New(errors.InvalidCredentials).WithStatus(http.StatusUnauthorized).WithMessage("Invalid credentials"))
		return
	}
	tokens, err := s.tokenPairLocked(acct.user.ID)
	if err != nil {
		response.Error(c, errors.InternalError(err))
		return
	}
	response.Success(c, gin.H{"user": acct.user, "tokens": tokens, "message": "Login successful"})
}

func (s *Server) register(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.BadRequest("Malformed request body."))
		return
	}
	fields := map[string]string{}
	for field, value := range map[string]string{
		"username": req.Username, "email": req.Email, "password": req.Password,
		"password_confirm": req.PasswordConfirm, "first_name": req.FirstName, "last_name": req.LastName,
	} {
		if strings.TrimSpace(value) == "" {
			fields[field] = "This field is required."
		}
	}
	if _, missing := fields["password"]; !missing {
		if err := validate.Password(req.Password); err != nil {
			fields["password"] = errors.FieldErrors(err)["password"]
		} else if req.Password != req.PasswordConfirm {
			fields["password"] = "Password fields didn't match."
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, taken := s.accounts[email]; taken && email != "" {
		fields["email"] = "Email already exists."
	}
	for _, a := range s.accounts {
		if req.Username != "" && strings.EqualFold(a.user.Username, req.Username) {
			fields["username"] = "A user with that username already exists."
		}
	}
	if len(fields) > 0 {
		response.Error(c, errors.New(errors.ValidationFailed).WithDetail("fields", fields))
		return
	}

	user := s.addUserLocked(api.User{
		Username:          req.Username,
		Email:             email,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		PreferredLanguage: req.PreferredLanguage,
	}, req.Password)
	tokens, err := s.tokenPairLocked(user.ID)
	if err != nil {
		response.Error(c, errors.InternalError(err))
		return
	}
	response.Created(c, gin.H{"user": user, "tokens": tokens, "message": "User registered successfully"})
}

func (s *Server) refresh(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		response.Error(c, errors.New(errors.ValidationFailed).WithDetail("fields", map[string]string{"refresh": "This field is required."}))
		return
	}
	claims, err := s.parse(req.Refresh, tokenTypeRefresh)
	if err != nil {
		response.Detail(c, http.StatusUnauthorized, "Token is invalid or expired", "token_not_valid")
		return
	}
	userID, _ := strconv.ParseInt(claims.Subject, 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[claims.ID] {
		response.Detail(c, http.StatusUnauthorized, "Token is blacklisted", "token_not_valid")
		return
	}
	access, err := s.mintLocked(userID, tokenTypeAccess, s.opts.AccessTTL)
	if err != nil {
		response.Error(c, errors.InternalError(err))
		return
	}
	s.refreshes++
	response.Success(c, gin.H{"access": access})
}

func (s *Server) logout(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Refresh != "" {
		if claims, err := s.parse(req.Refresh, tokenTypeRefresh); err == nil {
			s.mu.Lock()
			s.revoked[claims.ID] = true
			s.mu.Unlock()
		}
	}
	response.Success(c, gin.H{"message": "Successfully logged out"})
}

func (s *Server) profile(c *gin.Context) {
	response.Success(c, currentUser(c))
}

// ========== Problems ==========

func (s *Server) listProblems(c *gin.Context) {
	search := strings.ToLower(c.Query("search"))
	difficulty := strings.ToUpper(c.Query("difficulty"))
	category := c.Query("category")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	s.mu.Lock()
	out := make([]api.Problem, 0, len(s.problems))
	for _, p := range s.problems {
		if search != "" && !strings.Contains(strings.ToLower(p.Title+" "+p.Description), search) {
			continue
		}
		if difficulty != "" && string(p.Difficulty) != difficulty {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		summary := p
		summary.Description = ""
		summary.SampleTestCases = nil
		out = append(out, summary)
	}
	s.mu.Unlock()

	response.Paginate(c, out, page, s.opts.PageSize)
}

func (s *Server) getProblem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Detail(c, http.StatusNotFound, "Not found.", "")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.problems {
		if p.ID == id {
			response.Success(c, p)
			return
		}
	}
	response.Detail(c, http.StatusNotFound, "Not found.", "")
}

func (s *Server) categories(c *gin.Context) {
	s.mu.Lock()
	seen := map[string]bool{}
	var out []string
	for _, p := range s.problems {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	s.mu.Unlock()
	sort.Strings(out)
	response.Success(c, out)
}

// ========== Submissions ==========

func (s *Server) listLanguages(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	response.Success(c, s.languages)
}

func (s *Server) submit(c *gin.Context) {
	var req api.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" || req.LanguageID == 0 || req.ProblemID == 0 {
		response.Error(c, errors.BadRequest("Missing required fields."))
		return
	}
	user := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	problem, okP := s.problemLocked(req.ProblemID)
	language, okL := s.languageLocked(req.LanguageID)
	if !okP || !okL {
		response.Error(c, errors.BadRequest("Invalid problem or language."))
		return
	}

	id := s.nextSubID
	s.nextSubID++
	script, ok := s.scripts[id]
	if !ok {
		script = append(append([]api.Status(nil), s.defaultSteps...), verdictFor(req.Code))
	}
	sub := &submission{
		owner:  user.ID,
		script: script,
		data: api.Submission{
			ID:             id,
			Problem:        problem.ID,
			ProblemTitle:   problem.Title,
			ProblemSlug:    problem.Slug,
			Language:       language.ID,
			LanguageName:   language.Name,
			Code:           req.Code,
			Status:         api.StatusPending,
			TotalTestCases: testCasesPerProblem,
			SubmittedAt:    time.Now().UTC(),
		},
	}
	s.submissions[id] = sub
	response.Created(c, sub.data)
}

func (s *Server) getSubmission(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.ownedLocked(c)
	if !ok {
		response.Error(c, errors.New(errors.SubmissionNotFound).WithMessage("Submission not found."))
		return
	}
	s.advanceLocked(sub)
	response.Success(c, sub.data)
}

func (s *Server) history(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	out := make([]api.Submission, 0)
	for _, sub := range s.submissions {
		if sub.owner == user.ID {
			item := sub.data
			item.TestResults = nil
			out = append(out, item)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	response.Success(c, out)
}

func (s *Server) rejudge(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.ownedLocked(c)
	if !ok {
		response.Error(c, errors.New(errors.SubmissionNotFound).WithMessage("Submission not found."))
		return
	}
	sub.script = append(append([]api.Status(nil), s.defaultSteps...), verdictFor(sub.data.Code))
	sub.reads = 0
	sub.data.Status = api.StatusPending
	sub.data.Score = 0
	sub.data.TestCasesPassed = 0
	sub.data.TestResults = nil
	sub.data.JudgedAt = nil
	response.Success(c, sub.data)
}

func (s *Server) ownedLocked(c *gin.Context) (*submission, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, false
	}
	sub, ok := s.submissions[id]
	if !ok || sub.owner != currentUser(c).ID {
		return nil, false
	}
	return sub, true
}

// advanceLocked moves a submission one step along its script and fills in the
// verdict details when it lands on a terminal status.
func (s *Server) advanceLocked(sub *submission) {
	if len(sub.script) == 0 {
		return
	}
	idx := sub.reads
	if idx >= len(sub.script) {
		idx = len(sub.script) - 1
	}
	sub.reads++
	status := sub.script[idx]
	if sub.data.Status == status && sub.data.JudgedAt != nil {
		return
	}
	sub.data.Status = status
	if status.IsTerminal() {
		finalize(&sub.data)
	}
}

func finalize(sub *api.Submission) {
	passed := 0
	sub.TestResults = make([]api.TestResult, 0, sub.TotalTestCases)
	for i := 0; i < sub.TotalTestCases; i++ {
		st := api.StatusAccepted
		if sub.Status != api.StatusAccepted && i == sub.TotalTestCases-1 {
			st = sub.Status
		}
		if st == api.StatusAccepted {
			passed++
		}
		sub.TestResults = append(sub.TestResults, api.TestResult{
			ID:            int64(i + 1),
			TestCase:      int64(i + 1),
			Status:        st,
			ExecutionTime: float64(12 + 7*i),
			MemoryUsed:    8.5,
		})
	}
	if sub.Status == api.StatusCompilationError {
		passed = 0
		sub.TestResults = nil
		sub.ErrorMessage = "SyntaxError: invalid syntax"
	}
	if sub.Status == api.StatusRuntimeError {
		sub.ErrorMessage = "Traceback (most recent call last): ..."
	}
	sub.TestCasesPassed = passed
	if sub.TotalTestCases > 0 {
		sub.Score = float64(passed * 100 / sub.TotalTestCases)
	}
	sub.ExecutionTime = 45
	sub.MemoryUsed = 8.5
	now := time.Now().UTC()
	sub.JudgedAt = &now
}

// verdictFor picks the final status from markers in the source, so demos can
// exercise every verdict.
func verdictFor(code string) api.Status {
	lower := strings.ToLower(code)
	switch {
	case strings.Contains(lower, "syntax error"):
		return api.StatusCompilationError
	case strings.Contains(lower, "while true") || strings.Contains(lower, "for(;;)"):
		return api.StatusTimeLimitExceeded
	case strings.Contains(lower, "memory hog"):
		return api.StatusMemoryLimitExceeded
	case strings.Contains(lower, "raise"):
		return api.StatusRuntimeError
	case strings.Contains(lower, "wrong"):
		return api.StatusWrongAnswer
	default:
		return api.StatusAccepted
	}
}

func (s *Server) problemLocked(id int64) (api.Problem, bool) {
	for _, p := range s.problems {
		if p.ID == id {
			return p, true
		}
	}
	return api.Problem{}, false
}

func (s *Server) languageLocked(id int64) (api.Language, bool) {
	for _, l := range s.languages {
		if l.ID == id {
			return l, true
		}
	}
	return api.Language{}, false
}
