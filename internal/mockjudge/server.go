// Package mockjudge is an in-memory stand-in for the judging backend. It speaks
// the same JSON contract as the real service so the client can be developed and
// tested without one. Submissions advance one status per read.
package mockjudge

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"ojclient/internal/cli/api"
)

// Options tunes the stub. Zero values fall back to defaults.
type Options struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	PageSize   int
	// Compress enables zstd/gzip response bodies when the client asks for them.
	Compress bool
}

type account struct {
	user     api.User
	password string
}

type submission struct {
	owner  int64
	data   api.Submission
	script []api.Status
	reads  int
}

// Server holds all state behind one mutex.
type Server struct {
	opts Options

	mu           sync.Mutex
	accounts     map[string]*account // by email
	problems     []api.Problem
	languages    []api.Language
	submissions  map[int64]*submission
	nextUserID   int64
	nextSubID    int64
	accessGen    int
	revoked      map[string]bool // refresh token jti
	scripts      map[int64][]api.Status
	defaultSteps []api.Status
	hits         map[string]int
	refreshes    int
}

func New(opts Options) *Server {
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("mockjudge-dev-secret")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 24 * time.Hour
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}
	s := &Server{
		opts:         opts,
		accounts:     make(map[string]*account),
		submissions:  make(map[int64]*submission),
		revoked:      make(map[string]bool),
		scripts:      make(map[int64][]api.Status),
		hits:         make(map[string]int),
		nextUserID:   1,
		nextSubID:    1,
		defaultSteps: []api.Status{api.StatusPending, api.StatusRunning},
	}
	s.seed()
	return s
}

// Handler builds the gin engine with every route mounted under /api.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.traceMiddleware())
	if s.opts.Compress {
		r.Use(compressMiddleware())
	}

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	g := r.Group("/api")
	auth := g.Group("/auth")
	auth.POST("/login/", s.login)
	auth.POST("/register/", s.register)
	auth.POST("/token/refresh/", s.refresh)
	auth.POST("/logout/", s.requireAuth(), s.logout)
	auth.GET("/profile/", s.requireAuth(), s.profile)

	problems := g.Group("/problems")
	problems.GET("/problems/", s.listProblems)
	problems.GET("/problems/:id/", s.getProblem)
	problems.GET("/categories/", s.categories)

	subs := g.Group("/submissions", s.requireAuth())
	subs.POST("/submit/", s.submit)
	subs.GET("/history/", s.history)
	subs.GET("/languages/", s.listLanguages)
	subs.GET("/:id/", s.getSubmission)
	subs.POST("/submissions/:id/rejudge/", s.rejudge)

	return r
}

// Script fixes the statuses the next reads of submission id return, in order.
// Once exhausted the submission keeps the last one. Applies to ids not yet created too.
func (s *Server) Script(id int64, statuses ...api.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[id] = statuses
	if sub, ok := s.submissions[id]; ok {
		sub.script = statuses
		sub.reads = 0
	}
}

// InvalidateAccessTokens makes every access token minted so far fail with 401.
func (s *Server) InvalidateAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessGen++
}

// Hits returns how many requests reached route (e.g. "GET /api/submissions/:id/").
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Refreshes counts successful token refreshes.
func (s *Server) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

// AddUser registers an account directly; used for seeding and tests.
func (s *Server) AddUser(u api.User, password string) api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(u, password)
}

func (s *Server) addUserLocked(u api.User, password string) api.User {
	u.ID = s.nextUserID
	s.nextUserID++
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	s.accounts[u.Email] = &account{user: u, password: password}
	return u
}
