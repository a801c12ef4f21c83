// Package api is the typed surface of the judge backend.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ojclient/internal/cli/cache"
	httpclient "ojclient/internal/cli/http"
	"ojclient/pkg/errors"
)

const (
	problemCacheTTL  = time.Minute
	languageCacheTTL = 10 * time.Minute
)

// Client wraps the HTTP client with typed endpoints. Problem details and the
// language list are cached in memory.
type Client struct {
	http      *httpclient.Client
	problems  *cache.LRU[int64, Problem]
	languages *cache.LRU[string, []Language]
}

func New(h *httpclient.Client) *Client {
	return &Client{
		http:      h,
		problems:  cache.NewLRU[int64, Problem](128, problemCacheTTL),
		languages: cache.NewLRU[string, []Language](1, languageCacheTTL),
	}
}

// HTTP exposes the underlying client for base URL and timeout changes.
func (c *Client) HTTP() *httpclient.Client { return c.http }

// InvalidateCaches drops cached problems and languages.
func (c *Client) InvalidateCaches() {
	c.problems.Purge()
	c.languages.Purge()
}

// recode replaces the code of a normalised backend error, keeping message and details.
func recode(err error, from, to errors.ErrorCode) error {
	if errors.Is(err, from) {
		return errors.Wrap(err, to)
	}
	return err
}

// ========== Auth ==========

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.http.DoJSON(ctx, http.MethodPost, httpclient.LoginPath, nil,
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return resp, recode(err, errors.Unauthorized, errors.InvalidCredentials)
	}
	if resp.Tokens.Access == "" {
		return resp, errors.New(errors.InvalidResponse).WithMessage("login response carried no access token")
	}
	return resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var resp RegisterResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/auth/register/", nil, req, &resp)
	if err != nil {
		return resp, recode(err, errors.InvalidParams, errors.ValidationFailed)
	}
	return resp, nil
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	var user User
	err := c.http.DoJSON(ctx, http.MethodGet, "/auth/profile/", nil, nil, &user)
	return user, err
}

// Logout tells the backend to blacklist refresh. Callers treat failures as advisory.
// Logout revokes refresh on the backend. The access token is passed in
// because local state is usually cleared by the time this runs.
func (c *Client) Logout(ctx context.Context, access, refresh string) error {
	var headers map[string]string
	if access != "" {
		headers = map[string]string{"Authorization": "Bearer " + access}
	}
	var body interface{}
	if refresh != "" {
		body = map[string]string{"refresh": refresh}
	}
	return c.http.DoJSON(ctx, http.MethodPost, "/auth/logout/", headers, body, nil)
}

// ========== Problems ==========

func (c *Client) ListProblems(ctx context.Context, f ProblemFilter) (httpclient.Page[Problem], error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Difficulty != "" {
		q.Set("difficulty", string(f.Difficulty))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	path := "/problems/problems/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	info, err := c.http.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return httpclient.Page[Problem]{}, err
	}
	return httpclient.DecodePage[Problem](info.Body)
}

func (c *Client) GetProblem(ctx context.Context, id int64) (Problem, error) {
	return cache.GetOrLoad(ctx, c.problems, id, func(ctx context.Context) (Problem, error) {
		var p Problem
		err := c.http.DoJSON(ctx, http.MethodGet, fmt.Sprintf("/problems/problems/%d/", id), nil, nil, &p)
		return p, recode(err, errors.NotFound, errors.ProblemNotFound)
	})
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := c.http.DoJSON(ctx, http.MethodGet, "/problems/categories/", nil, nil, &out)
	return out, err
}

// ========== Submissions ==========

// SubmitCode creates a submission. idempotencyKey is sent as Idempotency-Key when non-empty.
func (c *Client) SubmitCode(ctx context.Context, req SubmitRequest, idempotencyKey string) (Submission, error) {
	var sub Submission
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	err := c.http.DoJSON(ctx, http.MethodPost, "/submissions/submit/", headers, req, &sub)
	if err != nil {
		return sub, recode(err, errors.InvalidParams, errors.SubmissionCreateFailed)
	}
	if sub.ID == 0 {
		return sub, errors.New(errors.InvalidResponse).WithMessage("submission response carried no id")
	}
	return sub, nil
}

func (c *Client) GetSubmission(ctx context.Context, id int64) (Submission, error) {
	var sub Submission
	err := c.http.DoJSON(ctx, http.MethodGet, fmt.Sprintf("/submissions/%d/", id), nil, nil, &sub)
	return sub, recode(err, errors.NotFound, errors.SubmissionNotFound)
}

func (c *Client) History(ctx context.Context, page int) (httpclient.Page[Submission], error) {
	path := "/submissions/history/"
	if page > 1 {
		path += "?page=" + strconv.Itoa(page)
	}
	info, err := c.http.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return httpclient.Page[Submission]{}, err
	}
	return httpclient.DecodePage[Submission](info.Body)
}

// AllHistory follows next links until the backend stops paginating or maxPages is reached.
func (c *Client) AllHistory(ctx context.Context, maxPages int) ([]Submission, error) {
	var all []Submission
	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		p, err := c.History(ctx, page)
		if err != nil {
			return all, err
		}
		all = append(all, p.Items...)
		if !p.HasNext() {
			break
		}
	}
	return all, nil
}

func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	return cache.GetOrLoad(ctx, c.languages, "all", func(ctx context.Context) ([]Language, error) {
		info, err := c.http.Do(ctx, http.MethodGet, "/submissions/languages/", nil, nil)
		if err != nil {
			return nil, err
		}
		page, err := httpclient.DecodePage[Language](info.Body)
		if err != nil {
			return nil, err
		}
		return page.Items, nil
	})
}

// LanguageByName resolves a case-insensitive language name or numeric id.
func (c *Client) LanguageByName(ctx context.Context, name string) (Language, error) {
	langs, err := c.Languages(ctx)
	if err != nil {
		return Language{}, err
	}
	id, _ := strconv.ParseInt(name, 10, 64)
	for _, l := range langs {
		if (id != 0 && l.ID == id) || equalFold(l.Name, name) {
			return l, nil
		}
	}
	return Language{}, errors.Newf(errors.LanguageNotSupported, "language %q is not supported", name)
}

func (c *Client) Rejudge(ctx context.Context, id int64) (Submission, error) {
	var sub Submission
	err := c.http.DoJSON(ctx, http.MethodPost, fmt.Sprintf("/submissions/submissions/%d/rejudge/", id), nil, nil, &sub)
	return sub, recode(err, errors.NotFound, errors.SubmissionNotFound)
}
