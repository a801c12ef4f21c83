package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"ojclient/internal/cli/metrics"
	"ojclient/pkg/errors"
	"ojclient/pkg/utils/logger"
	"ojclient/pkg/utils/traceid"
)

const (
	LoginPath   = "/auth/login/"
	RefreshPath = "/auth/token/refresh/"
)

// ResponseInfo carries response details.
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Tokens is the token store seen by the client. Only the refresh path mutates it.
type Tokens interface {
	AccessToken() string
	RefreshToken() string
	SetAccess(ctx context.Context, access, rotatedRefresh string) error
	Clear(ctx context.Context) error
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Tokens  Tokens
	Metrics *metrics.Metrics

	// RequestsPerSecond paces outgoing requests; 0 disables pacing.
	RequestsPerSecond float64
	Transport         http.RoundTripper
}

// Client sends JSON requests to the judge backend. It attaches the bearer token,
// refreshes it once on 401 and normalises failures into *errors.Error.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	timeout time.Duration

	http    *http.Client
	tokens  Tokens
	metrics *metrics.Metrics
	limiter *rate.Limiter
	refresh singleflight.Group
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		http:    &http.Client{Transport: opts.Transport},
		tokens:  opts.Tokens,
		metrics: opts.Metrics,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

func (c *Client) Timeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeout
}

// Do sends one logical request. A 401 on an authenticated path triggers at most
// one token refresh and one retry. Any status >= 400 is returned as *errors.Error
// alongside the raw response.
func (c *Client) Do(ctx context.Context, method, path string, headers map[string]string, body []byte) (ResponseInfo, error) {
	ctx, _ = traceid.Ensure(ctx)

	// A caller-supplied Authorization header is sent as is and never refreshed.
	_, explicit := headers["Authorization"]
	authed := !explicit && needsAuth(path) && c.tokens != nil
	token := ""
	if authed {
		token = c.tokens.AccessToken()
	}

	info, err := c.send(ctx, method, path, headers, body, token)
	if err != nil {
		return info, err
	}
	if info.StatusCode != http.StatusUnauthorized || !authed {
		return info, statusError(info)
	}

	original := statusError(info)
	fresh, err := c.refreshToken(ctx, token)
	if err != nil {
		logger.Warn(ctx, "token refresh failed, session cleared", zap.String("path", path), zap.Error(err))
		return info, original
	}

	info, err = c.send(ctx, method, path, headers, body, fresh)
	if err != nil {
		return info, err
	}
	if info.StatusCode == http.StatusUnauthorized {
		if cerr := c.tokens.Clear(ctx); cerr != nil {
			logger.Warn(ctx, "clear tokens failed", zap.Error(cerr))
		}
		return info, errors.Wrap(statusError(info), errors.SessionExpired)
	}
	return info, statusError(info)
}

// DoJSON marshals in (when non-nil), sends and decodes the response into out (when non-nil).
func (c *Client) DoJSON(ctx context.Context, method, path string, headers map[string]string, in, out interface{}) error {
	var body []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, errors.InvalidParams, "encode request failed: %v", err)
		}
		body = data
	}
	info, err := c.Do(ctx, method, path, headers, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(info.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(info.Body, out); err != nil {
		return errors.Wrapf(err, errors.InvalidResponse, "decode %s response failed: %v", path, err)
	}
	return nil
}

// refreshToken returns a usable access token. When another caller already replaced
// the token this request was sent with, that token is returned without a new refresh.
// Concurrent callers share one in-flight refresh. On failure both tokens are cleared.
func (c *Client) refreshToken(ctx context.Context, stale string) (string, error) {
	if current := c.tokens.AccessToken(); current != "" && current != stale {
		c.countRefresh("reused")
		return current, nil
	}

	v, err, shared := c.refresh.Do("refresh", func() (interface{}, error) {
		if current := c.tokens.AccessToken(); current != "" && current != stale {
			return current, nil
		}
		// The refresh outlives a single caller's cancellation since others may be waiting on it.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.Timeout())
		defer cancel()

		access, err := c.exchangeRefreshToken(rctx)
		if err != nil {
			if cerr := c.tokens.Clear(rctx); cerr != nil {
				logger.Warn(ctx, "clear tokens failed", zap.Error(cerr))
			}
			c.countRefresh("failed")
			return "", err
		}
		c.countRefresh("ok")
		return access, nil
	})
	if shared {
		logger.Debug(ctx, "joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) exchangeRefreshToken(ctx context.Context) (string, error) {
	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		return "", errors.New(errors.RefreshFailed).WithMessage("no refresh token stored")
	}
	body, _ := json.Marshal(map[string]string{"refresh": refreshToken})
	info, err := c.send(ctx, http.MethodPost, RefreshPath, nil, body, "")
	if err != nil {
		return "", errors.Wrap(err, errors.RefreshFailed)
	}
	if serr := statusError(info); serr != nil {
		return "", errors.Wrap(serr, errors.RefreshFailed)
	}

	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(info.Body, &resp); err != nil || resp.Access == "" {
		return "", errors.New(errors.RefreshFailed).WithMessage("refresh response carried no access token")
	}
	if err := c.tokens.SetAccess(ctx, resp.Access, resp.Refresh); err != nil {
		return "", errors.Wrap(err, errors.RefreshFailed)
	}
	return resp.Access, nil
}

// send performs exactly one HTTP round trip.
func (c *Client) send(ctx context.Context, method, path string, headers map[string]string, body []byte, token string) (ResponseInfo, error) {
	var info ResponseInfo

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return info, transportError(ctx, err)
		}
	}

	c.mu.RLock()
	url := c.baseURL + path
	timeout := c.timeout
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return info, errors.Wrapf(err, errors.InvalidParams, "build request failed: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", traceid.FromContext(ctx))
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	info.Duration = time.Since(start)
	if err != nil {
		c.observe(method, 0, info.Duration)
		logger.Debug(ctx, "request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return info, transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	info.StatusCode = resp.StatusCode
	info.Headers = resp.Header
	info.Body, err = readBody(resp)
	if err != nil {
		return info, errors.Wrapf(err, errors.InvalidResponse, "read response body failed: %v", err)
	}

	c.observe(method, resp.StatusCode, info.Duration)
	logger.Debug(ctx, "request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", info.Duration),
	)
	return info, nil
}

func (c *Client) observe(method string, status int, d time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Requests.WithLabelValues(method, metrics.StatusClass(status)).Inc()
	c.metrics.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (c *Client) countRefresh(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.Refreshes.WithLabelValues(result).Inc()
}

// needsAuth reports whether path carries the bearer token. Login and refresh never do.
func needsAuth(path string) bool {
	p := path
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p != LoginPath && p != RefreshPath
}
