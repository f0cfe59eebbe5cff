package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultAPIBase = "http://localhost:8080/api"

// TokenSource yields the opaque bearer token for authenticated calls.
// An empty token means no session.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Client is a client for the book catalog API.
type Client struct {
	apiBase string
	tokens  TokenSource
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRateLimit paces outgoing requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client for the given API base URL.
// If apiBase is empty, the local development API is used.
func New(apiBase string, tokens TokenSource, opts ...Option) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	// Strip trailing slash for consistent URL building.
	apiBase = strings.TrimRight(apiBase, "/")
	if tokens == nil {
		tokens = StaticToken("")
	}

	c := &Client{
		apiBase: apiBase,
		tokens:  tokens,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 1),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.apiBase }

// Authenticated reports whether a session token is available.
func (c *Client) Authenticated() bool { return c.tokens.Token() != "" }

// do executes the request with standard headers. Transport failures are
// returned as *NetworkError.
func (c *Client) do(ctx context.Context, req *http.Request, auth bool) (*http.Response, error) {
	token := c.tokens.Token()
	if auth && token == "" {
		return nil, ErrUnauthorized
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	op := req.Method + " " + req.URL.Path
	start := time.Now()
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		c.log.Debug("request failed", zap.String("op", op), zap.String("request_id", reqID), zap.Error(err))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Op: op, Err: err}
	}
	c.log.Debug("request done",
		zap.String("op", op),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// doJSON sends a request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out interface{}, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, req, auth)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out != nil {
		return decode(method+" "+req.URL.Path, resp.Body, out)
	}
	return nil
}

// doBinary sends an authenticated GET and returns the raw body.
// Caller is responsible for closing the returned ReadCloser.
func (c *Client) doBinary(ctx context.Context, url string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/octet-stream")
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return nil, "", err
	}
	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, "", err
	}
	return resp.Body, filenameFrom(resp.Header.Get("Content-Disposition")), nil
}

func decode(op string, r io.Reader, out interface{}) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return &ParseError{Op: op, Err: err}
	}
	return nil
}

// url builds an API URL from path segments.
func (c *Client) url(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.apiBase + "/" + strings.Join(escaped, "/")
}

// errorBody is the error envelope returned by the API.
type errorBody struct {
	Status  string            `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// Business conflict codes the API may return with 400 instead of 409.
var conflictCodes = map[string]bool{
	"ALREADY_IN_LIBRARY": true,
	"NOT_IN_LIBRARY":     true,
	"DUPLICATE":          true,
}

// checkStatus returns a typed error for non-2xx responses.
func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}

	switch {
	case resp.StatusCode == http.StatusConflict, conflictCodes[strings.ToUpper(eb.Code)]:
		return &ConflictError{Code: eb.Code, Message: eb.Message}
	case len(eb.Errors) > 0, resp.StatusCode == http.StatusUnprocessableEntity:
		fields := eb.Errors
		if len(fields) == 0 {
			fields = map[string]string{"_": msg}
		}
		return &ValidationError{Fields: fields}
	default:
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}
}

// filenameFrom extracts the filename parameter of a Content-Disposition header.
func filenameFrom(header string) string {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if name, ok := strings.CutPrefix(part, "filename="); ok {
			return strings.Trim(name, `"`)
		}
	}
	return ""
}

func itoa(id int64) string { return fmt.Sprintf("%d", id) }
