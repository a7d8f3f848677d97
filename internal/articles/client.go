// ABOUTME: HTTP client for the content API's /api/articles resource
// ABOUTME: Normalizes transport errors and off-contract responses into Result failures

package articles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds a single API call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// APIKeyHeader carries the process-wide credential.
const APIKeyHeader = "X-API-Key"

// RequestIDHeader correlates API calls with the chat message that caused them.
const RequestIDHeader = "X-Request-ID"

// Client talks to the content API. It is safe for concurrent use and holds
// no per-call state.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the credential sent as X-API-Key. An empty key omits the header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout bounds each call. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client (e.g. a tailnet client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the articles collection at baseURL
// (e.g. "http://localhost:3000/api/articles").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: DefaultTimeout,
		http:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "articles")
	return c
}

// HasAPIKey reports whether a credential is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// BaseURL returns the collection URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateArticle issues POST {base} with the full record.
func (c *Client) CreateArticle(ctx context.Context, a NewArticle) Result {
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return c.do(ctx, http.MethodPost, c.baseURL, a, expectArticle)
}

// UpdateArticle issues PUT {base}/{id} with the fields to merge.
func (c *Client) UpdateArticle(ctx context.Context, id string, u Update) Result {
	if id == "" {
		return failure(FailureAPI, 0, "article id is required")
	}
	return c.do(ctx, http.MethodPut, c.articleURL(id), u, expectArticle)
}

// PublishArticle sets the article's status to published.
func (c *Client) PublishArticle(ctx context.Context, id string) Result {
	published := StatusPublished
	return c.UpdateArticle(ctx, id, Update{Status: &published})
}

// ListArticles issues GET {base}, optionally filtered by status.
// An empty status lists everything.
func (c *Client) ListArticles(ctx context.Context, status Status) Result {
	u := c.baseURL
	if status != "" {
		u += "?" + url.Values{"status": {string(status)}}.Encode()
	}
	return c.do(ctx, http.MethodGet, u, nil, expectArticles)
}

// GetArticle issues GET {base}/{id}.
func (c *Client) GetArticle(ctx context.Context, id string) Result {
	if id == "" {
		return failure(FailureAPI, 0, "article id is required")
	}
	return c.do(ctx, http.MethodGet, c.articleURL(id), nil, expectArticle)
}

// DeleteArticle issues DELETE {base}/{id}.
func (c *Client) DeleteArticle(ctx context.Context, id string) Result {
	if id == "" {
		return failure(FailureAPI, 0, "article id is required")
	}
	return c.do(ctx, http.MethodDelete, c.articleURL(id), nil, expectNothing)
}

func (c *Client) articleURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(id)
}

// expectation names the payload a successful response must carry.
type expectation int

const (
	expectNothing expectation = iota
	expectArticle
	expectArticles
)

// envelope is the response contract: {success, article|articles, error}.
type envelope struct {
	Success  *bool      `json:"success"`
	Article  *Article   `json:"article"`
	Articles []*Article `json:"articles"`
	Total    *int       `json:"total"`
	Message  string     `json:"message"`
	Error    string     `json:"error"`
}

func (c *Client) do(ctx context.Context, method, target string, body any, want expectation) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return failure(FailureAPI, 0, "encoding request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return failure(FailureTransport, 0, "building request: %v", err)
	}

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("content API unreachable",
			"method", method,
			"url", target,
			"request_id", requestID,
			"error", err,
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return failure(FailureTransport, 0, "content API did not answer within %s", c.timeout)
		}
		return failure(FailureTransport, 0, "content API unreachable: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failure(FailureTransport, resp.StatusCode, "reading response: %v", err)
	}

	c.logger.Debug("content API call",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	return decode(resp.StatusCode, raw, want)
}

// decode maps a raw response onto Result. Anything outside the contract
// becomes a FailureAPI with the most specific message available.
func decode(status int, raw []byte, want expectation) Result {
	if len(bytes.TrimSpace(raw)) == 0 {
		if status >= 200 && status < 300 {
			return failure(FailureAPI, status, "content API returned an empty response")
		}
		return failure(FailureAPI, status, "content API returned status %d (%s)", status, http.StatusText(status))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil {
		return failure(FailureAPI, status, "%s", bestEffortMessage(status, raw))
	}

	if !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = bestEffortMessage(status, raw)
		}
		return failure(FailureAPI, status, "%s", msg)
	}

	res := Result{Message: env.Message}
	switch want {
	case expectArticle:
		if env.Article == nil {
			return failure(FailureAPI, status, "content API response is missing the article")
		}
		res.Article = env.Article
	case expectArticles:
		for _, a := range env.Articles {
			if a == nil {
				return failure(FailureAPI, status, "content API returned a null article")
			}
		}
		res.Articles = env.Articles
		if res.Articles == nil {
			res.Articles = []*Article{}
		}
		res.Total = len(res.Articles)
		if env.Total != nil {
			res.Total = *env.Total
		}
	}
	return res
}

// bestEffortMessage digs an error string out of a body that did not match
// the envelope, falling back to the status line and a body excerpt.
func bestEffortMessage(status int, raw []byte) string {
	if gjson.ValidBytes(raw) {
		for _, path := range []string{"error", "error.message", "message"} {
			if v := gjson.GetBytes(raw, path); v.Exists() && v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	excerpt := strings.TrimSpace(string(raw))
	if r := []rune(excerpt); len(r) > 200 {
		excerpt = string(r[:200]) + "..."
	}
	if status >= 200 && status < 300 {
		return fmt.Sprintf("malformed response from content API: %s", excerpt)
	}
	return fmt.Sprintf("content API returned status %d: %s", status, excerpt)
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id that is sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation id set by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
