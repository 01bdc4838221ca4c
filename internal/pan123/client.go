package pan123

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Endpoint defaults.
const (
	DefaultAPIBaseURL   = "https://www.123pan.com/b"
	DefaultLoginBaseURL = "https://login.123pan.com"
	DefaultUserAgent    = "strm123/0.1"

	// browserUserAgent is sent on plain file fetches; the CDN rejects some
	// non-browser agents.
	browserUserAgent = "Mozilla/5.0"

	// maxErrorBody caps how much of an error response is kept for messages.
	maxErrorBody = 4096
)

// Client talks to the 123pan web API. It performs no retries of its own;
// callers wrap operations in a retry.Policy.
type Client struct {
	apiBase     string
	loginBase   string
	shareScheme string
	userAgent   string
	httpClient  *http.Client
	logger      *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIBaseURL overrides the account API base URL.
func WithAPIBaseURL(u string) Option {
	return func(c *Client) { c.apiBase = strings.TrimRight(u, "/") }
}

// WithLoginBaseURL overrides the sign-in base URL.
func WithLoginBaseURL(u string) Option {
	return func(c *Client) { c.loginBase = strings.TrimRight(u, "/") }
}

// WithShareScheme overrides the scheme used to reach share domains
// ("https" by default).
func WithShareScheme(s string) Option {
	return func(c *Client) { c.shareScheme = s }
}

// WithUserAgent overrides the User-Agent sent on API calls.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a 123pan client. A nil httpClient falls back to
// http.DefaultClient; a nil logger to slog.Default().
func NewClient(httpClient *http.Client, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		apiBase:     DefaultAPIBaseURL,
		loginBase:   DefaultLoginBaseURL,
		shareScheme: "https",
		userAgent:   DefaultUserAgent,
		httpClient:  httpClient,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewHTTPClient returns an http.Client with the given timeout and an optional
// outbound proxy. An empty proxy keeps the environment proxy settings.
func NewHTTPClient(timeout time.Duration, proxy string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("pan123: parsing proxy %q: %w", proxy, err)
		}

		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// doJSON sends a JSON request and decodes the response envelope into out.
// A non-2xx status or a non-success envelope code becomes an *APIError.
// successCodes lists envelope codes that mean success for this endpoint.
// A nil tok sends the request anonymously.
func doJSON[T any](
	ctx context.Context, c *Client, method, rawURL string, tok *oauth2.Token,
	body any, successCodes ...int,
) (T, error) {
	var zero T

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("pan123: encoding request: %w", err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return zero, fmt.Errorf("pan123: creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Platform", "web")
	req.Header.Set("App-Version", "3")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if tok != nil {
		tok.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("pan123: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if sentinel := classifyStatus(resp.StatusCode); sentinel != nil {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return zero, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			Err:        sentinel,
		}
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("pan123: decoding %s response: %w", req.URL.Path, err)
	}

	for _, ok := range successCodes {
		if env.Code == ok {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("path", req.URL.Path),
				slog.Int("code", env.Code),
			)

			return env.Data, nil
		}
	}

	return zero, &APIError{
		StatusCode: resp.StatusCode,
		Code:       env.Code,
		Message:    env.Message,
		Err:        classifyCode(env.Code),
	}
}
