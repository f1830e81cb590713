package lago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bft-labs/lagoship/pkg/log"
)

// MaxBatchSize is the largest number of events Lago accepts in one batch call.
const MaxBatchSize = 100

const defaultUserAgent = "lagoship"

// ErrInvalidBatchSize is returned by New when WithBatchSize is out of range.
var ErrInvalidBatchSize = errors.New("lago: batch size must be between 1 and 100")

// HTTPClient abstracts HTTP request execution for testing and custom transports.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one Lago API instance with a bearer token.
// A Client holds no per-call state and may be shared between goroutines.
type Client struct {
	baseURL   *url.URL
	token     string
	http      HTTPClient
	logger    log.Logger
	batchSize int
	userAgent string
}

// Option configures optional behavior of a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all requests.
// If not provided, http.DefaultClient is used.
func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger. If not provided, logs are discarded.
func WithLogger(l log.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithBatchSize lowers the number of events submitted per batch call.
func WithBatchSize(n int) Option {
	return func(cl *Client) { cl.batchSize = n }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// New creates a client for the API at baseURL authenticating with token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   u,
		token:     token,
		http:      http.DefaultClient,
		logger:    log.NewNoopLogger(),
		batchSize: MaxBatchSize,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.batchSize < 1 || c.batchSize > MaxBatchSize {
		return nil, ErrInvalidBatchSize
	}
	return c, nil
}

// Request sends method to path, relative to the base URL. A non-nil body is
// encoded as JSON; a non-nil out receives the decoded JSON response.
// Any non-2xx response is returned as an *HTTPError.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response for %s %s: %w", method, path, err)
	}

	if resp.StatusCode/100 != 2 {
		return newHTTPError(method, path, resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return nil
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Request(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Request(ctx, http.MethodDelete, path, nil, out)
}
