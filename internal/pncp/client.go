package pncp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pncpx/internal/logging"
	"pncpx/internal/services"
)

const publicationEndpoint = "/v1/contratacoes/publicacao"

// Client fetches consultation pages from the PNCP API.
type Client struct {
	baseURL    string
	userAgent  string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy sets the attempt limit and linear backoff base for
// transient failures.
func WithRetryPolicy(maxRetries int, backoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent != "" {
			c.userAgent = agent
		}
	}
}

// WithLogger attaches a logger for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.WithComponent(logger, "pncp")
		}
	}
}

// New creates a consultation API client.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("pncp base url must be absolute, got %q", baseURL)
	}
	client := &Client{
		baseURL:    baseURL,
		userAgent:  "pncpx",
		maxRetries: 5,
		backoff:    2 * time.Second,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchPage retrieves one publication page, retrying transient failures with
// linear backoff. Non-retryable HTTP statuses surface immediately as a
// configuration error; exhausted retries surface as a transient error.
func (c *Client) FetchPage(ctx context.Context, query Query, page int) (*Page, error) {
	endpoint, err := url.Parse(c.baseURL + publicationEndpoint)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pncp", "fetch", "parse endpoint", err)
	}
	params := query.Values()
	params.Set("pagina", strconv.Itoa(page))
	params.Set("tamanhoPagina", strconv.Itoa(PageSize))
	endpoint.RawQuery = params.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		result, retryable, err := c.fetchOnce(ctx, endpoint.String())
		if err == nil {
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		if attempt == c.maxRetries {
			break
		}

		wait := c.backoff * time.Duration(attempt)
		c.logger.Warn("page fetch failed, retrying",
			logging.Int(logging.FieldPage, page),
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
			logging.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, services.Wrap(services.ErrTransient, "pncp", "fetch",
		fmt.Sprintf("page %d failed after %d attempts", page, c.maxRetries), lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (*Page, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, services.Wrap(services.ErrConfiguration, "pncp", "fetch", "build request", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		// The API signals no data for the filters with 204.
		return &Page{}, false, nil
	case resp.StatusCode == http.StatusOK:
		var payload envelope
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, true, fmt.Errorf("decode response: %w", err)
		}
		if payload.Empty {
			return &Page{TotalPages: payload.TotalPaginas}, false, nil
		}
		return &Page{Records: payload.Data, TotalPages: payload.TotalPaginas}, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("api returned %d", resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, services.Wrap(services.ErrConfiguration, "pncp", "fetch",
			fmt.Sprintf("api rejected request with %d: %s", resp.StatusCode, string(body)), nil)
	}
}
