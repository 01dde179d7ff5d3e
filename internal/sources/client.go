package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

// client is the shared HTTP plumbing: one limiter per adapter so every
// request to a service respects its published rate limit
type client struct {
	source     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newClient(source string, opts Options) *client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}

	return &client{
		source:     source,
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		httpClient: hc,
		limiter:    limiter,
	}
}

// get fetches baseURL+path with params and returns the body. Non-200
// responses are errors.
func (c *client) get(ctx context.Context, path string, params url.Values, accept string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, u, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, u, fmt.Errorf("failed to fetch from %s: %w", c.source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, u, fmt.Errorf("failed to read %s response: %w", c.source, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, u, fmt.Errorf("%s returned status %d: %s", c.source, resp.StatusCode, truncate(string(body), 200))
	}

	return body, u, nil
}

func (c *client) getJSON(ctx context.Context, path string, params url.Values, v any) (string, error) {
	body, u, err := c.get(ctx, path, params, "application/json")
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return u, fmt.Errorf("failed to decode %s response: %w", c.source, err)
	}
	return u, nil
}

func (c *client) close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
