// Package githubapi implements the upstream hosting-API collaborator
// against the GitHub REST v3 API. It satisfies the extraction service's
// Hub and RepoHandle interfaces and keeps its own request discipline:
// a shared client-side rate limiter and typed HTTP errors that the retry
// policy can classify.
package githubapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"gitmeta/internal/resilience/retry"
	"gitmeta/internal/usecase/extract"
	pkgconfig "gitmeta/pkg/config"
)

// Config holds the configuration for the GitHub API client.
type Config struct {
	// BaseURL is the API root, overridable for tests and GitHub Enterprise.
	BaseURL string

	// Token is the optional bearer token. Unauthenticated requests work but
	// are subject to much lower upstream rate limits.
	Token string

	// UserAgent is sent with every request; GitHub requires one.
	UserAgent string

	// PerPage is the page size for listing endpoints.
	PerPage int

	// RequestsPerSecond throttles outgoing calls client-side.
	RequestsPerSecond float64

	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.github.com",
		UserAgent:         "gitmeta/1.0",
		PerPage:           30,
		RequestsPerSecond: 5,
		Timeout:           30 * time.Second,
	}
}

// LoadConfigFromEnv builds the client configuration from environment
// variables, falling back to defaults.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.BaseURL = pkgconfig.GetEnvString("GITHUB_API_BASE_URL", cfg.BaseURL)
	cfg.Token = pkgconfig.GetEnvString("GITHUB_TOKEN", "")
	cfg.UserAgent = pkgconfig.GetEnvString("DEFAULT_USER_AGENT", cfg.UserAgent)
	cfg.PerPage = pkgconfig.GetEnvInt("GITHUB_API_PER_PAGE", cfg.PerPage)
	cfg.Timeout = pkgconfig.GetEnvDuration("GITHUB_API_TIMEOUT", cfg.Timeout)
	return cfg
}

// Client is a GitHub REST v3 API client.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a GitHub API client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 30
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
	}
}

// ResolveRepository fetches the repository object and returns a handle for
// subsequent operations. The fetched payload is reused by Facts so the
// handle does not re-query for data it already has.
func (c *Client) ResolveRepository(ctx context.Context, fullName string) (extract.RepoHandle, error) {
	var raw repoJSON
	if err := c.get(ctx, "/repos/"+fullName, nil, &raw); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", fullName, err)
	}
	return &repoHandle{client: c, fullName: fullName, raw: raw}, nil
}

// get performs a rate-limited GET against the API and decodes the JSON
// response into v. Non-2xx responses become *retry.HTTPError so the retry
// policy and callers can classify them by status code.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded amount of the body for the error message.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("GET %s: %s", path, string(body)),
		}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// paged iterates a listing endpoint until limit items have been collected
// or the upstream runs out of pages.
func paged[T any](ctx context.Context, c *Client, path string, query url.Values, limit int) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", strconv.Itoa(c.cfg.PerPage))

	var items []T
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))

		var batch []T
		if err := c.get(ctx, path, query, &batch); err != nil {
			return nil, err
		}
		items = append(items, batch...)

		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if len(batch) < c.cfg.PerPage {
			return items, nil
		}
	}
}

// isNotFound reports whether err is an upstream 404.
func isNotFound(err error) bool {
	var httpErr *retry.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// decodeContents decodes a contents-API payload, which carries file bytes
// base64-encoded.
func decodeContents(payload contentsJSON) ([]byte, error) {
	if payload.Encoding != "base64" {
		return []byte(payload.Content), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(stripNewlines(payload.Content))
	if err != nil {
		return nil, fmt.Errorf("decode file contents: %w", err)
	}
	return decoded, nil
}

func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
