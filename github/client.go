// Package github implements the paginated, rate-limit-aware client for the
// GitHub v3 REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"repocompare/logger"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "repocompare-data-loader"
	acceptHeader   = "application/vnd.github.v3+json"

	// GitHub's maximum page size.
	perPage = 100

	// Total tries per request when the host reports quota exhaustion.
	defaultMaxAttempts = 4
)

// Client issues authenticated GET requests against the GitHub API and
// assembles complete paginated result sets. The token is held explicitly
// by the instance; an empty token sends unauthenticated requests.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    *url.URL

	limiter     *rate.Limiter
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client with a 30 second per-request timeout and a
// conservative request pacer well under the authenticated quota.
func NewClient(token string) *Client {
	baseURL, _ := url.Parse(defaultBaseURL)
	logger.Info("initializing github client",
		zap.String("base_url", baseURL.String()),
		zap.Bool("authenticated", token != ""))
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     baseURL,
		limiter:     rate.NewLimiter(rate.Limit(5), 10),
		maxAttempts: defaultMaxAttempts,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// getPage fetches a single page, decodes its body into v, and returns the
// URL of the next page ("" when the sequence ends). Rate-limited responses
// are retried with backoff before being surfaced.
func (c *Client) getPage(ctx context.Context, pageURL string, v any) (string, error) {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrNetwork, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", acceptHeader)
		if c.token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("token %s", c.token))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logger.Error("request failed", zap.String("url", pageURL), zap.Error(err))
			return "", fmt.Errorf("%w: %v", ErrNetwork, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNetwork, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			cerr := classifyStatus(resp.StatusCode, string(body))
			if errors.Is(cerr, ErrRateLimited) && attempt < c.maxAttempts {
				wait := backoffWait(attempt, resp.Header.Get("X-RateLimit-Reset"))
				logger.Warn("rate limited, backing off",
					zap.String("url", pageURL),
					zap.Int("attempt", attempt),
					zap.Duration("wait", wait))
				if err := c.sleep(ctx, wait); err != nil {
					return "", fmt.Errorf("%w: %v", ErrNetwork, err)
				}
				continue
			}
			logger.Error("github api error",
				zap.String("url", pageURL),
				zap.Int("status_code", resp.StatusCode))
			return "", cerr
		}

		// A 202 while the host is still computing statistics carries no
		// body; treat it as an empty page.
		if len(body) == 0 {
			return "", nil
		}
		if err := json.Unmarshal(body, v); err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return parseLinkHeader(resp.Header.Get("Link")), nil
	}
}

// classifyStatus maps a non-2xx response to the client error taxonomy. A
// 403 only counts as rate limiting when the body says so; other 403s stay
// generic API errors.
func classifyStatus(status int, body string) error {
	switch {
	case status == http.StatusForbidden && strings.Contains(body, "rate limit exceeded"):
		return ErrRateLimited
	case status == http.StatusNotFound:
		return ErrNotFound
	default:
		return &APIError{Status: status, Body: body}
	}
}

// backoffWait picks the retry delay: exponential from the attempt number,
// stretched to the host-provided quota reset time when that is later.
func backoffWait(attempt int, resetHeader string) time.Duration {
	wait := time.Duration(1<<(attempt-1)) * time.Second
	if resetHeader != "" {
		if reset, err := strconv.ParseInt(resetHeader, 10, 64); err == nil {
			if until := time.Until(time.Unix(reset, 0)); until > wait {
				wait = until
			}
		}
	}
	return wait
}
