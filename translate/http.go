package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// backoffUnit scales the exponential backoff between retries.
var backoffUnit = time.Second

// ---------------------------------------------------------------------------
// HTTP client with real proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both the proxy setting and HTTP_PROXY/HTTPS_PROXY env vars
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Retrying request loop
// ---------------------------------------------------------------------------

// retrier sends requests with bounded retries: transport errors and 5xx
// responses back off exponentially, 429 responses wait for the delay the
// server asks for.
type retrier struct {
	name       string
	client     *http.Client
	maxRetries int
	log        *slog.Logger
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
	url    *url.URL
}

// do builds a fresh request with newReq for every attempt and returns the
// first response that is not retried. Statuses other than 200 are returned
// to the caller without error once retries are exhausted or not applicable.
func (r *retrier) do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*response, error) {
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		req, err := newReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		r.log.Debug("sending request", "engine", r.name, "attempt", attempt+1, "method", req.Method, "url", req.URL.Redacted())

		resp, err := r.client.Do(req)
		if err != nil {
			if attempt < r.maxRetries {
				if err := sleep(ctx, backoff(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("%s request failed: %w", r.name, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s response: %w", r.name, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt < r.maxRetries {
				delay := parseRetryDelay(resp.Header, body)
				r.log.Warn("rate limited, waiting before retry", "engine", r.name, "delay", delay, "attempt", attempt+1, "max", r.maxRetries)
				if err := sleep(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("%s rate limited after %d retries: %s", r.name, r.maxRetries, truncate(string(body), 300))
		}

		if resp.StatusCode >= 500 && attempt < r.maxRetries {
			if err := sleep(ctx, backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		return &response{status: resp.StatusCode, body: body, url: resp.Request.URL}, nil
	}

	return nil, fmt.Errorf("%s: exhausted all %d retries", r.name, r.maxRetries)
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * backoffUnit
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ---------------------------------------------------------------------------
// Rate limit: parse 429 response for retry delay
// ---------------------------------------------------------------------------

// parseRetryDelay extracts the retry delay from a 429 response: the
// Retry-After header in seconds, or Google's RetryInfo detail in the body.
// Defaults to 60s + 5s buffer.
func parseRetryDelay(header http.Header, body []byte) time.Duration {
	const defaultDelay = 65 * time.Second

	if v := header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}

	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return defaultDelay
	}

	for _, detail := range errResp.Error.Details {
		if strings.Contains(detail.Type, "RetryInfo") && detail.RetryDelay != "" {
			// "30s", "45.123s"
			d := strings.TrimSuffix(detail.RetryDelay, "s")
			if secs, err := strconv.ParseFloat(d, 64); err == nil {
				return time.Duration(secs*1000)*time.Millisecond + 5*time.Second
			}
		}
	}

	return defaultDelay
}

// truncate truncates a string to maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
