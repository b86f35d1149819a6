package daminion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/damtag-cli/internal/logger"
)

// maxErrorBody limits how much of an error response body is kept for the
// error message.
const maxErrorBody = 512

// executor is the single funnel for all outbound requests of one session.
// It enforces the minimum inter-request interval across all concurrent
// callers, classifies failures into typed errors, and retries transient
// ones per the configured policy.
type executor struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	retry   RetryPolicy

	mu      sync.Mutex
	cookies map[string]string
}

// newExecutor creates an executor for a normalized base URL.
func newExecutor(baseURL string, interval, timeout time.Duration, retry RetryPolicy) *executor {
	return &executor{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		retry:   retry,
		cookies: make(map[string]string),
	}
}

// call performs an API request and returns the raw JSON response body.
// Query parameters are percent-encoded; values containing spaces or
// punctuation must never be interpolated into the path by callers.
func (e *executor) call(ctx context.Context, method, path string, params url.Values, body any) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		raw, err := e.callOnce(ctx, method, path, params, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !retryable(err) || attempt == e.retry.MaxAttempts {
			break
		}

		delay := e.retry.Delay(attempt)
		logger.Debug("daminion: %s %s failed (attempt %d/%d), retrying in %s: %v",
			method, path, attempt, e.retry.MaxAttempts, delay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (e *executor) callOnce(ctx context.Context, method, path string, params url.Values, body any) (json.RawMessage, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := e.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if cookie := e.cookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	e.storeCookies(resp.Cookies())

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	// Errors carry the URL without its query string: login parameters
	// include credentials and must never leak into messages or logs.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorSnippet(data),
			URL:        e.baseURL + path,
		}
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	// An HTML body on a 200 means we were redirected to the login page:
	// the session has expired.
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("<")) {
		return nil, &APIError{
			StatusCode: http.StatusUnauthorized,
			Message:    "session expired (server returned a login page)",
			URL:        e.baseURL + path,
		}
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("daminion: invalid JSON response from %s", e.baseURL+path)
	}
	return json.RawMessage(data), nil
}

// cookieHeader renders the stored session cookies as a Cookie header value.
func (e *executor) cookieHeader() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var b bytes.Buffer
	for name, value := range e.cookies {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
	}
	return b.String()
}

func (e *executor) storeCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range cookies {
		e.cookies[c.Name] = c.Value
	}
}

func (e *executor) cookieCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cookies)
}

func (e *executor) clearCookies() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cookies = make(map[string]string)
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

func errorSnippet(body []byte) string {
	s := string(bytes.TrimSpace(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	if s == "" {
		return "no response body"
	}
	return s
}
