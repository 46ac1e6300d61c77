package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ChuLiYu/aoc-runner/internal/metrics"
	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// DefaultBaseURL is the puzzle site root.
const DefaultBaseURL = "https://adventofcode.com"

// HTTPConfig configures HTTPClient.
type HTTPConfig struct {
	BaseURL   string
	Session   string // value of the "session" cookie
	UserAgent string
	Timeout   time.Duration
	Metrics   *metrics.Collector
}

// HTTPClient talks to the puzzle site with a session cookie.
type HTTPClient struct {
	baseURL   string
	session   string
	userAgent string
	client    *http.Client
	metrics   *metrics.Collector
}

// NewHTTPClient creates a client. Redirects are not followed: the site only
// redirects authenticated endpoints when the session is no longer valid.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.Session == "" {
		return nil, fmt.Errorf("session cookie is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", base, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(base, "/"),
		session:   cfg.Session,
		userAgent: cfg.UserAgent,
		metrics:   cfg.Metrics,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func (c *HTTPClient) dayURL(id types.UnitID, suffix string) string {
	return fmt.Sprintf("%s/%d/day/%d%s", c.baseURL, id.Year, id.Day, suffix)
}

func (c *HTTPClient) do(ctx context.Context, op, method, reqURL string, body io.Reader) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.AddCookie(&http.Cookie{Name: "session", Value: c.session})
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	c.metrics.ObserveRemote(op, time.Since(start))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, reqURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", ErrNetwork, reqURL, err)
	}
	return resp, data, nil
}

func authFailure(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect:
		return true
	}
	return false
}

// GetInput fetches /{year}/day/{day}/input verbatim.
func (c *HTTPClient) GetInput(ctx context.Context, id types.UnitID) (string, error) {
	resp, body, err := c.do(ctx, "input", http.MethodGet, c.dayURL(id, "/input"), nil)
	if err != nil {
		return "", err
	}
	if authFailure(resp.StatusCode) {
		return "", fmt.Errorf("%w: input %s returned %d", ErrAuthExpired, id, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: input %s returned %d: %s", ErrNetwork, id, resp.StatusCode,
			strings.TrimSpace(string(body)))
	}
	return string(body), nil
}

// GetStatus fetches and parses the day page.
func (c *HTTPClient) GetStatus(ctx context.Context, id types.UnitID) (types.StatusSnapshot, error) {
	resp, body, err := c.do(ctx, "status", http.MethodGet, c.dayURL(id, ""), nil)
	if err != nil {
		return types.StatusSnapshot{}, err
	}
	if authFailure(resp.StatusCode) {
		return types.StatusSnapshot{}, fmt.Errorf("%w: status %s returned %d", ErrAuthExpired, id, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return types.StatusSnapshot{}, fmt.Errorf("%w: status %s returned %d", ErrNetwork, id, resp.StatusCode)
	}
	snap, err := parseStatusPage(bytes.NewReader(body))
	if err != nil {
		return types.StatusSnapshot{}, fmt.Errorf("status %s: %w", id, err)
	}
	return snap, nil
}

// PostAnswer posts level=<part>&answer=<guess> to /{year}/day/{day}/answer.
func (c *HTTPClient) PostAnswer(ctx context.Context, id types.UnitID, part types.Part, guess string) (Submission, error) {
	if guess == "" {
		return Submission{}, fmt.Errorf("answer is required")
	}
	form := url.Values{
		"level":  {strconv.Itoa(int(part))},
		"answer": {guess},
	}
	resp, body, err := c.do(ctx, "answer", http.MethodPost, c.dayURL(id, "/answer"),
		strings.NewReader(form.Encode()))
	if err != nil {
		return Submission{}, err
	}
	if authFailure(resp.StatusCode) {
		return Submission{Verdict: types.VerdictAuthExpired}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Submission{}, fmt.Errorf("%w: answer %s %s returned %d", ErrNetwork, id, part, resp.StatusCode)
	}
	sub, err := parseAnswerPage(bytes.NewReader(body))
	if err != nil {
		return Submission{}, fmt.Errorf("answer %s %s: %w", id, part, err)
	}
	return sub, nil
}
