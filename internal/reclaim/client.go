package reclaim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

const DefaultBaseURL = "https://api.app.reclaim.ai"

// ErrUnauthorized is returned when the API rejects the configured token.
var ErrUnauthorized = errors.New("reclaim: authentication failed")

// APIError is a non-2xx response from the task API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reclaim API error: %d %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ClientConfig configures the task API client.
type ClientConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration

	BreakerEnabled          bool
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
}

// Client reads tasks and events from the task API. It never writes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tasks      *gobreaker.CircuitBreaker[[]byte]
	events     *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient builds a client that authenticates every request with the static
// bearer token from cfg.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Base:   http.DefaultTransport,
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			},
		},
		logger: logger,
		now:    time.Now,
	}

	if cfg.BreakerEnabled {
		c.tasks = newBreaker("reclaim-tasks", cfg, logger)
		c.events = newBreaker("reclaim-events", cfg, logger)
	}
	return c
}

// newBreaker trips on consecutive upstream outages only. Client errors
// (4xx, rejected token) and caller cancellation leave the counts alone.
func newBreaker(name string, cfg ClientConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Timeout:      cfg.BreakerOpenTimeout,
		IsSuccessful: countsAsSuccess,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, ErrUnauthorized) || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

// ListTasks returns every task visible to the token.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	body, err := c.get(ctx, c.tasks, "/api/tasks", nil)
	if err != nil {
		return nil, err
	}
	var tasks []Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	return tasks, nil
}

// ListEvents returns events between the calendar days of start and end,
// optionally restricted to the given task ids.
func (c *Client) ListEvents(ctx context.Context, start, end time.Time, taskIDs []int64) ([]Event, error) {
	params := url.Values{}
	params.Set("start", start.Format("2006-01-02"))
	params.Set("end", end.Format("2006-01-02"))
	params.Set("allConnected", "true")
	if len(taskIDs) > 0 {
		ids := make([]string, len(taskIDs))
		for i, id := range taskIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		params.Set("taskIds", strings.Join(ids, ","))
	}

	body, err := c.get(ctx, c.events, "/api/events", params)
	if err != nil {
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	return events, nil
}

// ListFutureEvents returns the events of one task that start after the call
// time and no later than horizon from today.
func (c *Client) ListFutureEvents(ctx context.Context, taskID int64, horizon time.Duration) ([]Event, error) {
	now := c.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	events, err := c.ListEvents(ctx, today, today.Add(horizon), []int64{taskID})
	if err != nil {
		return nil, err
	}
	future := events[:0]
	for _, e := range events {
		if e.Start != nil && e.Start.After(now) {
			future = append(future, e)
		}
	}
	return future, nil
}

func (c *Client) get(ctx context.Context, breaker *gobreaker.CircuitBreaker[[]byte], path string, params url.Values) ([]byte, error) {
	if breaker == nil {
		return c.doGet(ctx, path, params)
	}
	body, err := breaker.Execute(func() ([]byte, error) {
		return c.doGet(ctx, path, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("reclaim API unavailable: %w", err)
	}
	return body, err
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	c.logger.Debug("reclaim request", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, strings.TrimSpace(string(body)))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
