package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/clearcomms/linecheck/internal/domain"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_searches_total",
			Help: "Total number of availability searches by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "availability_search_duration_seconds",
			Help:    "End-to-end duration of create-plus-poll availability searches",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)
)

// Client is an availability provider the review pipeline can search against.
type Client interface {
	// Name identifies the provider in offers, logs, and metrics.
	Name() string

	// CreateSearch submits an asynchronous availability search and returns
	// its job handle.
	CreateSearch(ctx context.Context, req domain.SearchRequest) (domain.SearchJob, error)

	// PollResults waits for the given job to reach a terminal state and
	// returns the raw quotes.
	PollResults(ctx context.Context, job domain.SearchJob) ([]domain.RawQuote, error)
}

// Doer executes HTTP requests. Satisfied by both httpclient.Client and
// httpclient.CircuitBreakerClient.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// AuthFunc attaches provider credentials to an outbound request.
type AuthFunc func(ctx context.Context, req *http.Request) error

// StaticKeyAuth authenticates with a fixed API key, the ITS-style scheme.
func StaticKeyAuth(key string) AuthFunc {
	return func(_ context.Context, req *http.Request) error {
		req.Header.Set("Authorization", key)
		return nil
	}
}

// BearerAuth authenticates with an OAuth bearer token from the given source,
// the Zen-style scheme. Token refresh failures surface as AuthError.
func BearerAuth(ts *TokenSource) AuthFunc {
	return func(ctx context.Context, req *http.Request) error {
		token, err := ts.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

// Config holds the per-provider settings for a SearchClient.
type Config struct {
	Name         string
	BaseURL      string
	PollAttempts int
	PollDelay    time.Duration
}

// SearchClient talks to one ITS- or Zen-shaped availability API: create a
// search job, then poll its results endpoint until the search completes.
type SearchClient struct {
	cfg    Config
	http   Doer
	auth   AuthFunc
	logger *slog.Logger
}

// NewSearchClient creates a provider client. The auth strategy and transport
// are injected so one implementation covers both provider shapes.
func NewSearchClient(cfg Config, auth AuthFunc, doer Doer, logger *slog.Logger) *SearchClient {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = DefaultPollAttempts
	}
	if cfg.PollDelay <= 0 {
		cfg.PollDelay = DefaultPollDelay
	}
	return &SearchClient{
		cfg:    cfg,
		http:   doer,
		auth:   auth,
		logger: logger,
	}
}

// Name returns the provider name.
func (c *SearchClient) Name() string {
	return c.cfg.Name
}

// createResponse is the provider's create-search success body.
type createResponse struct {
	Data struct {
		UUID string `json:"uuid"`
	} `json:"data"`
}

// resultsResponse is the provider's poll body. A search is terminal when the
// status says so or quotes have appeared, whichever comes first.
type resultsResponse struct {
	Data struct {
		Status string            `json:"status"`
		Quotes []domain.RawQuote `json:"quotes"`
	} `json:"data"`
}

func (r resultsResponse) terminal() bool {
	return r.Data.Status == "complete" || len(r.Data.Quotes) > 0
}

// CreateSearch submits the search request and returns the provider's job handle.
func (c *SearchClient) CreateSearch(ctx context.Context, req domain.SearchRequest) (domain.SearchJob, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.SearchJob{}, &ProviderError{Provider: c.cfg.Name, Err: fmt.Errorf("marshal search request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/availability/search/create", bytes.NewReader(payload))
	if err != nil {
		return domain.SearchJob{}, &ProviderError{Provider: c.cfg.Name, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := c.auth(ctx, httpReq); err != nil {
		return domain.SearchJob{}, err
	}

	var created createResponse
	if err := c.doJSON(ctx, httpReq, &created); err != nil {
		searchesTotal.WithLabelValues(c.cfg.Name, "create_error").Inc()
		return domain.SearchJob{}, err
	}
	if created.Data.UUID == "" {
		searchesTotal.WithLabelValues(c.cfg.Name, "create_error").Inc()
		return domain.SearchJob{}, &ProviderError{Provider: c.cfg.Name, Err: fmt.Errorf("create response missing job uuid")}
	}

	c.logger.DebugContext(ctx, "availability search created",
		slog.String("provider", c.cfg.Name),
		slog.String("job_id", created.Data.UUID),
		slog.String("postcode", req.Postcode),
	)

	return domain.SearchJob{
		ID:        created.Data.UUID,
		Status:    domain.JobPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// PollResults polls the job's results endpoint until the search is terminal,
// then returns the raw quotes unchanged.
func (c *SearchClient) PollResults(ctx context.Context, job domain.SearchJob) ([]domain.RawQuote, error) {
	start := time.Now()

	fetch := func(ctx context.Context) (resultsResponse, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/availability/search/results/"+job.ID, http.NoBody)
		if err != nil {
			return resultsResponse{}, &ProviderError{Provider: c.cfg.Name, Err: fmt.Errorf("create poll request: %w", err)}
		}
		if err := c.auth(ctx, httpReq); err != nil {
			return resultsResponse{}, err
		}

		var results resultsResponse
		if err := c.doJSON(ctx, httpReq, &results); err != nil {
			return resultsResponse{}, err
		}
		return results, nil
	}

	results, err := Poll(ctx, fetch, resultsResponse.terminal, c.cfg.PollAttempts, c.cfg.PollDelay)
	if err != nil {
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			timeoutErr.Provider = c.cfg.Name
			searchesTotal.WithLabelValues(c.cfg.Name, "timeout").Inc()
		} else {
			searchesTotal.WithLabelValues(c.cfg.Name, "poll_error").Inc()
		}
		return nil, err
	}

	searchesTotal.WithLabelValues(c.cfg.Name, "complete").Inc()
	searchDuration.WithLabelValues(c.cfg.Name).Observe(time.Since(start).Seconds())

	c.logger.DebugContext(ctx, "availability search complete",
		slog.String("provider", c.cfg.Name),
		slog.String("job_id", job.ID),
		slog.Int("quotes", len(results.Data.Quotes)),
	)

	return results.Data.Quotes, nil
}

// doJSON executes the request and decodes a 2xx JSON body into out. Non-2xx
// responses become ProviderError carrying the upstream status and body.
func (c *SearchClient) doJSON(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return &ProviderError{Provider: c.cfg.Name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &ProviderError{Provider: c.cfg.Name, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{Provider: c.cfg.Name, Status: resp.StatusCode, Body: errorBody(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{Provider: c.cfg.Name, Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorBody extracts the message from a JSON error body when there is one,
// otherwise returns the raw text.
func errorBody(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return string(body)
}
