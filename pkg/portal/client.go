// Package portal provides a client for posting certificate review decisions
// back to the supplier portal.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/coi-cli/internal/model"
	"github.com/sells-group/coi-cli/internal/resilience"
)

// Client defines the portal operations.
type Client interface {
	// PostDecision approves the document when d.Status is true and rejects
	// it with d.Message otherwise.
	PostDecision(ctx context.Context, documentID string, d model.Decision) error
}

// Option configures the portal client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a portal client for baseURL authenticated with token.
func NewClient(baseURL, token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		retry:   resilience.NewPolicy(3, 1000),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type decisionRequest struct {
	Action  model.Action `json:"action"`
	Message string       `json:"message,omitempty"`
}

func (c *httpClient) PostDecision(ctx context.Context, documentID string, d model.Decision) error {
	if documentID == "" {
		return eris.New("portal: document id is required")
	}

	req := decisionRequest{Action: model.ActionApprove}
	if !d.Status {
		req.Action = model.ActionReject
		req.Message = d.Message
	}
	body, err := json.Marshal(req)
	if err != nil {
		return eris.Wrap(err, "portal: marshal decision")
	}
	endpoint := c.baseURL + "/documents/" + url.PathEscape(documentID) + "/decision"

	p := c.retry
	p.OnRetry = resilience.LogRetries("portal decision", zap.String("document", documentID))
	return resilience.Do(ctx, p, func(ctx context.Context) error {
		return c.post(ctx, endpoint, body)
	})
}

func (c *httpClient) post(ctx context.Context, endpoint string, body []byte) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "portal: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "portal: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "portal: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resilience.CheckStatus("portal: post decision", resp.StatusCode, respBody)
}
