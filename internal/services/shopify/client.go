package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hydrogen-admin/internal/logger"

	"golang.org/x/time/rate"
)

const DefaultAPIVersion = "2025-07"

// Client talks to the Shopify Admin GraphQL API of a single shop.
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retry       RetryConfig
	logger      *logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default 30s timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the sustained request rate per second.
func WithRateLimit(perSecond int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient builds a client for shopURL, which may be a bare domain
// ("shop.myshopify.com") or a full origin.
func NewClient(shopURL, accessToken, apiVersion string, logger *logger.Logger, opts ...Option) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	c := &Client{
		endpoint:    GraphQLEndpoint(shopURL, apiVersion),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		retry:   DefaultRetryConfig(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GraphQLEndpoint builds <origin>/admin/api/<version>/graphql.json. A URL
// that already points at graphql.json is kept as is.
func GraphQLEndpoint(shopURL, apiVersion string) string {
	origin := strings.TrimRight(strings.TrimSpace(shopURL), "/")
	if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
		origin = "https://" + origin
	}
	if strings.HasSuffix(origin, "/graphql.json") {
		return origin
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", origin, apiVersion)
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// execute posts one GraphQL document, retrying throttled and unavailable
// responses. It returns the final body and HTTP status. Mutations are only
// resent after a 429 or THROTTLED answer, which Shopify gives before running
// anything; a 5xx or a dropped connection may follow a committed write.
func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}) ([]byte, int, error) {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}
	mutation := isMutation(query)

	var lastBody []byte
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limiter: %w", err)
		}

		body, status, retryAfter, err := c.post(ctx, payload)
		lastBody, lastStatus, lastErr = body, status, err

		if !c.shouldRetry(mutation, status, body, err) {
			if err != nil {
				return nil, status, err
			}
			return body, status, nil
		}
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		wait := c.retry.backoff(attempt, retryAfter)
		c.logger.Debug("Shopify request retry %d/%d in %s (status %d, err %v)", attempt+1, c.retry.MaxRetries, wait, status, err)

		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-time.After(wait):
		}
	}

	if lastErr != nil {
		return nil, lastStatus, lastErr
	}
	return lastBody, lastStatus, nil
}

func (c *Client) shouldRetry(mutation bool, status int, body []byte, err error) bool {
	if err == nil && (status == http.StatusTooManyRequests || throttled(body)) {
		return true
	}
	if mutation {
		return false
	}
	return err != nil || c.retry.retryable(status)
}

func isMutation(query string) bool {
	return strings.HasPrefix(strings.TrimSpace(query), "mutation")
}

func (c *Client) post(ctx context.Context, payload []byte) ([]byte, int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, parseRetryAfter(resp), nil
}

// throttled reports a 200 response whose errors carry the THROTTLED code.
func throttled(body []byte) bool {
	if !bytes.Contains(body, []byte("THROTTLED")) {
		return false
	}
	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	for _, e := range envelope.Errors {
		if e.Extensions != nil && e.Extensions.Code == "THROTTLED" {
			return true
		}
	}
	return false
}
