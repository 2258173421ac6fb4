package shopify

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig controls how transient Admin API failures are retried.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         float64
	RetryStatuses  []int
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryStatuses: []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

func (r RetryConfig) retryable(status int) bool {
	for _, code := range r.RetryStatuses {
		if status == code {
			return true
		}
	}
	return false
}

func (r RetryConfig) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}

	backoff := float64(r.InitialBackoff) * math.Pow(r.BackoffFactor, float64(attempt))
	if r.Jitter > 0 {
		backoff += backoff * r.Jitter * (rand.Float64()*2 - 1)
	}
	if backoff > float64(r.MaxBackoff) {
		backoff = float64(r.MaxBackoff)
	}
	return time.Duration(backoff)
}

// parseRetryAfter reads Retry-After as seconds or an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	if t, err := http.ParseTime(value); err == nil {
		return time.Until(t)
	}
	return 0
}
