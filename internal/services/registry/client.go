// Package registry reads the list of provisioned stores from the external
// store registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hydrogen-admin/internal/models"
)

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether a registry URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Stores fetches {stores: [...]} from the registry.
func (c *Client) Stores(ctx context.Context) ([]models.Store, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach store registry: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store registry returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Stores []models.Store `json:"stores"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}
	return payload.Stores, nil
}
