// Package checkout integrates the hosted payment provider: session
// creation, redirect parsing and the exactly-once credit reconciliation.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vmelnikov/filedrop/internal/common"
)

// CreateSessionRequest is the provider's session-creation payload.
type CreateSessionRequest struct {
	PackageID string `json:"packageId"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

// CreateSessionResponse carries the hosted checkout redirect target.
type CreateSessionResponse struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// SessionCreator abstracts the provider call for tests.
type SessionCreator interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error)
}

// Client is the HTTP session creator for the real provider endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateSession posts the request and validates that the provider returned
// a redirect url. Anything else fails with common.ErrCheckoutInitiation.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCheckoutInitiation, err)
	}
	defer resp.Body.Close()

	var parsed CreateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", common.ErrCheckoutInitiation, err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("%w: %s", common.ErrCheckoutInitiation, parsed.Error)
	}
	if parsed.URL == "" {
		return nil, fmt.Errorf("%w: provider returned no redirect url", common.ErrCheckoutInitiation)
	}
	return &parsed, nil
}
