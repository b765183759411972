package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AddressResolver reports the origin address the per-address account limit
// is evaluated against.
type AddressResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// StaticResolver always returns a fixed address. Used for the config
// override and as a test double.
type StaticResolver string

func (r StaticResolver) Resolve(context.Context) (string, error) {
	return string(r), nil
}

// HTTPResolver queries an ipify-shaped endpoint ({"ip": "..."}) for the
// caller's public address.
type HTTPResolver struct {
	endpoint string
	client   *http.Client
}

func NewHTTPResolver(endpoint string) *HTTPResolver {
	return &HTTPResolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build address request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("address request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("address lookup returned %s", resp.Status)
	}

	var parsed struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode address response: %w", err)
	}
	if parsed.IP == "" {
		return "", fmt.Errorf("address lookup returned no ip")
	}
	return parsed.IP, nil
}
