package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recentDeploymentsPath = "/api/professional/recent-deployments"

// RemoteDeployment is one descriptor from the professional deployments feed.
// Modules arrives as a JSON-encoded string, matching how the platform stores
// the column.
type RemoteDeployment struct {
	DeploymentID  string  `json:"deployment_id"`
	CompanyName   string  `json:"company_name"`
	TemplateName  string  `json:"template_name"`
	WorkerCount   int     `json:"worker_count"`
	Revenue       float64 `json:"revenue"`
	Modules       string  `json:"modules"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	DeploymentURL string  `json:"deployment_url"`
}

// ParseModules decodes the serialized module list, reporting ok=false when
// the field is empty or malformed.
func (d RemoteDeployment) ParseModules() ([]string, bool) {
	if strings.TrimSpace(d.Modules) == "" {
		return nil, false
	}
	var modules []string
	if err := json.Unmarshal([]byte(d.Modules), &modules); err != nil {
		return nil, false
	}
	return modules, true
}

// Client fetches deployment descriptors from the remote platform.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the platform base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, fmt.Errorf("feed base url is required")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid feed base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// RecentDeployments fetches the current feed. A missing deployments array is
// equivalent to an empty feed.
func (c *Client) RecentDeployments(ctx context.Context) ([]RemoteDeployment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+recentDeploymentsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	var payload struct {
		Deployments []RemoteDeployment `json:"deployments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Deployments, nil
}
