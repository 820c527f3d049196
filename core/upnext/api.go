package upnext

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"Bt1QPlayer/model"
)

// APIClient asks the metadata API for up-next tracks.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIClient creates a client for METADATA_API_URL. limiter may be nil.
func NewAPIClient(baseURL string, timeout time.Duration, limiter *rate.Limiter) *APIClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

type nextResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Data    []model.Track `json:"data"`
}

func (c *APIClient) Name() string { return "api" }

// UpNext calls GET /next/{mediaId}.
func (c *APIClient) UpNext(ctx context.Context, mediaID string) ([]model.Track, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := fmt.Sprintf("%s/next/%s", c.baseURL, url.PathEscape(mediaID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build up-next request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("up-next request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("up-next request: unexpected status %d", resp.StatusCode)
	}

	var body nextResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode up-next: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("up-next: %s", body.Error)
	}
	return body.Data, nil
}
