package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"Bt1QPlayer/model"
)

// APIPlugin searches the metadata API catalogue.
type APIPlugin struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewAPIPlugin(baseURL string, timeout time.Duration, limiter *rate.Limiter) *APIPlugin {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &APIPlugin{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

func (p *APIPlugin) Source() string { return "api" }

func (p *APIPlugin) Search(ctx context.Context, query string, limit int) ([]model.Track, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Success bool          `json:"success"`
		Error   string        `json:"error,omitempty"`
		Data    []model.Track `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("search: %s", body.Error)
	}
	return body.Data, nil
}
