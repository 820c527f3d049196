package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
)

// ErrNotFound means the provider has no timed lyrics for the track.
var ErrNotFound = errors.New("lyrics: not found")

// Client talks to the metadata API's lyrics endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a lyrics client. limiter may be nil.
func NewClient(baseURL string, timeout time.Duration, limiter *rate.Limiter) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

type lyricsResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Lines []model.LyricLine `json:"lines"`
		// Synced is an LRC document some providers return instead of lines.
		Synced string `json:"synced,omitempty"`
	} `json:"data"`
}

// Lookup fetches synced lyrics for artist and title.
func (c *Client) Lookup(ctx context.Context, artist, title string) ([]model.LyricLine, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrNotFound
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("artist", artist)
	q.Set("title", title)
	q.Set("synced", "1")
	endpoint := fmt.Sprintf("%s/lyrics?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build lyrics request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lyrics request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lyrics request: unexpected status %d", resp.StatusCode)
	}

	var body lyricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode lyrics: %w", err)
	}
	if !body.Success {
		logger.Debug("lyrics provider miss", logger.String("title", title), logger.String("error", body.Error))
		return nil, ErrNotFound
	}

	lines := body.Data.Lines
	if len(lines) == 0 && body.Data.Synced != "" {
		lines = ParseLRC(body.Data.Synced)
	}
	lines = Normalize(lines)
	if len(lines) == 0 {
		return nil, ErrNotFound
	}
	return lines, nil
}
