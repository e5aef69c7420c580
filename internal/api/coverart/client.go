package coverart

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"squid-downloader/internal/shared"
)

const (
	defaultBaseURL = "https://coverartarchive.org"
	defaultTimeout = 30 * time.Second
)

// Client fetches front cover images from the Cover Art Archive. Missing
// artwork is an expected condition, not an error worth failing a tag run
// over, so callers generally treat a nil result as "no art".
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Cover Art Archive client with defaults
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithBaseURL creates a client against a custom archive URL
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// GetFrontCover fetches the 250px front cover for a release MBID. It returns
// the image bytes, or nil with no error when the archive has no art for the
// release.
func (c *Client) GetFrontCover(ctx context.Context, releaseMBID string) ([]byte, error) {
	if releaseMBID == "" {
		return nil, fmt.Errorf("release MBID cannot be empty")
	}

	url := fmt.Sprintf("%s/release/%s/front-250.jpg", c.baseURL, releaseMBID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", shared.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cover art: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    fmt.Sprintf("cover art request for release %s failed", releaseMBID),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover art data: %w", err)
	}

	return data, nil
}
