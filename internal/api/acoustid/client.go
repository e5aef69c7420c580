package acoustid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"squid-downloader/internal/shared"
)

// 1. Constants and types
const (
	defaultBaseURL  = "https://api.acoustid.org/v2"
	defaultTimeout  = 30 * time.Second
	minMatchScore   = 0.5 // lookup results below this are noise
	defaultRecLimit = 5
)

// RecordingRef is one recording attached to a lookup result.
type RecordingRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Result is one fingerprint match from the lookup endpoint.
type Result struct {
	ID         string         `json:"id"`
	Score      float64        `json:"score"`
	Recordings []RecordingRef `json:"recordings"`
}

type lookupResponse struct {
	Status  string   `json:"status"`
	Results []Result `json:"results"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the AcoustID web service. Lookups share the same pacer as
// the registry client so the two services together stay under the minimum
// call interval.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	pacer      *shared.Pacer
	fpcalc     *Fpcalc
}

// 2. Constructor

// NewClient creates an AcoustID client. apiKey may be empty, in which case
// Ready reports false and lookups fail fast.
func NewClient(apiKey string, fpcalc *Fpcalc, pacer *shared.Pacer) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		pacer:  pacer,
		fpcalc: fpcalc,
	}
}

// SetBaseURL overrides the service URL, used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Ready reports whether fingerprint identification can work at all: an API
// key is configured and the fpcalc executable runs.
func (c *Client) Ready() bool {
	return c.apiKey != "" && c.fpcalc != nil && c.fpcalc.Available()
}

// 3. Public API methods

// Lookup queries AcoustID with a precomputed fingerprint and returns raw
// match results, best score first.
func (c *Client) Lookup(ctx context.Context, fp *Fingerprint) ([]Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("no AcoustID API key configured")
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("pacer wait failed: %w", err)
		}
	}

	params := url.Values{}
	params.Set("client", c.apiKey)
	params.Set("meta", "recordings")
	params.Set("duration", fmt.Sprintf("%d", int(fp.Duration)))
	params.Set("fingerprint", fp.Fingerprint)

	reqURL := fmt.Sprintf("%s/lookup?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", shared.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("AcoustID lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    shared.TruncateString(string(body), 200),
		}
	}

	var lookup lookupResponse
	if err := json.Unmarshal(body, &lookup); err != nil {
		return nil, fmt.Errorf("failed to parse lookup response: %w", err)
	}
	if lookup.Status != "ok" {
		return nil, fmt.Errorf("AcoustID error: %s", lookup.Error.Message)
	}

	return lookup.Results, nil
}

// Identify fingerprints the audio file and returns the MBID of the best
// matched recording plus the AcoustID track identifier itself, or empty
// strings when nothing scored well enough.
func (c *Client) Identify(ctx context.Context, filePath string) (recordingID, acoustID string, err error) {
	fp, err := c.fpcalc.Calculate(ctx, filePath)
	if err != nil {
		return "", "", err
	}

	results, err := c.Lookup(ctx, fp)
	if err != nil {
		return "", "", err
	}

	var best *Result
	for i := range results {
		if results[i].Score < minMatchScore || len(results[i].Recordings) == 0 {
			continue
		}
		if best == nil || results[i].Score > best.Score {
			best = &results[i]
		}
	}
	if best == nil {
		return "", "", nil
	}

	shared.DebugPrintf("AcoustID matched %s with score %.2f", best.Recordings[0].ID, best.Score)
	return best.Recordings[0].ID, best.ID, nil
}
