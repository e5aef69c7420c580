package qobuz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"squid-downloader/internal/shared"
)

// Constants for retry and rate limiting configuration
const (
	defaultRateLimit       = 250 * time.Millisecond // 4 req/sec
	defaultBurstLimit      = 8
	conservativeRateLimit  = 500 * time.Millisecond // 2 req/sec
	conservativeBurstLimit = 4

	maxRetries         = 5
	baseRetryDelay     = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	rateLimitThreshold = 10 // Adjust rate limit after this many consecutive 429s
)

// Fibonacci sequence for backoff delays
var fibonacciSequence = []int{1, 2, 3, 5, 8, 13, 21, 34}

// SquidAPI represents a client for the squid catalog proxy. The proxy is
// mirrored across several base URLs; a 502 from one mirror rotates the
// client to the next.
type SquidAPI struct {
	endpoints     []string
	client        *http.Client
	rateLimiter   *rate.Limiter
	rateLimitHits int
	mu            sync.Mutex
	active        int // index into endpoints, guarded by mu
}

// NewSquidAPI creates a new catalog client with default configuration. The
// primary endpoint goes first; any extra mirrors are used as fallbacks.
func NewSquidAPI(endpoint string, client *http.Client, mirrors ...string) *SquidAPI {
	endpoints := make([]string, 0, 1+len(mirrors))
	endpoints = append(endpoints, strings.TrimSuffix(endpoint, "/"))
	for _, m := range mirrors {
		endpoints = append(endpoints, strings.TrimSuffix(m, "/"))
	}
	return &SquidAPI{
		endpoints:   endpoints,
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Every(defaultRateLimit), defaultBurstLimit),
	}
}

// Request makes HTTP requests to the catalog proxy with retry handling
func (api *SquidAPI) Request(ctx context.Context, path string, isPathOnly bool, params []shared.QueryParam) (*http.Response, error) {
	// Wait for rate limiter permission
	if err := api.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	return api.requestWithRetry(ctx, path, isPathOnly, params)
}

// ============================================================================
// CORE HTTP METHODS (Private)
// ============================================================================

// activeEndpoint returns the currently selected mirror
func (api *SquidAPI) activeEndpoint() string {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.endpoints[api.active]
}

// rotateEndpoint advances to the next mirror after a bad gateway
func (api *SquidAPI) rotateEndpoint() {
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.endpoints) > 1 {
		api.active = (api.active + 1) % len(api.endpoints)
		shared.ColorWarning.Printf("⚠️ Catalog mirror unavailable, switching to %s\n", api.endpoints[api.active])
	}
}

// buildURL constructs the full URL for API requests against the given mirror
func (api *SquidAPI) buildURL(endpoint, path string, isPathOnly bool, params []shared.QueryParam) (*url.URL, error) {
	var fullURL string
	if isPathOnly {
		fullURL = fmt.Sprintf("%s/%s", endpoint, strings.TrimPrefix(path, "/"))
	} else {
		fullURL = path
	}

	u, err := url.Parse(fullURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}

	if len(params) > 0 {
		q := u.Query()
		for _, param := range params {
			q.Add(param.Name, param.Value)
		}
		u.RawQuery = q.Encode()
	}

	return u, nil
}

// fibonacciDelay calculates delay using Fibonacci sequence for more gradual backoff
func fibonacciDelay(attempt int, baseDelay time.Duration) time.Duration {
	if attempt < 0 {
		return baseDelay
	}

	if attempt >= len(fibonacciSequence) {
		attempt = len(fibonacciSequence) - 1
	}

	return baseDelay * time.Duration(fibonacciSequence[attempt])
}

// addJitter adds random jitter to prevent thundering herd effect
func addJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return delay
	}
	jitter := time.Duration(rand.Int63n(int64(delay / 4)))
	return delay + jitter
}

// resetRateLimitCounters resets the rate limit hit counters on successful requests
func (api *SquidAPI) resetRateLimitCounters() {
	api.mu.Lock()
	api.rateLimitHits = 0
	api.mu.Unlock()
}

// trackRateLimitHit increments the rate limit hit counter and returns if adjustment is needed
func (api *SquidAPI) trackRateLimitHit() bool {
	api.mu.Lock()
	defer api.mu.Unlock()

	api.rateLimitHits++
	return api.rateLimitHits > rateLimitThreshold
}

// requestWithRetry implements retry logic with Fibonacci backoff and mirror
// rotation on 502 responses
func (api *SquidAPI) requestWithRetry(ctx context.Context, path string, isPathOnly bool, params []shared.QueryParam) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error
	var consecutiveRateLimits int

	for attempt := 0; attempt < maxRetries; attempt++ {
		u, err := api.buildURL(api.activeEndpoint(), path, isPathOnly, params)
		if err != nil {
			return nil, err
		}

		resp, err := api.executeRequest(ctx, u.String())
		if err != nil {
			lastErr = err
			if attempt < maxRetries-1 {
				api.waitWithBackoff(attempt, baseRetryDelay)
				continue
			}
			return nil, lastErr
		}

		// Handle successful responses
		if resp.StatusCode == http.StatusOK {
			api.resetRateLimitCounters()
			return resp, nil
		}

		// A bad gateway means this mirror is down, not the whole proxy
		if resp.StatusCode == http.StatusBadGateway {
			resp.Body.Close()
			lastResp = resp
			api.rotateEndpoint()
			continue
		}

		// Handle rate limit errors
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastResp = resp
			consecutiveRateLimits++

			if shouldAdjust := api.trackRateLimitHit(); shouldAdjust && attempt == 0 {
				api.AdjustRateLimitForOverload()
			}

			if attempt < maxRetries-1 {
				delay := api.calculateRateLimitDelay(attempt, consecutiveRateLimits)
				api.logRetryAttempt(delay, attempt+1)

				if err := api.waitWithContext(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
		} else {
			// Handle other HTTP errors (don't retry)
			resp.Body.Close()
			return nil, fmt.Errorf("request failed with status: %s", resp.Status)
		}
	}

	return api.handleExhaustedRetries(lastResp, lastErr)
}

// executeRequest creates and executes a single HTTP request
func (api *SquidAPI) executeRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", shared.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := api.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing request: %w", err)
	}

	return resp, nil
}

// calculateRateLimitDelay calculates the delay for rate limit retries
func (api *SquidAPI) calculateRateLimitDelay(attempt, consecutiveRateLimits int) time.Duration {
	delay := fibonacciDelay(attempt, baseRetryDelay)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	if consecutiveRateLimits > 2 {
		delay = delay * time.Duration(consecutiveRateLimits)
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	return addJitter(delay)
}

// waitWithBackoff waits with Fibonacci backoff for network errors
func (api *SquidAPI) waitWithBackoff(attempt int, baseDelay time.Duration) {
	delay := fibonacciDelay(attempt, baseDelay)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	time.Sleep(delay)
}

// waitWithContext waits for the specified duration, respecting context cancellation
func (api *SquidAPI) waitWithContext(ctx context.Context, delay time.Duration) error {
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// logRetryAttempt logs retry attempts for user transparency
func (api *SquidAPI) logRetryAttempt(delay time.Duration, attempt int) {
	shared.ColorWarning.Printf("⚠️ Rate limit hit (429), retrying in %v (attempt %d/%d)\n",
		delay, attempt, maxRetries)
}

// handleExhaustedRetries handles the case when all retries are exhausted
func (api *SquidAPI) handleExhaustedRetries(lastResp *http.Response, lastErr error) (*http.Response, error) {
	if lastResp != nil {
		switch lastResp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("rate limit exceeded (429) after %d attempts, server is overloaded - try reducing parallelism", maxRetries)
		case http.StatusBadGateway:
			return nil, fmt.Errorf("all catalog mirrors returned 502 after %d attempts", maxRetries)
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

// ============================================================================
// RATE LIMIT MANAGEMENT
// ============================================================================

// AdjustRateLimitForOverload reduces the rate limit when server is consistently overloaded
func (api *SquidAPI) AdjustRateLimitForOverload() {
	api.rateLimiter = rate.NewLimiter(rate.Every(conservativeRateLimit), conservativeBurstLimit)
	shared.ColorWarning.Println("⚠️ Adjusted rate limit to be more conservative due to server overload")
}

// ResetRateLimit resets the rate limit to default values
func (api *SquidAPI) ResetRateLimit() {
	api.rateLimiter = rate.NewLimiter(rate.Every(defaultRateLimit), defaultBurstLimit)
}

// ============================================================================
// RESPONSE ENVELOPES
// ============================================================================

// The proxy wraps every payload in a success envelope.

type searchEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Albums searchBucket `json:"albums"`
		Tracks searchBucket `json:"tracks"`
	} `json:"data"`
}

type searchBucket struct {
	Total int              `json:"total"`
	Items []searchItemJSON `json:"items"`
}

type searchItemJSON struct {
	ID          interface{} `json:"id"`
	Title       string      `json:"title"`
	Name        string      `json:"name"`
	ReleaseDate string      `json:"release_date"`
	Artist      struct {
		Name string `json:"name"`
	} `json:"artist"`
	AlbumArtist string `json:"album_artist"`
	Album       struct {
		ReleaseDate string `json:"release_date"`
	} `json:"album"`
}

type albumEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		ID          interface{} `json:"id"`
		Title       string      `json:"title"`
		ReleaseDate string      `json:"release_date"`
		Copyright   string      `json:"copyright"`
		Genre       struct {
			Name string `json:"name"`
		} `json:"genre"`
		Label struct {
			Name string `json:"name"`
		} `json:"label"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
		Image struct {
			Large string `json:"large"`
			Small string `json:"small"`
		} `json:"image"`
		Tracks struct {
			Items []trackItemJSON `json:"items"`
		} `json:"tracks"`
	} `json:"data"`
}

type trackItemJSON struct {
	ID          interface{} `json:"id"`
	Title       string      `json:"title"`
	ReleaseDate string      `json:"release_date"`
	Artist      struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album struct {
		ID          interface{} `json:"id"`
		Title       string      `json:"title"`
		ReleaseDate string      `json:"release_date"`
		Artist      struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"album"`
}

type downloadEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

// ============================================================================
// PUBLIC API METHODS
// ============================================================================

// Search queries the catalog for albums or tracks. searchType is "album" or
// "track"; results carry the IDs needed for follow-up album and download
// calls.
func (api *SquidAPI) Search(ctx context.Context, query string, searchType string, limit int) ([]shared.SearchItem, error) {
	if limit <= 0 {
		limit = 10
	}

	resp, err := api.Request(ctx, "api/get-music", true, []shared.QueryParam{
		{Name: "q", Value: query},
		{Name: "offset", Value: "0"},
		{Name: "limit", Value: fmt.Sprintf("%d", limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}
	defer resp.Body.Close()

	var envelope searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("catalog search was not successful")
	}

	var bucket searchBucket
	if searchType == "track" {
		bucket = envelope.Data.Tracks
	} else {
		searchType = "album"
		bucket = envelope.Data.Albums
	}

	items := make([]shared.SearchItem, 0, len(bucket.Items))
	for _, raw := range bucket.Items {
		title := raw.Title
		if title == "" {
			title = raw.Name
		}
		artist := raw.Artist.Name
		if artist == "" {
			artist = raw.AlbumArtist
		}
		releaseDate := raw.ReleaseDate
		if releaseDate == "" {
			releaseDate = raw.Album.ReleaseDate
		}
		items = append(items, shared.SearchItem{
			ID:          raw.ID,
			Title:       title,
			Artist:      artist,
			Type:        searchType,
			ReleaseDate: releaseDate,
		})
	}

	return items, nil
}

// GetAlbum fetches album details and its track listing. Track numbers are
// assigned from the catalog's listing order, starting at 1.
func (api *SquidAPI) GetAlbum(ctx context.Context, albumID string) (*shared.CatalogAlbum, []shared.SourceTrack, error) {
	resp, err := api.Request(ctx, "api/get-album", true, []shared.QueryParam{
		{Name: "album_id", Value: albumID},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get album: %w", err)
	}
	defer resp.Body.Close()

	var envelope albumEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode album response: %w", err)
	}
	if !envelope.Success {
		return nil, nil, fmt.Errorf("album request was not successful")
	}

	data := envelope.Data
	cover := data.Image.Large
	if cover == "" {
		cover = data.Image.Small
	}

	album := &shared.CatalogAlbum{
		ID:          shared.IdToString(data.ID),
		Title:       data.Title,
		Artist:      data.Artist.Name,
		ReleaseDate: data.ReleaseDate,
		Label:       data.Label.Name,
		Genre:       data.Genre.Name,
		Copyright:   data.Copyright,
		Cover:       cover,
	}

	tracks := make([]shared.SourceTrack, 0, len(data.Tracks.Items))
	for i, item := range data.Tracks.Items {
		artist := item.Artist.Name
		if artist == "" {
			artist = album.Artist
		}
		tracks = append(tracks, shared.SourceTrack{
			ID:          item.ID,
			Title:       item.Title,
			Artist:      artist,
			TrackNumber: i + 1,
			ReleaseDate: album.ReleaseDate,
		})
	}
	album.Tracks = tracks

	return album, tracks, nil
}

// GetTrack fetches a single track together with its parent album context.
func (api *SquidAPI) GetTrack(ctx context.Context, trackID string) (*shared.SourceTrack, *shared.CatalogAlbum, error) {
	resp, err := api.Request(ctx, "api/get-track", true, []shared.QueryParam{
		{Name: "track_id", Value: trackID},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get track: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool          `json:"success"`
		Data    trackItemJSON `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode track response: %w", err)
	}
	if !envelope.Success {
		return nil, nil, fmt.Errorf("track request was not successful")
	}

	data := envelope.Data
	artist := data.Artist.Name
	if artist == "" {
		artist = data.Album.Artist.Name
	}

	track := &shared.SourceTrack{
		ID:          data.ID,
		Title:       data.Title,
		Artist:      artist,
		ReleaseDate: data.ReleaseDate,
	}
	album := &shared.CatalogAlbum{
		ID:          shared.IdToString(data.Album.ID),
		Title:       data.Album.Title,
		Artist:      data.Album.Artist.Name,
		ReleaseDate: data.Album.ReleaseDate,
	}
	if track.ReleaseDate == "" {
		track.ReleaseDate = album.ReleaseDate
	}

	return track, album, nil
}

// GetDownloadURL resolves the CDN URL for a track at the given quality code
// (27 for FLAC, 5 for MP3).
func (api *SquidAPI) GetDownloadURL(ctx context.Context, trackID string, quality int) (string, error) {
	resp, err := api.Request(ctx, "api/download-music", true, []shared.QueryParam{
		{Name: "track_id", Value: trackID},
		{Name: "quality", Value: fmt.Sprintf("%d", quality)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get download URL: %w", err)
	}
	defer resp.Body.Close()

	var envelope downloadEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("failed to decode download response: %w", err)
	}
	if !envelope.Success || envelope.Data.URL == "" {
		return "", fmt.Errorf("no download URL returned for track %s", trackID)
	}

	return envelope.Data.URL, nil
}

// DownloadCover fetches album cover art bytes from the given URL.
func (api *SquidAPI) DownloadCover(ctx context.Context, coverURL string) ([]byte, error) {
	if coverURL == "" {
		return nil, fmt.Errorf("no cover URL provided")
	}

	resp, err := api.Request(ctx, coverURL, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover data: %w", err)
	}

	return data, nil
}
