package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"squid-downloader/internal/api/acoustid"
	"squid-downloader/internal/api/coverart"
	"squid-downloader/internal/api/musicbrainz"
	"squid-downloader/internal/api/qobuz"
	"squid-downloader/internal/api/spotify"
	"squid-downloader/internal/config"
	"squid-downloader/internal/core/downloader"
	"squid-downloader/internal/core/match"
	"squid-downloader/internal/core/resolve"
	"squid-downloader/internal/core/tagger"
	"squid-downloader/internal/shared"
)

// Container holds all application services
type Container struct {
	Config     *config.Config
	API        *qobuz.SquidAPI
	Registry   *musicbrainz.Client
	Identifier *acoustid.Client
	CoverArt   *coverart.Client
	Spotify    *spotify.Client
	Matcher    *match.Matcher
	Warnings   *shared.WarningCollector
}

// NewContainer creates a container with all services initialized. The
// metadata registry and the fingerprint service share one pacer so their
// combined request rate stays under the public rate limit.
func NewContainer(cfg *config.Config, httpClient *http.Client) *Container {
	warnings := shared.NewWarningCollector(cfg.WarningBehavior != "silent")

	api := qobuz.NewSquidAPI(cfg.APIURL, httpClient)

	pacer := shared.NewPacer(config.DefaultLookupInterval)
	registryConfig := musicbrainz.DefaultConfig()
	if cfg.MusicBrainzUserAgent != "" {
		registryConfig.UserAgent = cfg.MusicBrainzUserAgent
	}
	registry := musicbrainz.NewClientWithConfig(registryConfig, pacer)

	fpcalc := acoustid.NewFpcalc(cfg.FpcalcPath)
	identifier := acoustid.NewClient(cfg.AcoustIDAPIKey, fpcalc, pacer)

	return &Container{
		Config:     cfg,
		API:        api,
		Registry:   registry,
		Identifier: identifier,
		CoverArt:   coverart.NewClient(),
		Spotify:    spotify.NewClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret),
		Matcher:    match.NewMatcher(registry),
		Warnings:   warnings,
	}
}

// Coordinator runs download-and-tag batches. Downloads proceed in parallel;
// tagging drains the completion channel one file at a time so registry and
// fingerprint lookups stay serialized behind the shared pacer.
type Coordinator struct {
	container *Container
	resolver  *resolve.Resolver
	writer    *tagger.Writer
	cache     *resolve.ReleaseCache

	// front cover bytes per release MBID, fetched once per batch
	coverCache map[string][]byte
}

// NewCoordinator creates a coordinator. The release cache lives for the
// coordinator's lifetime, so repeated album batches in one session reuse
// fingerprint-derived release choices.
func NewCoordinator(container *Container) *Coordinator {
	cache := resolve.NewReleaseCache()
	return &Coordinator{
		container:  container,
		resolver:   resolve.NewResolver(container.Registry, container.Identifier, cache, container.Warnings),
		writer:     tagger.NewWriter(container.Warnings),
		cache:      cache,
		coverCache: make(map[string][]byte),
	}
}

// ReleaseCache exposes the session cache so front ends can seed it with a
// user-picked release.
func (c *Coordinator) ReleaseCache() *resolve.ReleaseCache {
	return c.cache
}

// DownloadAlbum downloads every track of a catalog album, matches the album
// against the registry, and tags each file as it finishes downloading.
// overrideReleaseID, when non-empty, is a user-picked release and skips the
// automatic match.
func (c *Coordinator) DownloadAlbum(ctx context.Context, albumID, overrideReleaseID string) (*shared.BatchStats, error) {
	album, tracks, err := c.container.API.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	if len(tracks) == 0 {
		return &shared.BatchStats{}, nil
	}

	shared.ColorInfo.Printf("Downloading %s - %s (%d tracks)\n", album.Artist, album.Title, len(tracks))

	chosenReleaseID := overrideReleaseID
	if chosenReleaseID == "" {
		chosenReleaseID = c.matchAlbum(ctx, album, len(tracks))
	}
	if chosenReleaseID != "" {
		c.cache.Put(album.ID, chosenReleaseID)
	}

	outputDir := filepath.Join(c.container.Config.DownloadLocation, shared.AlbumFolderName(album.Artist, album.Title))
	return c.runBatch(ctx, tracks, album, chosenReleaseID, outputDir)
}

// DownloadSingleTrack downloads and tags one catalog track. The track's
// album, when the catalog reports one, supplies the release-match context.
func (c *Coordinator) DownloadSingleTrack(ctx context.Context, trackID string) (*shared.BatchStats, error) {
	track, album, err := c.container.API.GetTrack(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	chosenReleaseID := ""
	if album != nil {
		chosenReleaseID = c.matchAlbum(ctx, album, 0)
		if chosenReleaseID != "" {
			c.cache.Put(album.ID, chosenReleaseID)
		}
	}

	outputDir := c.container.Config.DownloadLocation
	if album != nil {
		outputDir = filepath.Join(outputDir, shared.AlbumFolderName(album.Artist, album.Title))
	}
	return c.runBatch(ctx, []shared.SourceTrack{*track}, album, chosenReleaseID, outputDir)
}

// matchAlbum runs the automatic release match and reports the result.
// trackCount and release year refine the score when known; zero values
// contribute nothing.
func (c *Coordinator) matchAlbum(ctx context.Context, album *shared.CatalogAlbum, trackCount int) string {
	matched := c.container.Matcher.FindBestRelease(ctx, album.Artist, album.Title, trackCount, album.ReleaseYear())
	if matched == nil {
		c.container.Warnings.AddReleaseMatchWarning(album.Artist, album.Title, "no candidate scored above the confidence floor")
		return ""
	}
	shared.ColorSuccess.Printf("✅ Matched release: %s - %s (%.0f, %s confidence)\n", matched.Artist, matched.Title, matched.Score, matched.Confidence)
	return matched.ID
}

// runBatch downloads tracks in parallel and tags each one as its download
// completes. Tagging is strictly sequential: one file at a time, in the
// order downloads finish.
func (c *Coordinator) runBatch(ctx context.Context, tracks []shared.SourceTrack, album *shared.CatalogAlbum, chosenReleaseID, outputDir string) (*shared.BatchStats, error) {
	cfg := c.container.Config

	format := strings.ToUpper(cfg.Format)
	target, ok := config.TranscodeMap[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %s", cfg.Format)
	}
	quality := config.QualityMap[target.Download]
	downloadExt := strings.ToLower(target.Download)

	stats := &shared.BatchStats{}
	results := downloader.DownloadTracks(ctx, c.container.API, tracks, outputDir, quality, downloadExt, cfg.Parallelism, cfg)

	for result := range results {
		if result.Err != nil {
			shared.ColorError.Printf("❌ Failed to download %s: %v\n", result.Track.Title, result.Err)
			c.container.Warnings.AddDownloadWarning(result.Track.Title, result.Err.Error())
			stats.FailedItems = append(stats.FailedItems, result.Track.Title)
			continue
		}
		if result.Path == "" {
			stats.Skipped++
			continue
		}
		stats.Downloaded++

		path := result.Path
		if target.Ext != downloadExt {
			converted, err := downloader.ConvertTrack(path, "alac", cfg.Bitrate)
			if err != nil {
				shared.ColorWarning.Printf("⚠️ Failed to convert %s: %v\n", result.Track.Title, err)
				c.container.Warnings.AddDownloadWarning(result.Track.Title, "conversion failed: "+err.Error())
			} else {
				os.Remove(path)
				path = converted
			}
		}

		if c.tagFile(ctx, path, result.Track, album, chosenReleaseID) {
			stats.Tagged++
		} else {
			stats.TagFailed++
		}
	}

	c.printBatchSummary(stats)
	return stats, nil
}

// tagFile resolves one downloaded file against the registry, projects the
// tag set, and writes it into the container.
func (c *Coordinator) tagFile(ctx context.Context, path string, track shared.SourceTrack, album *shared.CatalogAlbum, chosenReleaseID string) bool {
	outcome := c.resolver.Resolve(ctx, path, track, chosenReleaseID, album)
	tags := tagger.Project(outcome, track, album)
	coverArt := c.fetchCoverArt(ctx, outcome, album)
	return c.writer.Write(path, tags, coverArt)
}

// fetchCoverArt prefers the registry's front cover for the resolved release,
// falling back to the catalog's own cover image. Registry covers are cached
// per release for the batch.
func (c *Coordinator) fetchCoverArt(ctx context.Context, outcome resolve.Outcome, album *shared.CatalogAlbum) []byte {
	if outcome.Release != nil {
		if data, seen := c.coverCache[outcome.Release.ID]; seen {
			return data
		}
		data, err := c.container.CoverArt.GetFrontCover(ctx, outcome.Release.ID)
		if err != nil {
			c.container.Warnings.AddCoverArtWarning(outcome.Release.Title, err.Error())
		}
		if data == nil && album != nil && album.Cover != "" {
			data = c.downloadCatalogCover(ctx, album)
		}
		// negative results are cached too, so one batch asks at most once
		c.coverCache[outcome.Release.ID] = data
		return data
	}

	if album != nil && album.Cover != "" {
		return c.downloadCatalogCover(ctx, album)
	}
	return nil
}

func (c *Coordinator) downloadCatalogCover(ctx context.Context, album *shared.CatalogAlbum) []byte {
	data, err := c.container.API.DownloadCover(ctx, album.Cover)
	if err != nil {
		c.container.Warnings.AddCoverArtWarning(album.Title, err.Error())
		return nil
	}
	return data
}

// printBatchSummary reports the batch outcome and any collected warnings.
func (c *Coordinator) printBatchSummary(stats *shared.BatchStats) {
	shared.ColorInfo.Printf("\nBatch complete: %d downloaded, %d tagged, %d tag failures, %d skipped, %d failed\n",
		stats.Downloaded, stats.Tagged, stats.TagFailed, stats.Skipped, len(stats.FailedItems))
	for _, item := range stats.FailedItems {
		shared.ColorError.Printf("  ❌ %s\n", item)
	}
	if c.container.Config.WarningBehavior == "summary" {
		c.container.Warnings.PrintSummary()
	}
}
