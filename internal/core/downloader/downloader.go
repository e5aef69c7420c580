package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"squid-downloader/internal/api/qobuz"
	"squid-downloader/internal/config"
	"squid-downloader/internal/shared"
)

// Result is one finished download, emitted in completion order so tagging
// can run over files as they land.
type Result struct {
	Track shared.SourceTrack
	Path  string
	Err   error
}

// DownloadTrack downloads a single track to outputPath, resolving the CDN
// URL at the configured quality and verifying the byte count against the
// response's content length.
func DownloadTrack(ctx context.Context, api *qobuz.SquidAPI, track shared.SourceTrack, outputPath string, quality int, bar *pb.ProgressBar, cfg *config.Config) (string, error) {
	downloadURL, err := api.GetDownloadURL(ctx, shared.IdToString(track.ID), quality)
	if err != nil {
		return "", fmt.Errorf("failed to get download URL: %w", err)
	}

	var expectedFileSize int64

	maxRetries := shared.DefaultMaxRetries
	if cfg != nil && cfg.MaxRetryAttempts > 0 {
		maxRetries = cfg.MaxRetryAttempts
	}

	err = shared.RetryWithBackoff(maxRetries, 5, func() error {
		audioResp, err := api.Request(ctx, downloadURL, false, nil)
		if err != nil {
			return fmt.Errorf("failed to download audio: %w", err)
		}
		defer audioResp.Body.Close()

		expectedSize := audioResp.ContentLength
		expectedFileSize = expectedSize

		if bar != nil {
			if audioResp.ContentLength <= 0 {
				bar.Set("indeterminate", true)
			} else {
				bar.SetTotal(audioResp.ContentLength)
			}
			audioResp.Body = bar.NewProxyReader(audioResp.Body)
		}

		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		out, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()

		bytesWritten, err := io.Copy(out, audioResp.Body)
		if err != nil {
			os.Remove(outputPath)
			return fmt.Errorf("failed to write audio file: %w", err)
		}

		if expectedSize > 0 && bytesWritten != expectedSize {
			os.Remove(outputPath)
			return fmt.Errorf("incomplete download: expected %d bytes, got %d bytes", expectedSize, bytesWritten)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	if !shared.FileExists(outputPath) {
		return "", fmt.Errorf("download completed but file not found on disk: %s", outputPath)
	}
	verifyEnabled := cfg == nil || cfg.VerifyDownloads
	if verifyEnabled && expectedFileSize > 0 {
		if verifyErr := shared.VerifyFileIntegrity(outputPath, expectedFileSize); verifyErr != nil {
			os.Remove(outputPath)
			return "", fmt.Errorf("post-download verification failed: %w", verifyErr)
		}
	}

	return outputPath, nil
}

// DownloadTracks downloads tracks in parallel, bounded by parallelism, and
// sends each finished file on the returned channel in completion order. The
// channel is closed once every track has been attempted. Existing files are
// reported as skipped results with an empty path.
func DownloadTracks(ctx context.Context, api *qobuz.SquidAPI, tracks []shared.SourceTrack, outputDir string, quality int, ext string, parallelism int, cfg *config.Config) <-chan Result {
	if parallelism < 1 {
		parallelism = 1
	}

	results := make(chan Result, len(tracks))
	sem := semaphore.NewWeighted(int64(parallelism))
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex // serializes progress bar creation

	for _, track := range tracks {
		track := track
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results <- Result{Track: track, Err: err}
				return nil
			}
			defer sem.Release(1)

			outputPath := filepath.Join(outputDir, shared.TrackFileName(track.Artist, track.Title, ext))
			if shared.FileExists(outputPath) {
				shared.ColorInfo.Printf("⏭️ Skipping %s - already exists\n", track.Title)
				results <- Result{Track: track}
				return nil
			}

			mu.Lock()
			bar := pb.New64(0)
			bar.Set(pb.Bytes, true)
			bar.Start()
			mu.Unlock()

			path, err := DownloadTrack(gctx, api, track, outputPath, quality, bar, cfg)
			bar.Finish()

			results <- Result{Track: track, Path: path, Err: err}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	return results
}
