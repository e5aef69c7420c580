package main

import (
	"context"
	"fmt"
	"strings"

	"squid-downloader/internal/api/spotify"
	"squid-downloader/internal/services"
	"squid-downloader/internal/shared"
)

// handleSpotifyURL resolves a Spotify playlist, album, or track URL into
// catalog tracks and downloads them one at a time.
func handleSpotifyURL(ctx context.Context, container *services.Container, coordinator *services.Coordinator, url string) error {
	if container.Config.SpotifyClientID == "" || container.Config.SpotifyClientSecret == "" {
		return fmt.Errorf("spotify client ID and secret are not configured")
	}
	if err := container.Spotify.Authenticate(ctx); err != nil {
		return fmt.Errorf("spotify authentication failed: %w", err)
	}

	var tracks []spotify.Track
	var name string
	var err error

	switch {
	case strings.Contains(url, "/playlist/"):
		tracks, name, err = container.Spotify.GetPlaylistTracks(ctx, url)
	case strings.Contains(url, "/album/"):
		tracks, name, err = container.Spotify.GetAlbumTracks(ctx, url)
	case strings.Contains(url, "/track/"):
		var track *spotify.Track
		track, err = container.Spotify.GetTrack(ctx, url)
		if track != nil {
			tracks = []spotify.Track{*track}
			name = track.Name
		}
	default:
		return fmt.Errorf("unrecognized Spotify URL: %s", url)
	}
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		shared.ColorWarning.Println("No tracks found.")
		return nil
	}

	shared.ColorInfo.Printf("🎵 Downloading %d tracks from '%s'\n", len(tracks), name)

	failed := 0
	for _, track := range tracks {
		if err := downloadSpotifyTrack(ctx, container, coordinator, track); err != nil {
			shared.ColorError.Printf("❌ %s - %s: %v\n", track.Artist, track.Name, err)
			failed++
		}
	}
	if failed > 0 {
		shared.ColorWarning.Printf("⚠️ %d of %d tracks failed\n", failed, len(tracks))
	}
	return nil
}

// downloadSpotifyTrack finds the closest catalog track for a Spotify entry
// and downloads it.
func downloadSpotifyTrack(ctx context.Context, container *services.Container, coordinator *services.Coordinator, track spotify.Track) error {
	query := track.Artist + " " + track.Name
	results, err := container.API.Search(ctx, query, "track", 1)
	if err != nil {
		return fmt.Errorf("catalog search failed: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no catalog match")
	}

	_, err = coordinator.DownloadSingleTrack(ctx, shared.IdToString(results[0].ID))
	return err
}
