package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"squid-downloader/internal/shared"
)

// Track represents a track pulled from Spotify, reduced to what catalog
// search needs.
type Track struct {
	Name   string
	Artist string
}

// Client wraps the Spotify Web API for playlist and album imports.
type Client struct {
	ID     string
	Secret string
	client *spotify.Client
}

// NewClient creates an unauthenticated Spotify client
func NewClient(id, secret string) *Client {
	return &Client{ID: id, Secret: secret}
}

// Authenticate authenticates the client with the spotify api
func (s *Client) Authenticate(ctx context.Context) error {
	if s.ID == "" || s.Secret == "" {
		return fmt.Errorf("spotify client ID and secret are not configured")
	}

	config := &clientcredentials.Config{
		ClientID:     s.ID,
		ClientSecret: s.Secret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return fmt.Errorf("spotify authentication failed: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	s.client = spotify.New(httpClient)
	return nil
}

// idFromURL extracts the resource ID from a Spotify share URL, checking the
// resource kind ("playlist", "album", "track") when kind is non-empty.
func idFromURL(rawURL, kind string) (spotify.ID, error) {
	parts := strings.Split(rawURL, "/")
	if len(parts) < 5 {
		return "", fmt.Errorf("invalid spotify %s URL", kind)
	}
	if kind != "" && parts[3] != kind {
		return "", fmt.Errorf("invalid spotify %s URL", kind)
	}
	return spotify.ID(strings.Split(parts[4], "?")[0]), nil
}

// GetPlaylistTracks gets the tracks from a spotify playlist
func (s *Client) GetPlaylistTracks(ctx context.Context, playlistURL string) ([]Track, string, error) {
	playlistID, err := idFromURL(playlistURL, "playlist")
	if err != nil {
		return nil, "", err
	}

	shared.DebugPrintf("Fetching tracks from playlist: %s", playlistID)

	playlist, err := s.client.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, "", err
	}

	var tracks []Track
	for _, item := range playlist.Tracks.Tracks {
		if len(item.Track.Artists) == 0 {
			continue
		}
		tracks = append(tracks, Track{Name: item.Track.Name, Artist: item.Track.Artists[0].Name})
	}

	return tracks, playlist.Name, nil
}

// GetAlbumTracks gets the tracks from a spotify album
func (s *Client) GetAlbumTracks(ctx context.Context, albumURL string) ([]Track, string, error) {
	albumID, err := idFromURL(albumURL, "album")
	if err != nil {
		return nil, "", err
	}

	shared.DebugPrintf("Fetching tracks from album: %s", albumID)

	album, err := s.client.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, "", err
	}

	var tracks []Track
	for _, track := range album.Tracks.Tracks {
		if len(track.Artists) == 0 {
			continue
		}
		tracks = append(tracks, Track{Name: track.Name, Artist: track.Artists[0].Name})
	}

	return tracks, album.Name, nil
}

// GetTrack gets a single track from a spotify track url
func (s *Client) GetTrack(ctx context.Context, trackURL string) (*Track, error) {
	trackID, err := idFromURL(trackURL, "track")
	if err != nil {
		return nil, err
	}

	shared.DebugPrintf("Fetching track: %s", trackID)

	track, err := s.client.GetTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if len(track.Artists) == 0 {
		return nil, fmt.Errorf("track %s has no artists", trackID)
	}

	return &Track{Name: track.Name, Artist: track.Artists[0].Name}, nil
}
