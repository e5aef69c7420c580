package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"squid-downloader/internal/api/musicbrainz"
	"squid-downloader/internal/config"
	"squid-downloader/internal/services"
	"squid-downloader/internal/shared"
)

type webRequest struct {
	Query     string `json:"query,omitempty"`
	Type      string `json:"type,omitempty"`
	AlbumID   string `json:"albumId,omitempty"`
	TrackID   string `json:"trackId,omitempty"`
	ReleaseID string `json:"releaseId,omitempty"`
}

type webResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type searchResponse struct {
	Results []shared.SearchItem `json:"results"`
	Error   string              `json:"error,omitempty"`
}

// candidateRelease is one registry release offered for the user to pick over
// the automatic match.
type candidateRelease struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Year       int    `json:"year,omitempty"`
	TrackCount int    `json:"trackCount,omitempty"`
	Status     string `json:"status,omitempty"`
}

type albumResponse struct {
	Album    *shared.CatalogAlbum `json:"album,omitempty"`
	Tracks   []shared.SourceTrack `json:"tracks,omitempty"`
	Releases []candidateRelease   `json:"releases,omitempty"`
	Error    string               `json:"error,omitempty"`
}

type batchResponse struct {
	Success bool               `json:"success"`
	Stats   *shared.BatchStats `json:"stats,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type webServer struct {
	container   *services.Container
	coordinator *services.Coordinator
}

// startWebServer serves the JSON API and the static UI until the process
// exits. Downloads run synchronously within the request.
func startWebServer(container *services.Container, coordinator *services.Coordinator, port int) error {
	server := &webServer{container: container, coordinator: coordinator}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir("./web")))
	mux.HandleFunc("/api/search", server.searchHandler)
	mux.HandleFunc("/api/album", server.albumHandler)
	mux.HandleFunc("/api/download-album", server.downloadAlbumHandler)
	mux.HandleFunc("/api/download-track", server.downloadTrackHandler)
	mux.HandleFunc("/api/settings", server.settingsHandler)

	shared.ColorInfo.Printf("🚀 Starting web server on http://localhost:%d\n", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*webRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return nil, false
	}
	var req webRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (s *webServer) searchHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	searchType := req.Type
	if searchType == "" {
		searchType = "album"
	}

	results, err := s.container.API.Search(r.Context(), req.Query, searchType, 10)
	if err != nil {
		writeJSON(w, searchResponse{Error: fmt.Sprintf("Search failed: %v", err)})
		return
	}
	writeJSON(w, searchResponse{Results: results})
}

// albumHandler returns the album's tracks together with candidate registry
// releases, so the UI can offer a manual release pick before starting the
// batch.
func (s *webServer) albumHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	album, tracks, err := s.container.API.GetAlbum(r.Context(), req.AlbumID)
	if err != nil {
		writeJSON(w, albumResponse{Error: fmt.Sprintf("Failed to get album: %v", err)})
		return
	}

	releases, err := s.container.Registry.SearchReleases(r.Context(), album.Artist, album.Title, 10)
	if err != nil {
		shared.ColorWarning.Printf("⚠️ Release search failed: %v\n", err)
	}

	candidates := make([]candidateRelease, 0, len(releases))
	for i := range releases {
		release := &releases[i]
		candidates = append(candidates, candidateRelease{
			ID:         release.ID,
			Title:      release.Title,
			Artist:     musicbrainz.CreditedArtist(release.ArtistCredit),
			Year:       release.Year(),
			TrackCount: release.TotalTracks(),
			Status:     release.Status,
		})
	}

	writeJSON(w, albumResponse{Album: album, Tracks: tracks, Releases: candidates})
}

func (s *webServer) downloadAlbumHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	stats, err := s.coordinator.DownloadAlbum(context.Background(), req.AlbumID, req.ReleaseID)
	if err != nil {
		writeJSON(w, batchResponse{Error: fmt.Sprintf("Failed to download album: %v", err)})
		return
	}
	writeJSON(w, batchResponse{Success: true, Stats: stats})
}

func (s *webServer) downloadTrackHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	stats, err := s.coordinator.DownloadSingleTrack(context.Background(), req.TrackID)
	if err != nil {
		writeJSON(w, batchResponse{Error: fmt.Sprintf("Failed to download track: %v", err)})
		return
	}
	writeJSON(w, batchResponse{Success: true, Stats: stats})
}

func (s *webServer) settingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg := &config.Config{}
		if err := config.LoadConfig(configFilePath, cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				writeJSON(w, webResponse{Error: fmt.Sprintf("Failed to load config: %v", err)})
				return
			}
		}
		writeJSON(w, cfg)
	case http.MethodPost:
		var cfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := config.SaveConfig(configFilePath, &cfg); err != nil {
			writeJSON(w, webResponse{Error: fmt.Sprintf("Failed to save config: %v", err)})
			return
		}
		writeJSON(w, webResponse{Success: true})
	default:
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
