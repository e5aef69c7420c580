package shared

import (
	"fmt"
)

// Catalog data structures

// SourceTrack is one downloadable track as reported by the catalog proxy.
type SourceTrack struct {
	ID          interface{} `json:"id"`
	Title       string      `json:"title"`
	Artist      string      `json:"artist"`
	TrackNumber int         `json:"trackNumber,omitempty"` // 1-based position within the album, 0 when unknown
	ReleaseDate string      `json:"releaseDate,omitempty"`
}

// CatalogAlbum is the album record returned by the catalog's album endpoint.
type CatalogAlbum struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Artist      string        `json:"artist"`
	ReleaseDate string        `json:"releaseDate,omitempty"`
	Label       string        `json:"label,omitempty"`
	Genre       string        `json:"genre,omitempty"`
	Copyright   string        `json:"copyright,omitempty"`
	Cover       string        `json:"cover,omitempty"`
	Tracks      []SourceTrack `json:"tracks,omitempty"`
}

// ReleaseYear returns the album's release year, or 0 when the date is absent
// or not parseable.
func (a *CatalogAlbum) ReleaseYear() int {
	if a == nil || len(a.ReleaseDate) < 4 {
		return 0
	}
	var year int
	if _, err := fmt.Sscanf(a.ReleaseDate[:4], "%d", &year); err != nil {
		return 0
	}
	return year
}

// SearchItem is one row of catalog search results.
type SearchItem struct {
	ID          interface{} `json:"id"`
	Title       string      `json:"title"`
	Artist      string      `json:"artist"`
	Type        string      `json:"type"` // "album" or "track"
	ReleaseDate string      `json:"releaseDate,omitempty"`
}

// BatchStats summarizes one download-and-tag batch.
type BatchStats struct {
	Downloaded  int
	Tagged      int
	TagFailed   int
	Skipped     int
	FailedItems []string
}

// QueryParam is a single URL query parameter for catalog requests.
type QueryParam struct {
	Name  string
	Value string
}

// ErrNoItemsSelected is returned when no items are selected for download.
var ErrNoItemsSelected = fmt.Errorf("no items selected for download")
