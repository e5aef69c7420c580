package tagger

import "strings"

// TagSet is the canonical mapping of logical tag names to values, assembled
// by the projector and persisted by the container-specific writers. Numeric
// fields are 0 when unknown; string fields are empty when unknown, and
// writers skip empty fields.
type TagSet struct {
	Title   string
	Artist  string
	Artists []string // full ordered artist credit, when known
	Album   string

	AlbumArtist     string
	ArtistSort      string
	AlbumArtistSort string

	Date         string // full partial ISO date, e.g. "1969-09-26" or "1969"
	Year         string
	OriginalDate string // release group's first release date
	OriginalYear string

	TrackNumber int
	TotalTracks int
	DiscNumber  int
	TotalDiscs  int

	// MusicBrainz identifiers, Picard-compatible
	RecordingID    string
	ArtistID       string
	AlbumArtistID  string
	ReleaseID      string
	ReleaseGroupID string
	TrackID        string
	AcoustID       string

	ISRC          string
	Barcode       string
	CatalogNumber string
	Label         string
	Genre         string

	Country              string
	Status               string
	MediaFormat          string
	ReleaseType          string
	ReleaseTypeSecondary string
	Language             string
	Script               string
	Copyright            string
}

// JoinedArtists renders the artist credit list for containers without
// multi-value fields, falling back to the single artist field.
func (t *TagSet) JoinedArtists() string {
	if len(t.Artists) > 0 {
		return strings.Join(t.Artists, "; ")
	}
	return t.Artist
}
