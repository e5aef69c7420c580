package musicbrainz

// Data types for the subset of the MusicBrainz release/recording graph this
// tool consumes. Field names follow the ws/2 JSON document structure.

// Artist represents a MusicBrainz artist
type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
}

// ArtistCredit is one entry of an ordered artist-credit list. Name is the
// credited display name, which may differ from the artist's canonical name.
type ArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
	Artist     Artist `json:"artist"`
}

// Recording represents a MusicBrainz recording, optionally with its linked
// releases when fetched with inc=releases.
type Recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Length       int            `json:"length"`
	ISRCs        []string       `json:"isrcs"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Releases     []Release      `json:"releases"`
}

// MediumTrack represents a track within a medium. Position is 1-based and
// unique within the medium.
type MediumTrack struct {
	ID           string         `json:"id"`
	Position     int            `json:"position"`
	Number       string         `json:"number"`
	Title        string         `json:"title"`
	Length       int            `json:"length"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Recording    Recording      `json:"recording"`
}

// Medium represents one disc/side within a release. Tracks are ordered by
// physical position.
type Medium struct {
	Position   int           `json:"position"`
	Format     string        `json:"format"`
	TrackCount int           `json:"track-count"`
	Tracks     []MediumTrack `json:"tracks"`
}

// ReleaseGroup represents a MusicBrainz release group
type ReleaseGroup struct {
	ID               string   `json:"id"`
	PrimaryType      string   `json:"primary-type"`
	SecondaryTypes   []string `json:"secondary-types"`
	FirstReleaseDate string   `json:"first-release-date"`
}

// Label represents a MusicBrainz label
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LabelInfo pairs a label with a catalog number for one release.
type LabelInfo struct {
	CatalogNumber string `json:"catalog-number"`
	Label         Label  `json:"label"`
}

// TextRepresentation carries the language and script of a release's tracklist.
type TextRepresentation struct {
	Language string `json:"language"`
	Script   string `json:"script"`
}

// CoverArtArchive carries the Cover Art Archive flags attached to a release.
type CoverArtArchive struct {
	Front bool `json:"front"`
}

// Release represents one specific released edition of an album.
type Release struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Status             string             `json:"status"`
	Date               string             `json:"date"`
	Country            string             `json:"country"`
	Barcode            string             `json:"barcode"`
	ArtistCredit       []ArtistCredit     `json:"artist-credit"`
	LabelInfo          []LabelInfo        `json:"label-info"`
	ReleaseGroup       ReleaseGroup       `json:"release-group"`
	Media              []Medium           `json:"media"`
	TextRepresentation TextRepresentation `json:"text-representation"`
	CoverArtArchive    CoverArtArchive    `json:"cover-art-archive"`
	TrackCount         int                `json:"track-count"`
}

// TotalTracks sums the track counts across all media. Falls back to the
// search-result track-count field when media were not included.
func (r *Release) TotalTracks() int {
	total := 0
	for _, m := range r.Media {
		if len(m.Tracks) > 0 {
			total += len(m.Tracks)
		} else {
			total += m.TrackCount
		}
	}
	if total == 0 {
		total = r.TrackCount
	}
	return total
}

// Year returns the release year parsed from the partial ISO date, or 0 when
// the date is absent or malformed.
func (r *Release) Year() int {
	return yearOf(r.Date)
}

// FirstReleaseYear returns the year the release group first appeared, or 0.
func (r *Release) FirstReleaseYear() int {
	return yearOf(r.ReleaseGroup.FirstReleaseDate)
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, c := range date[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}

// CreditedArtist returns the display name of the first artist credit, or the
// empty string when no credit is present.
func CreditedArtist(credits []ArtistCredit) string {
	if len(credits) == 0 {
		return ""
	}
	if credits[0].Name != "" {
		return credits[0].Name
	}
	return credits[0].Artist.Name
}

// CreditedArtists returns the ordered list of credited display names.
func CreditedArtists(credits []ArtistCredit) []string {
	names := make([]string, 0, len(credits))
	for _, c := range credits {
		name := c.Name
		if name == "" {
			name = c.Artist.Name
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
