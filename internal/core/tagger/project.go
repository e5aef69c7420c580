package tagger

import (
	"strconv"
	"strings"

	"squid-downloader/internal/api/musicbrainz"
	"squid-downloader/internal/core/resolve"
	"squid-downloader/internal/shared"
)

// Project flattens a resolution outcome, the catalog's view of the track,
// and the catalog album into one canonical tag set. Precedence per field:
// registry data first, then fingerprint-derived data, then catalog data,
// with the filename-inferred title as the last resort for the title alone.
func Project(outcome resolve.Outcome, source shared.SourceTrack, album *shared.CatalogAlbum) *TagSet {
	tags := &TagSet{}

	projectTrack(tags, outcome, source)
	projectRelease(tags, outcome.Release, album)

	if outcome.RecordingID != "" {
		tags.RecordingID = outcome.RecordingID
	}
	tags.AcoustID = outcome.AcoustID

	if tags.Title == "" {
		tags.Title = outcome.InferredTitle
	}

	return tags
}

// projectTrack fills track-level fields from the resolved registry track,
// falling back to catalog track fields.
func projectTrack(tags *TagSet, outcome resolve.Outcome, source shared.SourceTrack) {
	track := outcome.Track
	if track == nil {
		tags.Title = source.Title
		tags.Artist = source.Artist
		tags.TrackNumber = source.TrackNumber
		return
	}

	tags.Title = track.Title
	tags.TrackNumber = track.Position
	tags.TrackID = track.ID

	// Release fetches carry no track-level artist credits, so a
	// fingerprint-identified recording's credits stand in before the
	// catalog's plain text does.
	credits := track.ArtistCredit
	if len(credits) == 0 && outcome.Recording != nil {
		credits = outcome.Recording.ArtistCredit
	}
	if len(credits) > 0 {
		tags.Artist = musicbrainz.CreditedArtist(credits)
		tags.ArtistID = credits[0].Artist.ID
		tags.ArtistSort = credits[0].Artist.SortName
		tags.Artists = musicbrainz.CreditedArtists(credits)
	} else {
		tags.Artist = source.Artist
	}

	if track.Recording.ID != "" {
		tags.RecordingID = track.Recording.ID
		if len(track.Recording.ISRCs) > 0 {
			tags.ISRC = track.Recording.ISRCs[0]
		}
	}
	if tags.ISRC == "" && outcome.Recording != nil && len(outcome.Recording.ISRCs) > 0 {
		tags.ISRC = outcome.Recording.ISRCs[0]
	}

	// Medium-level counts come from the release the track sits in
	if outcome.Release != nil {
		if medium := mediumOf(outcome.Release, track.ID); medium != nil {
			tags.DiscNumber = medium.Position
			if len(medium.Tracks) > 0 {
				tags.TotalTracks = len(medium.Tracks)
			} else {
				tags.TotalTracks = medium.TrackCount
			}
		}
		tags.TotalDiscs = len(outcome.Release.Media)
	}
}

// projectRelease fills album-level fields from the matched release, falling
// back to catalog album fields.
func projectRelease(tags *TagSet, release *musicbrainz.Release, album *shared.CatalogAlbum) {
	if release == nil {
		if album != nil {
			tags.Album = album.Title
			tags.AlbumArtist = album.Artist
			tags.Date = album.ReleaseDate
			tags.Year = yearPart(album.ReleaseDate)
			tags.Label = album.Label
			tags.Genre = album.Genre
			tags.Copyright = album.Copyright
		}
		return
	}

	tags.Album = release.Title
	tags.ReleaseID = release.ID

	if release.ReleaseGroup.ID != "" {
		tags.ReleaseGroupID = release.ReleaseGroup.ID
		tags.ReleaseType = release.ReleaseGroup.PrimaryType
		if len(release.ReleaseGroup.SecondaryTypes) > 0 {
			tags.ReleaseTypeSecondary = strings.Join(release.ReleaseGroup.SecondaryTypes, "; ")
		}
		if release.ReleaseGroup.FirstReleaseDate != "" {
			tags.OriginalDate = release.ReleaseGroup.FirstReleaseDate
			tags.OriginalYear = yearPart(release.ReleaseGroup.FirstReleaseDate)
		}
	}

	switch {
	case release.Date != "":
		tags.Date = release.Date
		tags.Year = yearPart(release.Date)
	case tags.OriginalDate != "":
		tags.Date = tags.OriginalDate
		tags.Year = tags.OriginalYear
	}

	if len(release.ArtistCredit) > 0 {
		tags.AlbumArtist = musicbrainz.CreditedArtist(release.ArtistCredit)
		tags.AlbumArtistID = release.ArtistCredit[0].Artist.ID
		tags.AlbumArtistSort = release.ArtistCredit[0].Artist.SortName
	}

	if len(release.LabelInfo) > 0 {
		tags.Label = release.LabelInfo[0].Label.Name
		tags.CatalogNumber = release.LabelInfo[0].CatalogNumber
	}
	tags.Barcode = release.Barcode
	tags.Country = release.Country
	tags.Status = release.Status
	if len(release.Media) > 0 {
		tags.MediaFormat = release.Media[0].Format
	}
	tags.Language = release.TextRepresentation.Language
	tags.Script = release.TextRepresentation.Script

	// The registry carries neither genre nor copyright; the catalog's stand in
	if album != nil {
		tags.Genre = album.Genre
		tags.Copyright = album.Copyright
	}
}

// mediumOf finds the medium containing the track with the given ID.
func mediumOf(release *musicbrainz.Release, trackID string) *musicbrainz.Medium {
	for mi := range release.Media {
		for ti := range release.Media[mi].Tracks {
			if release.Media[mi].Tracks[ti].ID == trackID {
				return &release.Media[mi]
			}
		}
	}
	return nil
}

func yearPart(date string) string {
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}
