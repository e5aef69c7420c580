package tagger

import (
	"testing"

	"squid-downloader/internal/api/musicbrainz"
	"squid-downloader/internal/core/resolve"
	"squid-downloader/internal/shared"
)

func testRelease() *musicbrainz.Release {
	return &musicbrainz.Release{
		ID:      "rel-1",
		Title:   "Abbey Road",
		Status:  "Official",
		Date:    "1969-09-26",
		Country: "GB",
		Barcode: "077774644020",
		ArtistCredit: []musicbrainz.ArtistCredit{
			{Name: "The Beatles", Artist: musicbrainz.Artist{ID: "ar-1", Name: "The Beatles", SortName: "Beatles, The"}},
		},
		LabelInfo: []musicbrainz.LabelInfo{
			{CatalogNumber: "PCS 7088", Label: musicbrainz.Label{ID: "lb-1", Name: "Apple Records"}},
		},
		ReleaseGroup: musicbrainz.ReleaseGroup{
			ID:               "rg-1",
			PrimaryType:      "Album",
			FirstReleaseDate: "1969-09-26",
		},
		Media: []musicbrainz.Medium{
			{
				Position: 1,
				Format:   "CD",
				Tracks: []musicbrainz.MediumTrack{
					{
						ID:       "tr-1",
						Position: 1,
						Title:    "Come Together",
						ArtistCredit: []musicbrainz.ArtistCredit{
							{Name: "The Beatles", Artist: musicbrainz.Artist{ID: "ar-1", Name: "The Beatles", SortName: "Beatles, The"}},
						},
						Recording: musicbrainz.Recording{ID: "rec-1", ISRCs: []string{"GBAYE0601690"}},
					},
					{ID: "tr-2", Position: 2, Title: "Something"},
				},
			},
		},
		TextRepresentation: musicbrainz.TextRepresentation{Language: "eng", Script: "Latn"},
	}
}

func TestProjectRegistryBeatsCatalog(t *testing.T) {
	release := testRelease()
	outcome := resolve.Outcome{
		Kind:    resolve.OutcomeRelease,
		Release: release,
		Track:   &release.Media[0].Tracks[0],
	}
	// The catalog disagrees on titles; registry data must win
	source := shared.SourceTrack{Title: "Come Together (Remastered 2009)", Artist: "Beatles", TrackNumber: 1}
	album := &shared.CatalogAlbum{ID: "q-1", Title: "Abbey Road (Remastered)", Artist: "Beatles", ReleaseDate: "2009-09-09", Genre: "Rock"}

	tags := Project(outcome, source, album)

	if tags.Title != "Come Together" {
		t.Errorf("title = %q, want Come Together", tags.Title)
	}
	if tags.Album != "Abbey Road" {
		t.Errorf("album = %q, want Abbey Road", tags.Album)
	}
	if tags.AlbumArtist != "The Beatles" {
		t.Errorf("albumartist = %q, want The Beatles", tags.AlbumArtist)
	}
	if tags.Date != "1969-09-26" || tags.Year != "1969" {
		t.Errorf("date/year = %q/%q, want 1969-09-26/1969", tags.Date, tags.Year)
	}
	if tags.OriginalYear != "1969" {
		t.Errorf("originalyear = %q, want 1969", tags.OriginalYear)
	}
	if tags.TrackNumber != 1 || tags.TotalTracks != 2 {
		t.Errorf("track = %d/%d, want 1/2", tags.TrackNumber, tags.TotalTracks)
	}
	if tags.DiscNumber != 1 || tags.TotalDiscs != 1 {
		t.Errorf("disc = %d/%d, want 1/1", tags.DiscNumber, tags.TotalDiscs)
	}
	if tags.RecordingID != "rec-1" || tags.TrackID != "tr-1" {
		t.Errorf("ids = %q/%q, want rec-1/tr-1", tags.RecordingID, tags.TrackID)
	}
	if tags.ISRC != "GBAYE0601690" {
		t.Errorf("isrc = %q", tags.ISRC)
	}
	if tags.Label != "Apple Records" || tags.CatalogNumber != "PCS 7088" {
		t.Errorf("label info = %q/%q", tags.Label, tags.CatalogNumber)
	}
	if tags.ArtistSort != "Beatles, The" {
		t.Errorf("artistsort = %q", tags.ArtistSort)
	}
	// Genre has no registry source; the catalog supplies it
	if tags.Genre != "Rock" {
		t.Errorf("genre = %q, want Rock", tags.Genre)
	}
	if tags.Language != "eng" || tags.Script != "Latn" {
		t.Errorf("language/script = %q/%q", tags.Language, tags.Script)
	}
	if tags.MediaFormat != "CD" {
		t.Errorf("media = %q, want CD", tags.MediaFormat)
	}
}

func TestProjectCatalogFallback(t *testing.T) {
	outcome := resolve.Outcome{Kind: resolve.OutcomeCatalog, InferredTitle: "Some Song"}
	source := shared.SourceTrack{Title: "Some Song", Artist: "Some Artist", TrackNumber: 3}
	album := &shared.CatalogAlbum{ID: "q-1", Title: "Some Album", Artist: "Some Artist", ReleaseDate: "2015-04-01", Label: "Some Label", Genre: "Jazz"}

	tags := Project(outcome, source, album)

	if tags.Title != "Some Song" || tags.Artist != "Some Artist" {
		t.Errorf("track fields = %q/%q", tags.Title, tags.Artist)
	}
	if tags.Album != "Some Album" || tags.AlbumArtist != "Some Artist" {
		t.Errorf("album fields = %q/%q", tags.Album, tags.AlbumArtist)
	}
	if tags.Year != "2015" || tags.Date != "2015-04-01" {
		t.Errorf("date fields = %q/%q", tags.Date, tags.Year)
	}
	if tags.Label != "Some Label" || tags.Genre != "Jazz" {
		t.Errorf("label/genre = %q/%q", tags.Label, tags.Genre)
	}
	if tags.TrackNumber != 3 {
		t.Errorf("tracknumber = %d, want 3", tags.TrackNumber)
	}
	if tags.ReleaseID != "" {
		t.Errorf("releaseid = %q, want empty without registry data", tags.ReleaseID)
	}
}

func TestProjectFilenameTitleLastResort(t *testing.T) {
	outcome := resolve.Outcome{Kind: resolve.OutcomeUnresolved, InferredTitle: "Mystery Song"}

	tags := Project(outcome, shared.SourceTrack{}, nil)

	if tags.Title != "Mystery Song" {
		t.Errorf("title = %q, want Mystery Song", tags.Title)
	}
}

func TestProjectFingerprintCarriesIdentifiers(t *testing.T) {
	release := testRelease()
	outcome := resolve.Outcome{
		Kind:        resolve.OutcomeFingerprint,
		Release:     release,
		Track:       &release.Media[0].Tracks[0],
		RecordingID: "rec-1",
		AcoustID:    "acoustid-42",
	}

	tags := Project(outcome, shared.SourceTrack{}, nil)

	if tags.AcoustID != "acoustid-42" {
		t.Errorf("acoustid = %q, want acoustid-42", tags.AcoustID)
	}
	if tags.RecordingID != "rec-1" {
		t.Errorf("recordingid = %q, want rec-1", tags.RecordingID)
	}
}

func TestProjectFingerprintRecordingCredits(t *testing.T) {
	release := testRelease()
	recording := &musicbrainz.Recording{
		ID:    "rec-2",
		Title: "Something",
		ISRCs: []string{"GBAYE0601697"},
		ArtistCredit: []musicbrainz.ArtistCredit{
			{Name: "The Beatles", Artist: musicbrainz.Artist{ID: "ar-1", Name: "The Beatles", SortName: "Beatles, The"}},
		},
	}
	// The release fetch carries no credits on this track; the identified
	// recording does, and it must beat the catalog's artist text.
	outcome := resolve.Outcome{
		Kind:        resolve.OutcomeFingerprint,
		Release:     release,
		Track:       &release.Media[0].Tracks[1],
		RecordingID: "rec-2",
		Recording:   recording,
		AcoustID:    "acoustid-42",
	}
	source := shared.SourceTrack{Title: "Something", Artist: "Mangled Catalog Artist"}

	tags := Project(outcome, source, nil)

	if tags.Artist != "The Beatles" {
		t.Errorf("artist = %q, want The Beatles", tags.Artist)
	}
	if tags.ArtistID != "ar-1" {
		t.Errorf("artistid = %q, want ar-1", tags.ArtistID)
	}
	if tags.ArtistSort != "Beatles, The" {
		t.Errorf("artistsort = %q, want Beatles, The", tags.ArtistSort)
	}
	if len(tags.Artists) != 1 || tags.Artists[0] != "The Beatles" {
		t.Errorf("artists = %v, want [The Beatles]", tags.Artists)
	}
	if tags.ISRC != "GBAYE0601697" {
		t.Errorf("isrc = %q, want GBAYE0601697", tags.ISRC)
	}
}

func TestJoinedArtists(t *testing.T) {
	tags := &TagSet{Artist: "Queen", Artists: []string{"Queen", "David Bowie"}}
	if got := tags.JoinedArtists(); got != "Queen; David Bowie" {
		t.Errorf("JoinedArtists = %q", got)
	}
	solo := &TagSet{Artist: "Queen"}
	if got := solo.JoinedArtists(); got != "Queen" {
		t.Errorf("JoinedArtists fallback = %q", got)
	}
}
