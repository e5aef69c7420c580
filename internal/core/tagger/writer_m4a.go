package tagger

import (
	"fmt"
	"strconv"

	mp4tag "github.com/Sorrow446/go-mp4tag"
)

// m4aHandler writes MP4 atoms via go-mp4tag. Fields with no standard atom
// go into freeform com.apple.iTunes atoms with Picard's names.
type m4aHandler struct{}

func (h *m4aHandler) Write(path string, tags *TagSet, coverArt []byte) error {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("open m4a: %w", err)
	}
	defer mp4.Close()

	atoms, deletes := m4aAtoms(tags, coverArt)
	if err := mp4.Write(atoms, deletes); err != nil {
		return fmt.Errorf("write m4a: %w", err)
	}
	return nil
}

// m4aAtoms builds the atom set for one tag write. The delete list clears
// every pre-existing tag and picture, since "alltags" alone leaves pictures
// in place; writes replace, never merge.
func m4aAtoms(tags *TagSet, coverArt []byte) (*mp4tag.MP4Tags, []string) {
	custom := make(map[string]string)
	addCustom := func(key, value string) {
		if value != "" {
			custom[key] = value
		}
	}

	if len(tags.Artists) > 1 {
		addCustom("ARTISTS", tags.JoinedArtists())
	}
	addCustom("ALBUMARTISTSORT", tags.AlbumArtistSort)

	addCustom("MusicBrainz Recording Id", tags.RecordingID)
	addCustom("MusicBrainz Artist Id", tags.ArtistID)
	addCustom("MusicBrainz Album Artist Id", tags.AlbumArtistID)
	addCustom("MusicBrainz Album Id", tags.ReleaseID)
	addCustom("MusicBrainz Release Group Id", tags.ReleaseGroupID)
	addCustom("MusicBrainz Track Id", tags.TrackID)
	addCustom("Acoustid Id", tags.AcoustID)

	addCustom("ISRC", tags.ISRC)
	addCustom("BARCODE", tags.Barcode)
	addCustom("CATALOGNUMBER", tags.CatalogNumber)
	addCustom("ORIGINAL RELEASE DATE", tags.OriginalDate)
	addCustom("ORIGINAL YEAR", tags.OriginalYear)
	addCustom("LABEL", tags.Label)
	addCustom("MusicBrainz Album Release Country", tags.Country)
	addCustom("MusicBrainz Album Status", tags.Status)
	addCustom("MEDIA", tags.MediaFormat)
	addCustom("RELEASETYPE", tags.ReleaseType)
	addCustom("RELEASETYPE_SECONDARY", tags.ReleaseTypeSecondary)
	addCustom("LANGUAGE", tags.Language)
	addCustom("SCRIPT", tags.Script)
	addCustom("COPYRIGHT", tags.Copyright)
	if tags.TotalTracks > 0 {
		addCustom("TOTALTRACKS", strconv.Itoa(tags.TotalTracks))
	}
	if tags.TotalDiscs > 0 {
		addCustom("TOTALDISCS", strconv.Itoa(tags.TotalDiscs))
	}

	atoms := &mp4tag.MP4Tags{
		Title:       tags.Title,
		Artist:      tags.Artist,
		Album:       tags.Album,
		AlbumArtist: tags.AlbumArtist,
		ArtistSort:  tags.ArtistSort,
		TrackNumber: safeInt16(tags.TrackNumber),
		TrackTotal:  safeInt16(tags.TotalTracks),
		DiscNumber:  safeInt16(tags.DiscNumber),
		DiscTotal:   safeInt16(tags.TotalDiscs),
		Date:        tags.Date,
		CustomGenre: tags.Genre,
		Custom:      custom,
	}

	if len(coverArt) > 0 {
		atoms.Pictures = []*mp4tag.MP4Picture{{Data: coverArt}}
	}

	return atoms, []string{"alltags", "allpictures"}
}

// safeInt16 clamps an int to the int16 range the atom encoding allows.
func safeInt16(n int) int16 {
	if n > 32767 {
		return 32767
	}
	if n < 0 {
		return 0
	}
	return int16(n)
}
