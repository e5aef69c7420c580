package tagger

import (
	"fmt"
	"strconv"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// flacHandler writes Vorbis comments and a front-cover picture block. Field
// names follow Picard's FLAC conventions so other taggers read them back.
type flacHandler struct{}

func (h *flacHandler) Write(path string, tags *TagSet, coverArt []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse flac: %w", err)
	}

	cmts := flacvorbis.New()

	add := func(key, value string) {
		if value != "" {
			cmts.Add(key, value)
		}
	}
	addInt := func(key string, value int) {
		if value > 0 {
			cmts.Add(key, strconv.Itoa(value))
		}
	}

	add("TITLE", tags.Title)
	add("ARTIST", tags.Artist)
	add("ALBUM", tags.Album)
	add("ALBUMARTIST", tags.AlbumArtist)
	add("DATE", tags.Date)
	add("GENRE", tags.Genre)
	for _, artist := range tags.Artists {
		add("ARTISTS", artist)
	}

	add("ALBUMARTISTSORT", tags.AlbumArtistSort)
	add("ARTISTSORT", tags.ArtistSort)

	addInt("TRACKNUMBER", tags.TrackNumber)
	addInt("TRACKTOTAL", tags.TotalTracks)
	addInt("DISCNUMBER", tags.DiscNumber)
	addInt("DISCTOTAL", tags.TotalDiscs)

	add("MUSICBRAINZ_RECORDINGID", tags.RecordingID)
	add("MUSICBRAINZ_ARTISTID", tags.ArtistID)
	add("MUSICBRAINZ_ALBUMARTISTID", tags.AlbumArtistID)
	add("MUSICBRAINZ_RELEASEID", tags.ReleaseID)
	add("MUSICBRAINZ_RELEASEGROUPID", tags.ReleaseGroupID)
	add("MUSICBRAINZ_TRACKID", tags.TrackID)
	add("ACOUSTID_ID", tags.AcoustID)

	add("ISRC", tags.ISRC)
	add("BARCODE", tags.Barcode)
	add("CATALOGNUMBER", tags.CatalogNumber)
	add("ORIGINALDATE", tags.OriginalDate)
	add("ORIGINALYEAR", tags.OriginalYear)
	add("LABEL", tags.Label)
	add("MUSICBRAINZ_RELEASE_COUNTRY", tags.Country)
	add("MUSICBRAINZ_RELEASE_STATUS", tags.Status)
	add("MEDIA", tags.MediaFormat)
	add("RELEASETYPE", tags.ReleaseType)
	add("RELEASETYPE_SECONDARY", tags.ReleaseTypeSecondary)
	add("LANGUAGE", tags.Language)
	add("SCRIPT", tags.Script)
	add("COPYRIGHT", tags.Copyright)

	// Drop all existing comment and picture blocks so the new set fully
	// replaces whatever was there
	kept := make([]*flac.MetaDataBlock, 0, len(f.Meta)+2)
	for _, meta := range f.Meta {
		if meta.Type == flac.VorbisComment || meta.Type == flac.Picture {
			continue
		}
		kept = append(kept, meta)
	}
	f.Meta = kept

	cmtBlock := cmts.Marshal()
	f.Meta = append(f.Meta, &cmtBlock)

	if len(coverArt) > 0 {
		pic, err := flacpicture.NewFromImageData(
			flacpicture.PictureTypeFrontCover,
			"Front Cover",
			coverArt,
			detectMimeType(coverArt),
		)
		if err != nil {
			return fmt.Errorf("create picture block: %w", err)
		}
		picBlock := pic.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save flac: %w", err)
	}
	return nil
}
