package tagger

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bogem/id3v2/v2"
)

// mp3Handler writes ID3v2.4 frames with UTF-8 encoding. MusicBrainz
// identifiers go into TXXX frames with Picard's exact descriptions.
type mp3Handler struct{}

func (h *mp3Handler) Write(path string, tags *TagSet, coverArt []byte) error {
	if err := checkMPEGAudio(path); err != nil {
		return err
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open mp3: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.DeleteAllFrames()

	text := func(id, value string) {
		if value != "" {
			tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
		}
	}
	txxx := func(description, value string) {
		if value != "" {
			tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
				Encoding:    id3v2.EncodingUTF8,
				Description: description,
				Value:       value,
			})
		}
	}

	text("TIT2", tags.Title)
	text("TPE1", tags.Artist)
	text("TPE2", tags.AlbumArtist)
	text("TALB", tags.Album)
	text("TDRC", tags.Date)
	text("TCON", tags.Genre)
	if len(tags.Artists) > 1 {
		txxx("ARTISTS", tags.JoinedArtists())
	}

	// TSO2 is the album-artist sort frame Picard writes; TSOA is album sort.
	text("TSO2", tags.AlbumArtistSort)
	text("TSOP", tags.ArtistSort)

	if tags.TrackNumber > 0 {
		track := strconv.Itoa(tags.TrackNumber)
		if tags.TotalTracks > 0 {
			track += "/" + strconv.Itoa(tags.TotalTracks)
		}
		text("TRCK", track)
	}
	if tags.DiscNumber > 0 {
		disc := strconv.Itoa(tags.DiscNumber)
		if tags.TotalDiscs > 0 {
			disc += "/" + strconv.Itoa(tags.TotalDiscs)
		}
		text("TPOS", disc)
	}

	txxx("MusicBrainz Recording Id", tags.RecordingID)
	txxx("MusicBrainz Artist Id", tags.ArtistID)
	txxx("MusicBrainz Album Artist Id", tags.AlbumArtistID)
	txxx("MusicBrainz Album Id", tags.ReleaseID)
	txxx("MusicBrainz Release Group Id", tags.ReleaseGroupID)
	txxx("MusicBrainz Track Id", tags.TrackID)
	txxx("Acoustid Id", tags.AcoustID)

	text("TSRC", tags.ISRC)
	txxx("BARCODE", tags.Barcode)
	txxx("CATALOGNUMBER", tags.CatalogNumber)
	text("TDOR", tags.OriginalDate)
	txxx("ORIGINALYEAR", tags.OriginalYear)
	text("TPUB", tags.Label)
	txxx("MusicBrainz Album Release Country", tags.Country)
	txxx("MusicBrainz Album Status", tags.Status)
	txxx("MEDIA", tags.MediaFormat)
	txxx("RELEASETYPE", tags.ReleaseType)
	txxx("RELEASETYPE_SECONDARY", tags.ReleaseTypeSecondary)
	text("TLAN", tags.Language)
	txxx("SCRIPT", tags.Script)
	text("TCOP", tags.Copyright)

	if len(coverArt) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    detectMimeType(coverArt),
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     coverArt,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save mp3: %w", err)
	}
	return nil
}

// checkMPEGAudio rejects files with no MPEG audio frame, since id3v2.Open
// happily prepends a tag to arbitrary bytes. It skips a leading ID3v2 tag
// (synchsafe size in bytes 6-9) and then scans for a frame sync word.
func checkMPEGAudio(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open mp3: %w", err)
	}
	defer f.Close()

	header := make([]byte, 10)
	if n, _ := f.Read(header); n == 10 && string(header[:3]) == "ID3" {
		size := int64(header[6]&0x7F)<<21 | int64(header[7]&0x7F)<<14 |
			int64(header[8]&0x7F)<<7 | int64(header[9]&0x7F)
		if _, err := f.Seek(10+size, 0); err != nil {
			return fmt.Errorf("seek past id3 tag: %w", err)
		}
	} else if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("rewind mp3: %w", err)
	}

	buf := make([]byte, 8192)
	n, _ := f.Read(buf)
	for i := 0; i+1 < n; i++ {
		if buf[i] == 0xFF && buf[i+1]&0xE0 == 0xE0 {
			return nil
		}
	}
	return fmt.Errorf("no mpeg audio frame in %s", path)
}
