package tagger

import (
	"net/http"
	"path/filepath"
	"strings"

	"squid-downloader/internal/shared"
)

// containerHandler writes a tag set into one container format. Handlers
// replace all existing tags rather than merging, so repeated runs never
// accumulate stale values.
type containerHandler interface {
	Write(path string, tags *TagSet, coverArt []byte) error
}

// Writer persists canonical tag sets into audio files, dispatching on the
// file extension.
type Writer struct {
	handlers map[string]containerHandler
	warnings *shared.WarningCollector
}

// NewWriter creates a tag writer with handlers for FLAC, MP3, and M4A.
func NewWriter(warnings *shared.WarningCollector) *Writer {
	flac := &flacHandler{}
	mp3 := &mp3Handler{}
	m4a := &m4aHandler{}
	return &Writer{
		handlers: map[string]containerHandler{
			".flac": flac,
			".mp3":  mp3,
			".m4a":  m4a,
			".mp4":  m4a,
		},
		warnings: warnings,
	}
}

// Write persists the tag set into the file, embedding coverArt as the front
// cover when present. It reports success rather than returning an error:
// unsupported extensions, corrupt containers, and I/O failures all come back
// as false, with the reason collected as a warning.
func (w *Writer) Write(path string, tags *TagSet, coverArt []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	handler, ok := w.handlers[ext]
	if !ok {
		w.warn(path, "unsupported file extension "+ext)
		return false
	}

	if !shared.FileExists(path) {
		w.warn(path, "file does not exist")
		return false
	}

	if err := handler.Write(path, tags, coverArt); err != nil {
		w.warn(path, err.Error())
		return false
	}
	return true
}

func (w *Writer) warn(path, details string) {
	shared.ColorWarning.Printf("⚠️ Tagging failed for %s: %s\n", filepath.Base(path), details)
	if w.warnings != nil {
		w.warnings.AddTagWriteWarning(path, details)
	}
}

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

// detectMimeType sniffs the cover image type, defaulting to JPEG.
func detectMimeType(data []byte) string {
	switch http.DetectContentType(data) {
	case mimePNG:
		return mimePNG
	default:
		return mimeJPEG
	}
}
