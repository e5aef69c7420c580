package resolve

import (
	"context"
	"strings"

	"squid-downloader/internal/api/musicbrainz"
	"squid-downloader/internal/shared"
)

// OutcomeKind says which stage of resolution produced the result.
type OutcomeKind int

const (
	// OutcomeUnresolved means no source yielded anything beyond the
	// filename-inferred title.
	OutcomeUnresolved OutcomeKind = iota
	// OutcomeCatalog means only catalog fields are available.
	OutcomeCatalog
	// OutcomeRelease means a registry release and track were matched
	// directly from the release's track listing.
	OutcomeRelease
	// OutcomeFingerprint means the track was identified acoustically and
	// the release re-derived from the matched recording.
	OutcomeFingerprint
)

// Outcome is the result of resolving one downloaded file. Release and Track
// are set for OutcomeRelease and OutcomeFingerprint; RecordingID is set only
// for OutcomeFingerprint.
type Outcome struct {
	Kind        OutcomeKind
	Release     *musicbrainz.Release
	Track       *musicbrainz.MediumTrack
	RecordingID string
	// Recording is the identified recording with its artist credits and
	// ISRCs, kept because the release fetch carries no track-level credits.
	Recording *musicbrainz.Recording
	// AcoustID is the fingerprint service's own track identifier.
	AcoustID string
	// InferredTitle is the title recovered from the filename, kept as the
	// last-resort title when no other source supplies one.
	InferredTitle string
}

// Resolved reports whether a registry track was pinned down.
func (o Outcome) Resolved() bool {
	return o.Kind == OutcomeRelease || o.Kind == OutcomeFingerprint
}

// Registry is the slice of the metadata registry the resolver needs.
type Registry interface {
	GetRelease(ctx context.Context, mbid string) (*musicbrainz.Release, error)
	GetRecording(ctx context.Context, mbid string) (*musicbrainz.Recording, error)
}

// Identifier is the acoustic fingerprint service. Ready is checked once per
// resolution; when false the fingerprint stage is skipped entirely.
type Identifier interface {
	Ready() bool
	Identify(ctx context.Context, filePath string) (recordingID, acoustID string, err error)
}

// Resolver pins a downloaded audio file to a specific registry track. It
// works through a fixed sequence of stages, stopping at the first success:
// a pre-chosen or cached release's track listing, then acoustic fingerprint
// identification, then bare catalog data.
type Resolver struct {
	registry   Registry
	identifier Identifier
	cache      *ReleaseCache
	warnings   *shared.WarningCollector
}

// NewResolver creates a track resolver. identifier may be nil when
// fingerprinting is not configured.
func NewResolver(registry Registry, identifier Identifier, cache *ReleaseCache, warnings *shared.WarningCollector) *Resolver {
	return &Resolver{
		registry:   registry,
		identifier: identifier,
		cache:      cache,
		warnings:   warnings,
	}
}

// Resolve determines the registry track for one downloaded file. audioFile
// is the local path; source carries the catalog's view of the track;
// chosenReleaseID is a user or matcher choice and overrides the cache;
// album may be nil for standalone tracks. Errors never escape: a failed
// stage degrades to the next one.
func (r *Resolver) Resolve(ctx context.Context, audioFile string, source shared.SourceTrack, chosenReleaseID string, album *shared.CatalogAlbum) Outcome {
	albumArtist := source.Artist
	albumID := ""
	if album != nil {
		albumArtist = album.Artist
		albumID = album.ID
	}
	inferredTitle := shared.ExtractTitleFromFilename(audioFile, albumArtist)

	// Pre-chosen release, falling back to the session cache
	release := r.fetchChosenRelease(ctx, chosenReleaseID, albumID)

	// Track-in-release matching against the known or inferred title
	if release != nil {
		if track := findTrackByTitle(release, inferredTitle, source); track != nil {
			return Outcome{Kind: OutcomeRelease, Release: release, Track: track, InferredTitle: inferredTitle}
		}
		if r.warnings != nil {
			r.warnings.AddTrackMatchWarning(source.Title, "no matching track in release "+release.Title)
		}
	}

	// Fingerprint fallback
	if r.identifier != nil && r.identifier.Ready() {
		if outcome, ok := r.resolveByFingerprint(ctx, audioFile, source, album, albumID); ok {
			outcome.InferredTitle = inferredTitle
			return outcome
		}
	}

	// Minimal tagging from catalog fields, or just the filename title
	if source.Title != "" || source.Artist != "" {
		return Outcome{Kind: OutcomeCatalog, InferredTitle: inferredTitle}
	}
	return Outcome{Kind: OutcomeUnresolved, InferredTitle: inferredTitle}
}

// fetchChosenRelease loads the explicitly chosen or session-cached release.
// A fetch failure leaves resolution without release context rather than
// failing it.
func (r *Resolver) fetchChosenRelease(ctx context.Context, chosenReleaseID, albumID string) *musicbrainz.Release {
	releaseID := chosenReleaseID
	if releaseID == "" {
		releaseID = r.cache.Get(albumID)
	}
	if releaseID == "" {
		return nil
	}

	release, err := r.registry.GetRelease(ctx, releaseID)
	if err != nil {
		shared.ColorWarning.Printf("⚠️ Failed to fetch release %s: %v\n", releaseID, err)
		return nil
	}
	return release
}

// findTrackByTitle scans media in physical order for a track whose title
// matches either the filename-inferred title or the catalog title, and whose
// position agrees with the catalog track number when one is known.
func findTrackByTitle(release *musicbrainz.Release, inferredTitle string, source shared.SourceTrack) *musicbrainz.MediumTrack {
	for mi := range release.Media {
		for ti := range release.Media[mi].Tracks {
			track := &release.Media[mi].Tracks[ti]
			if !titleMatches(track.Title, inferredTitle, source.Title) {
				continue
			}
			if source.TrackNumber != 0 && source.TrackNumber != track.Position {
				continue
			}
			return track
		}
	}
	return nil
}

func titleMatches(candidate, inferredTitle, sourceTitle string) bool {
	if inferredTitle != "" && strings.EqualFold(candidate, inferredTitle) {
		return true
	}
	return sourceTitle != "" && strings.EqualFold(candidate, sourceTitle)
}

// resolveByFingerprint identifies the file acoustically and re-derives the
// best release from the matched recording's linked releases.
func (r *Resolver) resolveByFingerprint(ctx context.Context, audioFile string, source shared.SourceTrack, album *shared.CatalogAlbum, albumID string) (Outcome, bool) {
	recordingID, acoustID, err := r.identifier.Identify(ctx, audioFile)
	if err != nil {
		if r.warnings != nil {
			r.warnings.AddFingerprintWarning(audioFile, err.Error())
		}
		return Outcome{}, false
	}
	if recordingID == "" {
		return Outcome{}, false
	}

	recording, err := r.registry.GetRecording(ctx, recordingID)
	if err != nil {
		shared.ColorWarning.Printf("⚠️ Failed to fetch recording %s: %v\n", recordingID, err)
		return Outcome{}, false
	}
	if len(recording.Releases) == 0 {
		return Outcome{}, false
	}

	albumTitle := ""
	if album != nil {
		albumTitle = album.Title
	}
	chosen := pickRecordingRelease(recording.Releases, albumTitle)

	release, err := r.registry.GetRelease(ctx, chosen.ID)
	if err != nil {
		shared.ColorWarning.Printf("⚠️ Failed to fetch release %s: %v\n", chosen.ID, err)
		return Outcome{}, false
	}

	track := findTrackByRecording(release, recordingID)
	if track == nil {
		return Outcome{}, false
	}

	r.cache.Put(albumID, release.ID)
	shared.DebugPrintf("fingerprint resolved %s to recording %s on release %s", audioFile, recordingID, release.ID)
	return Outcome{Kind: OutcomeFingerprint, Release: release, Track: track, RecordingID: recordingID, Recording: recording, AcoustID: acoustID}, true
}

// pickRecordingRelease chooses among a recording's linked releases: an
// official release whose title matches the catalog album exactly, else an
// official album, else the first listed.
func pickRecordingRelease(releases []musicbrainz.Release, albumTitle string) *musicbrainz.Release {
	if albumTitle != "" {
		for i := range releases {
			if strings.EqualFold(releases[i].Title, albumTitle) && strings.EqualFold(releases[i].Status, "official") {
				return &releases[i]
			}
		}
	}
	for i := range releases {
		if strings.EqualFold(releases[i].Status, "official") && strings.EqualFold(releases[i].ReleaseGroup.PrimaryType, "Album") {
			return &releases[i]
		}
	}
	return &releases[0]
}

// findTrackByRecording scans media for the track carrying the given
// recording identifier.
func findTrackByRecording(release *musicbrainz.Release, recordingID string) *musicbrainz.MediumTrack {
	for mi := range release.Media {
		for ti := range release.Media[mi].Tracks {
			track := &release.Media[mi].Tracks[ti]
			if track.Recording.ID == recordingID {
				return track
			}
		}
	}
	return nil
}
